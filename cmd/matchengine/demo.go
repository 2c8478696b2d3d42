package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jamhan/predictmarket/engine"
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/metrics"
	"github.com/jamhan/predictmarket/moneymath"
	"github.com/jamhan/predictmarket/persist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted sequence of orders against an in-memory market",
		RunE:  runDemo,
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(rootConfigPath)
	if err != nil {
		return err
	}
	log := loggerFromConfig(cfg)
	defer log.Sync()

	rec := metrics.NewRecorder(prometheus.NewRegistry())
	store := persist.NewMemory()
	f := engine.New(store, log, rec)

	marketID := cfg.Markets[0]
	ctx := context.Background()
	now := time.Now()

	submissions := []*market.Order{
		market.NewOrder("o-1", marketID, "alice", market.SideNo, market.OrderTypeLimit, moneymath.MustFromString("0.40"), moneymath.MustFromString("100"), now),
		market.NewOrder("o-2", marketID, "bob", market.SideNo, market.OrderTypeLimit, moneymath.MustFromString("0.35"), moneymath.MustFromString("50"), now),
		market.NewOrder("o-3", marketID, "carol", market.SideYes, market.OrderTypeLimit, moneymath.MustFromString("0.65"), moneymath.MustFromString("80"), now),
		market.NewOrder("o-4", marketID, "dave", market.SideYes, market.OrderTypeIOC, moneymath.MustFromString("0.60"), moneymath.MustFromString("200"), now),
		market.NewOrder("o-5", marketID, "erin", market.SideNo, market.OrderTypeFOK, moneymath.MustFromString("0.70"), moneymath.MustFromString("500"), now),
		market.NewOrder("o-6", marketID, "frank", market.SideYes, market.OrderTypeMarket, moneymath.Zero(), moneymath.MustFromString("10"), now),
	}

	for _, o := range submissions {
		store.PutOrder(o)
		res, err := f.Submit(ctx, o)
		if err != nil {
			return fmt.Errorf("submitting %s: %w", o.ID, err)
		}
		if res.Rejected {
			fmt.Printf("%-5s rejected: %s\n", o.ID, res.RejectReason)
			continue
		}
		fmt.Printf("%-5s status=%-9s filled=%-8s trades=%d\n", o.ID, res.Order.Status, res.Order.Filled, len(res.Trades))
		for _, t := range res.Trades {
			fmt.Printf("       trade %s: %s@%s size=%s\n", t.ID, t.Side, t.Price, t.Size)
		}
	}

	snap, err := f.Snapshot(marketID)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", marketID, err)
	}
	fmt.Printf("\nfinal book for %s\n", marketID)
	fmt.Println("YES:")
	for _, lvl := range snap.Yes {
		fmt.Printf("  %s x %s (%d order(s))\n", lvl.Price, lvl.Size, len(lvl.OrderIDs))
	}
	fmt.Println("NO:")
	for _, lvl := range snap.No {
		fmt.Printf("  %s x %s (%d order(s))\n", lvl.Price, lvl.Size, len(lvl.OrderIDs))
	}

	return nil
}
