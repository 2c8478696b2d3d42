package main

import (
	"fmt"
	"os"

	"github.com/jamhan/predictmarket/logging"
	"github.com/spf13/cobra"
)

var rootConfigPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "matchengine",
		Short: "matchengine runs the binary prediction market matching engine",
		Long:  "matchengine hosts an in-process matching engine for binary YES/NO prediction markets and exposes a scripted demo subcommand.",
	}
	root.PersistentFlags().StringVarP(&rootConfigPath, "config-path", "c", "", "directory containing matchengine.yaml, if any")

	root.AddCommand(newDemoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loggerFromConfig(cfg *Config) *logging.Logger {
	return logging.NewProduction(levelFromString(cfg.LogLevel)).Named("matchengine")
}
