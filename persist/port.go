// Package persist defines the narrow port the matcher uses to record
// trades, update order fill progress and status, mutate positions, and
// publish last prices (spec §4.5), plus an in-memory implementation of
// that port suitable for embedding and for tests. The durable store a
// production deployment would use is out of scope for this module; only
// the interface it must satisfy lives here.
package persist

import (
	"context"

	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/moneymath"
)

// Port is the persistence boundary the matcher depends on. Every method
// may suspend (a durable implementation issues real I/O); the caller
// (the engine facade) is required to hold the per-market lock across the
// entire call sequence for a submission, including every suspended write.
type Port interface {
	// CreateTrade writes a new, immutable trade record.
	CreateTrade(ctx context.Context, t *market.Trade) (*market.Trade, error)

	// SetOrderFilled records an order's cumulative filled size (not a
	// delta).
	SetOrderFilled(ctx context.Context, id market.OrderID, cumulativeFilled moneymath.Decimal) error

	// SetOrderStatus records an order's terminal or intermediate status
	// and returns the updated record.
	SetOrderStatus(ctx context.Context, id market.OrderID, status market.OrderStatus) (*market.Order, error)

	// UpsertPosition combines deltaShares into the (marketID, userID,
	// side) position's (shares, avgPrice) per the size-weighted-average
	// rule in spec §4.4.3.
	UpsertPosition(ctx context.Context, marketID, userID string, side market.Side, deltaShares, price moneymath.Decimal) error

	// SetLastPrices publishes the top-of-book prices for both sides of
	// a market.
	SetLastPrices(ctx context.Context, marketID string, yesPrice, noPrice moneymath.Decimal) error

	// ActiveOrders returns every PENDING or PARTIAL order for a market,
	// for warm-load only.
	ActiveOrders(ctx context.Context, marketID string) ([]*market.Order, error)
}
