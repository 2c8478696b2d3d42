package market

import (
	"time"

	"github.com/jamhan/predictmarket/moneymath"
)

// TradeID uniquely identifies a trade record. Trades are write-once.
type TradeID string

// Trade is an immutable record of a single execution between an
// aggressing order and a resting order. Side is inherited from the
// aggressor's conceptual "buy" side (see the matcher's cross-side
// convention): if the incoming order was YES, the incoming order is the
// buyer and the resting NO order is the seller, and vice versa.
type Trade struct {
	ID          TradeID
	MarketID    string
	BuyOrderID  OrderID
	SellOrderID OrderID
	BuyerID     string
	SellerID    string
	Side        Side
	Price       moneymath.Decimal
	Size        moneymath.Decimal
	CreatedAt   time.Time
}
