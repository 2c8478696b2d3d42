package market

import "github.com/jamhan/predictmarket/moneymath"

// Position is a (market, user, side) triple's accumulated shares and
// volume-weighted average entry price. A fill adds shares to the
// aggressor's side at the execution price, and — per the source
// convention this engine reproduces — a symmetric opposite-side
// adjustment with negated shares to the counterparty, recording their
// short inventory literally rather than netting it away.
type Position struct {
	MarketID string
	UserID   string
	Side     Side
	Shares   moneymath.Decimal
	AvgPrice moneymath.Decimal
}

// NewPosition returns a zeroed position for the given key.
func NewPosition(marketID, userID string, side Side) *Position {
	return &Position{
		MarketID: marketID,
		UserID:   userID,
		Side:     side,
		Shares:   moneymath.Zero(),
		AvgPrice: moneymath.Zero(),
	}
}

// ApplyFill combines a signed delta of shares transacted at price into
// the position. delta is positive for the aggressor's own side and
// negative for the counterparty's opposite-side adjustment. If the
// resulting shares are exactly zero, the average price resets to zero
// instead of dividing by zero.
func (p *Position) ApplyFill(delta, price moneymath.Decimal) {
	combined := p.Shares.Add(delta)
	if combined.IsZero() {
		p.Shares = moneymath.Zero()
		p.AvgPrice = moneymath.Zero()
		return
	}
	p.AvgPrice = moneymath.WeightedAverage(p.Shares, p.AvgPrice, delta, price)
	p.Shares = combined
}
