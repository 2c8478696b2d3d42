// Package book implements the per-market, per-side price-level index
// with time-ordered queues described in spec §4.3: a balanced index of
// price levels (github.com/google/btree) each holding a FIFO queue of
// resting orders, giving O(log L) insert and best-level lookup and O(1)
// access to a level's front order.
package book

import (
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/moneymath"
)

// Book is a single market's order book: two independent sides, YES and
// NO. Both are "buy" books — in a binary prediction market each side is
// a long position in one outcome — sorted descending by price (best bid
// first), ties broken by ascending creation order (FIFO insertion
// order). The matcher crosses an incoming YES order against the NO side
// and vice versa; Book itself is agnostic to that convention and simply
// indexes the two sides.
type Book struct {
	MarketID string
	yes      *Side
	no       *Side
}

// New creates an empty book for a market.
func New(marketID string) *Book {
	return &Book{
		MarketID: marketID,
		yes:      newSide(),
		no:       newSide(),
	}
}

// Side returns the book's index for the given outcome side.
func (b *Book) Side(side market.Side) *Side {
	if side == market.SideYes {
		return b.yes
	}
	return b.no
}

// Insert adds a resting order to the correct side's price level.
func (b *Book) Insert(o *market.Order) {
	b.Side(o.Side).insert(o)
}

// PeekBest returns the side's own best price level, or nil if empty.
func (b *Book) PeekBest(side market.Side) *PriceLevel {
	return b.Side(side).peekBest()
}

// BestQueueFront returns the oldest resting order at the side's best
// level, or nil if empty.
func (b *Book) BestQueueFront(side market.Side) *market.Order {
	return b.Side(side).bestQueueFront()
}

// DecrementFront lowers the aggregate remaining size of the side's best
// level by amount and pops the level's front order (and the level, if
// now empty) once that order's own remaining size is zero. It does not
// change the order: the caller applies the fill (market.Order.ApplyFill)
// first.
func (b *Book) DecrementFront(side market.Side, amount moneymath.Decimal) {
	b.Side(side).decrementFront(amount)
}

// PeekCrossing returns the price level the matcher should consume next
// when side is being crossed by an incoming order on the opposite side.
// ascending selects the side's lowest price (the order most favorable to
// an incoming YES order, whose crossing test admits low NO prices first)
// or, when false, its highest price (favorable to an incoming NO order,
// whose crossing test admits high YES prices first) — see
// matcher.crossAscending for the direction each incoming side requires.
func (b *Book) PeekCrossing(side market.Side, ascending bool) *PriceLevel {
	if ascending {
		return b.Side(side).peekLowest()
	}
	return b.Side(side).peekBest()
}

// DecrementCrossing is DecrementFront's counterpart for PeekCrossing: it
// decrements whichever level PeekCrossing(side, ascending) would return.
func (b *Book) DecrementCrossing(side market.Side, ascending bool, amount moneymath.Decimal) {
	if ascending {
		b.Side(side).decrementLowest(amount)
		return
	}
	b.Side(side).decrementFront(amount)
}

// WalkCrossing walks side's levels in the same order PeekCrossing would
// consume them (ascending price, or descending), calling fn on each
// until fn returns false or levels are exhausted. Used by the FOK
// pre-scan, which must inspect multiple levels without mutating them.
func (b *Book) WalkCrossing(side market.Side, ascending bool, fn func(*PriceLevel) bool) {
	if ascending {
		b.Side(side).ascend(fn)
		return
	}
	b.Side(side).descend(fn)
}

// Cancel removes the resting order with the given id from whichever
// side it rests on.
func (b *Book) Cancel(id market.OrderID, side market.Side) error {
	return b.Side(side).cancel(id)
}

// BookSnapshot is the read-only view of both sides returned by
// Book.Snapshot.
type BookSnapshot struct {
	Yes []LevelView
	No  []LevelView
}

// Snapshot returns both sides as ordered arrays of (price, aggregate
// size, order-id list) for presentation consumers.
func (b *Book) Snapshot() BookSnapshot {
	return BookSnapshot{
		Yes: b.yes.snapshot(),
		No:  b.no.snapshot(),
	}
}

// BestPrice returns the top-of-book price for side, or ok=false if the
// side is empty.
func (b *Book) BestPrice(side market.Side) (price moneymath.Decimal, ok bool) {
	lvl := b.PeekBest(side)
	if lvl == nil {
		return moneymath.Zero(), false
	}
	return lvl.price, true
}

// IsEmpty reports whether the given side currently has no resting
// orders.
func (b *Book) IsEmpty(side market.Side) bool {
	return b.Side(side).isEmpty()
}

// DescendLevels walks the given side's levels best-price-first, calling
// fn on each until fn returns false or levels are exhausted.
func (b *Book) DescendLevels(side market.Side, fn func(*PriceLevel) bool) {
	b.Side(side).descend(fn)
}
