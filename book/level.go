package book

import (
	"container/list"

	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/moneymath"
)

// PriceLevel is a (price, FIFO queue of resting orders) pair. The queue
// preserves time priority: orders are appended on insert and consumed
// from the front. total is the sum of remaining (size - filled) across
// the queue, maintained incrementally so Snapshot never has to walk the
// queue to compute it.
type PriceLevel struct {
	price  moneymath.Decimal
	orders *list.List // of *market.Order
	total  moneymath.Decimal
}

func newPriceLevel(price moneymath.Decimal) *PriceLevel {
	return &PriceLevel{
		price:  price,
		orders: list.New(),
		total:  moneymath.Zero(),
	}
}

func (l *PriceLevel) append(o *market.Order) *list.Element {
	l.total = l.total.Add(o.Remaining())
	return l.orders.PushBack(o)
}

func (l *PriceLevel) front() *market.Order {
	e := l.orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*market.Order)
}

func (l *PriceLevel) isEmpty() bool {
	return l.orders.Len() == 0
}

// less reports whether l sorts before other in the natural ascending
// order the btree index is keyed on; both sides then read best-first by
// descending from the tree's maximum (see side.go).
func (l *PriceLevel) less(other *PriceLevel) bool {
	return l.price.LessThan(other.price)
}

// Price is the level's price.
func (l *PriceLevel) Price() moneymath.Decimal { return l.price }

// Total is the level's aggregate remaining size across its queue.
func (l *PriceLevel) Total() moneymath.Decimal { return l.total }

// Front is the oldest resting order at this level, or nil if empty.
func (l *PriceLevel) Front() *market.Order { return l.front() }
