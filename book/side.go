package book

import (
	"container/list"

	"github.com/google/btree"
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/moneymath"
	"github.com/pkg/errors"
)

// ErrOrderNotFound is returned by cancel when the id is not resting on
// this side.
var ErrOrderNotFound = errors.New("order not found in book")

// entry is the owning record for a resting order: its price level and
// its node in that level's FIFO queue, so cancel and fill updates never
// need to re-walk a queue to find it.
type entry struct {
	level *PriceLevel
	elem  *list.Element
}

// Side is one side of a market's order book: a price-ordered index of
// levels, each holding a time-ordered FIFO of resting orders. Both the
// YES and the NO side of a binary market are "buy" books sorted
// descending by price (best bid first) — see book.Book.
type Side struct {
	tree    *btree.BTreeG[*PriceLevel]
	byPrice map[string]*PriceLevel
	byOrder map[market.OrderID]*entry
}

func newSide() *Side {
	return &Side{
		tree: btree.NewG[*PriceLevel](32, func(a, b *PriceLevel) bool {
			return a.less(b)
		}),
		byPrice: make(map[string]*PriceLevel),
		byOrder: make(map[market.OrderID]*entry),
	}
}

// priceKey canonicalizes a price to a fixed number of fractional digits
// so that two Decimals representing the same numeric value but built
// through different arithmetic paths (and therefore carrying different
// internal scale) always land on the same book level.
func priceKey(price moneymath.Decimal) string {
	return price.StringFixed(8)
}

// insert appends order to the level for its price, creating the level
// if absent. O(log L + 1) where L is the number of distinct price
// levels.
func (s *Side) insert(o *market.Order) {
	key := priceKey(o.Price)
	lvl, ok := s.byPrice[key]
	if !ok {
		lvl = newPriceLevel(o.Price)
		s.byPrice[key] = lvl
		s.tree.ReplaceOrInsert(lvl)
	}
	elem := lvl.append(o)
	s.byOrder[o.ID] = &entry{level: lvl, elem: elem}
}

// peekBest returns the side's own best (highest-price) level, or nil if
// the side is empty. This is the side's top of book, used for
// presentation (snapshot, last-price publication) — not necessarily the
// level the matcher should consume first when this side is crossed from
// the opposite book (see peekLowest).
func (s *Side) peekBest() *PriceLevel {
	lvl, ok := s.tree.Max()
	if !ok {
		return nil
	}
	return lvl
}

// peekLowest returns the side's lowest-price level, or nil if the side
// is empty.
func (s *Side) peekLowest() *PriceLevel {
	lvl, ok := s.tree.Min()
	if !ok {
		return nil
	}
	return lvl
}

// bestQueueFront returns the oldest resting order at the side's best
// level, or nil if the side is empty.
func (s *Side) bestQueueFront() *market.Order {
	lvl := s.peekBest()
	if lvl == nil {
		return nil
	}
	return lvl.front()
}

// decrementFront reduces the side's best level's aggregate remaining
// total by amount and pops the front order once its own remaining size
// has reached zero. The caller must apply the fill to the front order
// itself (market.Order.ApplyFill, which updates Filled and Status)
// before calling decrementFront — this method only maintains book
// structure and the level's aggregate total, it does not mutate the
// order.
func (s *Side) decrementFront(amount moneymath.Decimal) {
	s.decrementLevelFront(s.peekBest(), amount)
}

// decrementLowest is decrementFront's counterpart for the side's lowest
// level, used when the matcher is consuming this side starting from its
// cheapest price (see peekLowest).
func (s *Side) decrementLowest(amount moneymath.Decimal) {
	s.decrementLevelFront(s.peekLowest(), amount)
}

func (s *Side) decrementLevelFront(lvl *PriceLevel, amount moneymath.Decimal) {
	if lvl == nil {
		return
	}
	front := lvl.orders.Front()
	o := front.Value.(*market.Order)
	lvl.total = lvl.total.Sub(amount)
	if o.Remaining().LessThanOrEqual(moneymath.Zero()) {
		lvl.orders.Remove(front)
		delete(s.byOrder, o.ID)
		if lvl.isEmpty() {
			s.removeLevel(lvl)
		}
	}
}

// cancel removes the resting order with the given id from the book.
// O(log L + K) where K is the queue length at its level.
func (s *Side) cancel(id market.OrderID) error {
	e, ok := s.byOrder[id]
	if !ok {
		return ErrOrderNotFound
	}
	o := e.elem.Value.(*market.Order)
	e.level.total = e.level.total.Sub(o.Remaining())
	e.level.orders.Remove(e.elem)
	delete(s.byOrder, id)
	if e.level.isEmpty() {
		s.removeLevel(e.level)
	}
	return nil
}

func (s *Side) removeLevel(lvl *PriceLevel) {
	s.tree.Delete(lvl)
	delete(s.byPrice, priceKey(lvl.price))
}

// LevelView is a read-only summary of one price level, for presentation
// consumers (book.Book.Snapshot).
type LevelView struct {
	Price    moneymath.Decimal
	Size     moneymath.Decimal
	OrderIDs []market.OrderID
}

// snapshot returns every level on this side, best price first, each with
// its aggregate remaining size and the ids of its resting orders in
// time-priority order.
func (s *Side) snapshot() []LevelView {
	views := make([]LevelView, 0, s.tree.Len())
	s.tree.Descend(func(lvl *PriceLevel) bool {
		ids := make([]market.OrderID, 0, lvl.orders.Len())
		for e := lvl.orders.Front(); e != nil; e = e.Next() {
			ids = append(ids, e.Value.(*market.Order).ID)
		}
		views = append(views, LevelView{
			Price:    lvl.price,
			Size:     lvl.total,
			OrderIDs: ids,
		})
		return true
	})
	return views
}

// isEmpty reports whether the side currently has no resting orders.
func (s *Side) isEmpty() bool {
	return s.tree.Len() == 0
}

// descend walks levels highest-price-first, calling fn on each until fn
// returns false or levels are exhausted.
func (s *Side) descend(fn func(*PriceLevel) bool) {
	s.tree.Descend(fn)
}

// ascend walks levels lowest-price-first, calling fn on each until fn
// returns false or levels are exhausted. Used by the matcher's FOK
// pre-scan when the incoming order crosses this side ascending (see
// matcher.crossAscending), so the walk visits levels in the same order
// the matching loop itself will consume them.
func (s *Side) ascend(fn func(*PriceLevel) bool) {
	s.tree.Ascend(fn)
}
