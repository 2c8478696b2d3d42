package persist

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/moneymath"
	"github.com/pkg/errors"
)

// ErrOrderNotFound is returned by SetOrderFilled/SetOrderStatus for an
// unknown order id.
var ErrOrderNotFound = errors.New("persist: order not found")

type lastPrice struct {
	yes moneymath.Decimal
	no  moneymath.Decimal
}

// Memory is a mutex-guarded, in-memory implementation of Port. It is
// not a test double that merely records calls — it implements the real
// combine-on-write semantics UpsertPosition requires, so the matcher's
// test suite and the CLI demo can both run against it directly.
type Memory struct {
	mu         sync.Mutex
	orders     map[market.OrderID]*market.Order
	trades     []*market.Trade
	positions  map[string]*market.Position // key: marketID|userID|side
	lastPrices map[string]*lastPrice       // key: marketID
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		orders:     make(map[market.OrderID]*market.Order),
		positions:  make(map[string]*market.Position),
		lastPrices: make(map[string]*lastPrice),
	}
}

// PutOrder seeds an order directly into the store, bypassing the
// matcher. Used by tests and by the CLI demo to register an order
// before it is submitted (SetOrderFilled and SetOrderStatus only update
// orders the store already holds) or before a market's book is
// warm-loaded; order creation itself is an external concern the
// matching engine does not perform.
func (m *Memory) PutOrder(o *market.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// Order returns a defensive copy of the stored order, if any.
func (m *Memory) Order(id market.OrderID) (*market.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Trades returns every trade recorded so far, oldest first.
func (m *Memory) Trades() []*market.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*market.Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

// Position returns a copy of the (market, user, side) position, if any.
func (m *Memory) Position(marketID, userID string, side market.Side) (*market.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[positionKey(marketID, userID, side)]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func positionKey(marketID, userID string, side market.Side) string {
	return marketID + "|" + userID + "|" + side.String()
}

func (m *Memory) CreateTrade(_ context.Context, t *market.Trade) (*market.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = market.TradeID(uuid.NewString())
	}
	cp := *t
	m.trades = append(m.trades, &cp)
	return &cp, nil
}

func (m *Memory) SetOrderFilled(_ context.Context, id market.OrderID, cumulativeFilled moneymath.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return errors.Wrapf(ErrOrderNotFound, "id=%s", id)
	}
	o.ApplyFill(cumulativeFilled)
	return nil
}

func (m *Memory) SetOrderStatus(_ context.Context, id market.OrderID, status market.OrderStatus) (*market.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.Wrapf(ErrOrderNotFound, "id=%s", id)
	}
	o.Status = status
	return o.Clone(), nil
}

func (m *Memory) UpsertPosition(_ context.Context, marketID, userID string, side market.Side, deltaShares, price moneymath.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := positionKey(marketID, userID, side)
	p, ok := m.positions[key]
	if !ok {
		p = market.NewPosition(marketID, userID, side)
		m.positions[key] = p
	}
	p.ApplyFill(deltaShares, price)
	return nil
}

func (m *Memory) SetLastPrices(_ context.Context, marketID string, yesPrice, noPrice moneymath.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPrices[marketID] = &lastPrice{yes: yesPrice, no: noPrice}
	return nil
}

func (m *Memory) ActiveOrders(_ context.Context, marketID string) ([]*market.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*market.Order
	for _, o := range m.orders {
		if o.MarketID != marketID {
			continue
		}
		if o.Status == market.OrderStatusPending || o.Status == market.OrderStatusPartial {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

var _ Port = (*Memory)(nil)
