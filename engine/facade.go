// Package engine is the facade described in spec §4.6: it owns the
// per-market book registry, warm-loads a market's resting orders from
// persistence, and exposes Submit, Snapshot, Load, and Cancel. Control
// flow for a single submission is facade -> matcher -> (repeated) order
// book peek/pop -> persistence writes per trade -> status update ->
// optional book insert of the remainder -> last-price publication.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jamhan/predictmarket/book"
	"github.com/jamhan/predictmarket/logging"
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/matcher"
	"github.com/jamhan/predictmarket/metrics"
	"github.com/jamhan/predictmarket/persist"
	"github.com/pkg/errors"
)

// ErrMarketUnknown is returned when a market has neither a live book
// nor a loader able to create one (spec §7).
var ErrMarketUnknown = errors.New("engine: market unknown")

// marketState is one market's book plus the mutex that must be held
// across an entire submission — including every suspended persistence
// write — per spec §5. Holding a *sync.Mutex object (rather than
// relying on a lock-free registry) is what lets a submission keep the
// lock across suspension points.
type marketState struct {
	mu       sync.Mutex
	book     *book.Book
	lastTime time.Time
	log      *logging.Logger
}

// Facade is the engine entrypoint a host process embeds. It is safe for
// concurrent use across markets; submissions to the same market are
// serialized, submissions to different markets proceed independently.
type Facade struct {
	port    persist.Port
	matcher *matcher.Matcher
	log     *logging.Logger

	registryMu sync.RWMutex
	markets    map[string]*marketState
}

// New builds a Facade. opts are forwarded to the underlying matcher
// (matcher.WithEvents, matcher.WithMetrics, matcher.WithClock).
func New(port persist.Port, log *logging.Logger, rec *metrics.Recorder, opts ...matcher.Option) *Facade {
	if rec != nil {
		opts = append(opts, matcher.WithMetrics(rec))
	}
	return &Facade{
		port:    port,
		matcher: matcher.New(port, log, opts...),
		log:     log.Named("engine"),
		markets: make(map[string]*marketState),
	}
}

// getOrCreate returns the market's state, creating an empty book on
// first reference (books are created lazily, per spec §4.6). Only
// Submit uses this: a submission is what brings a market into
// existence, not a read of one that may never have been submitted to.
func (f *Facade) getOrCreate(marketID string) *marketState {
	f.registryMu.RLock()
	ms, ok := f.markets[marketID]
	f.registryMu.RUnlock()
	if ok {
		return ms
	}

	f.registryMu.Lock()
	defer f.registryMu.Unlock()
	if ms, ok := f.markets[marketID]; ok {
		return ms
	}
	ms = &marketState{book: book.New(marketID), log: f.log.Named(marketID)}
	f.markets[marketID] = ms
	f.log.Debug("market created", logging.String("marketID", marketID))
	return ms
}

// lookup returns the state of a market that already has a book, either
// from a prior Submit or a completed Load. It never creates one: a
// market nobody has submitted to or loaded is ErrMarketUnknown (spec
// §7), not an empty book.
func (f *Facade) lookup(marketID string) (*marketState, error) {
	f.registryMu.RLock()
	defer f.registryMu.RUnlock()
	ms, ok := f.markets[marketID]
	if !ok {
		f.log.Warn("request for unknown market", logging.String("marketID", marketID))
		return nil, ErrMarketUnknown
	}
	return ms, nil
}

// nextCreatedAt enforces the strictly-monotone-per-market creation
// timestamp spec §3 requires for time priority: if the caller-supplied
// timestamp does not strictly exceed the last one admitted to this
// market, it is bumped forward by one nanosecond.
func (ms *marketState) nextCreatedAt(requested time.Time) time.Time {
	if !requested.After(ms.lastTime) {
		requested = ms.lastTime.Add(time.Nanosecond)
	}
	ms.lastTime = requested
	return requested
}

// Submit admits order into its market's book, assigns it a monotone
// creation timestamp, and dispatches it to the matcher. The per-market
// lock is held for the full duration, including every persistence
// write the matcher issues.
func (f *Facade) Submit(ctx context.Context, order *market.Order) (*matcher.Result, error) {
	ms := f.getOrCreate(order.MarketID)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	order.CreatedAt = ms.nextCreatedAt(order.CreatedAt)

	return f.matcher.Submit(ctx, ms.book, order)
}

// Snapshot returns a read-only view of both sides of a market's book.
// It returns ErrMarketUnknown if nothing has ever been submitted or
// loaded for marketID.
func (f *Facade) Snapshot(marketID string) (book.BookSnapshot, error) {
	ms, err := f.lookup(marketID)
	if err != nil {
		return book.BookSnapshot{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.book.Snapshot(), nil
}

// Cancel removes a resting order from its market's book and marks it
// CANCELLED. It takes the same per-market lock Submit does, and returns
// ErrMarketUnknown if nothing has ever been submitted or loaded for
// marketID.
func (f *Facade) Cancel(ctx context.Context, marketID string, side market.Side, id market.OrderID) error {
	ms, err := f.lookup(marketID)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.book.Cancel(id, side); err != nil {
		return err
	}
	if _, err := f.port.SetOrderStatus(ctx, id, market.OrderStatusCancelled); err != nil {
		return errors.Wrap(err, "engine: cancel failed to persist status")
	}
	ms.log.Debug("order cancelled", logging.String("orderID", string(id)), logging.String("side", side.String()))
	return nil
}

// Load fetches a market's active orders from persistence and inserts
// them into a fresh book in ascending creation-timestamp order, so time
// priority is reproduced exactly as it existed before the book was
// built. Any existing in-memory book for the market is replaced.
func (f *Facade) Load(ctx context.Context, marketID string) error {
	orders, err := f.port.ActiveOrders(ctx, marketID)
	if err != nil {
		return errors.Wrap(err, "engine: load failed to read active orders")
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	bk := book.New(marketID)
	var last time.Time
	for _, o := range orders {
		bk.Insert(o)
		if o.CreatedAt.After(last) {
			last = o.CreatedAt
		}
	}

	marketLog := f.log.Named(marketID)
	marketLog.Info("restoring market book from persistence",
		logging.String("marketID", marketID), logging.Any("orderCount", len(orders)))

	f.registryMu.Lock()
	f.markets[marketID] = &marketState{book: bk, lastTime: last, log: marketLog}
	f.registryMu.Unlock()
	return nil
}
