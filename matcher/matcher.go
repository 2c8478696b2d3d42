// Package matcher implements the order-type policies and the cross-side
// matching loop described in spec §4.4: a binary market's YES and NO
// books are both "buy" books, and an incoming order on one side crosses
// against the resting book on the other.
package matcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jamhan/predictmarket/book"
	"github.com/jamhan/predictmarket/logging"
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/metrics"
	"github.com/jamhan/predictmarket/moneymath"
	"github.com/jamhan/predictmarket/persist"
)

// Event is published for every trade the matcher produces and for the
// incoming order's status once matching has finished, so an out-of-scope
// streaming transport can fan them out without the matcher knowing
// anything about subscribers. A resting order's status change and a
// rejected FOK order publish no event.
type Event struct {
	Trade *market.Trade
	Order *market.Order
}

// Result is what a submission returns to its caller.
type Result struct {
	Order        *market.Order
	Trades       []*market.Trade
	Rejected     bool
	RejectReason market.RejectReason
}

// Matcher runs the order-type policies against a single market's book.
// A Matcher is not itself safe for concurrent use across markets that
// share an underlying *book.Book — the engine facade is responsible for
// the per-market mutual exclusion described in spec §5.
type Matcher struct {
	port    persist.Port
	log     *logging.Logger
	metrics *metrics.Recorder
	events  chan<- Event
	now     func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithEvents attaches a channel the matcher publishes trade and
// incoming-order status events to (see Event). A full channel never blocks matching: the
// send is best-effort.
func WithEvents(ch chan<- Event) Option {
	return func(m *Matcher) { m.events = ch }
}

// WithMetrics attaches a Prometheus recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Matcher) { m.metrics = r }
}

// WithClock overrides the matcher's time source; used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

// New builds a Matcher writing through port, logging under log.
func New(port persist.Port, log *logging.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		port: port,
		log:  log.Named("matcher"),
		now:  time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Submit dispatches incoming by its order type and runs the
// corresponding policy from spec §4.4.4 against bk.
func (m *Matcher) Submit(ctx context.Context, bk *book.Book, incoming *market.Order) (*Result, error) {
	start := m.now()
	var (
		res *Result
		err error
	)
	switch incoming.Type {
	case market.OrderTypeMarket:
		res, err = m.submitMarket(ctx, bk, incoming)
	case market.OrderTypeIOC:
		res, err = m.submitIOC(ctx, bk, incoming)
	case market.OrderTypeFOK:
		res, err = m.submitFOK(ctx, bk, incoming)
	default:
		res, err = m.submitLimit(ctx, bk, incoming)
	}
	if err != nil {
		return nil, err
	}

	if !res.Rejected {
		if pubErr := m.publishLastPrices(ctx, bk); pubErr != nil {
			return nil, pubErr
		}
	}

	if m.metrics != nil {
		m.metrics.ObserveMatchDuration(bk.MarketID, m.now().Sub(start))
		m.metrics.ObserveTrades(bk.MarketID, len(res.Trades))
		if res.Rejected {
			m.metrics.ObserveRejection(bk.MarketID, res.RejectReason.String())
		} else {
			m.metrics.ObserveSubmission(bk.MarketID, res.Order.Status.String())
		}
	}
	return res, nil
}

func (m *Matcher) submitLimit(ctx context.Context, bk *book.Book, incoming *market.Order) (*Result, error) {
	trades, err := m.matchLoop(ctx, bk, incoming, true)
	if err != nil {
		return nil, err
	}
	m.assignStatusFromRemainder(incoming)
	if err := m.persistAggressorStatus(ctx, incoming); err != nil {
		return nil, err
	}
	if incoming.Remaining().GreaterThan(moneymath.Zero()) {
		bk.Insert(incoming)
	}
	return &Result{Order: incoming, Trades: trades}, nil
}

func (m *Matcher) submitMarket(ctx context.Context, bk *book.Book, incoming *market.Order) (*Result, error) {
	trades, err := m.matchLoop(ctx, bk, incoming, false)
	if err != nil {
		return nil, err
	}
	// Market orders never rest: any remainder is discarded, and the
	// order is left PENDING if nothing crossed at all.
	switch {
	case incoming.Remaining().IsZero():
		incoming.Status = market.OrderStatusFilled
	case incoming.Filled.GreaterThan(moneymath.Zero()):
		incoming.Status = market.OrderStatusPartial
	default:
		incoming.Status = market.OrderStatusPending
	}
	if err := m.persistAggressorStatus(ctx, incoming); err != nil {
		return nil, err
	}
	return &Result{Order: incoming, Trades: trades}, nil
}

func (m *Matcher) submitIOC(ctx context.Context, bk *book.Book, incoming *market.Order) (*Result, error) {
	trades, err := m.matchLoop(ctx, bk, incoming, true)
	if err != nil {
		return nil, err
	}
	switch {
	case incoming.Remaining().IsZero():
		incoming.Status = market.OrderStatusFilled
	case incoming.Filled.GreaterThan(moneymath.Zero()):
		incoming.Status = market.OrderStatusPartial
	default:
		incoming.Status = market.OrderStatusCancelled
	}
	if err := m.persistAggressorStatus(ctx, incoming); err != nil {
		return nil, err
	}
	return &Result{Order: incoming, Trades: trades}, nil
}

func (m *Matcher) submitFOK(ctx context.Context, bk *book.Book, incoming *market.Order) (*Result, error) {
	if !m.fokFillable(bk, incoming) {
		incoming.Status = market.OrderStatusCancelled
		incoming.RejectReason = market.RejectReasonFOKNotFilled
		m.log.Debug("FOK order rejected: insufficient liquidity",
			logging.String("orderID", string(incoming.ID)),
			logging.String("side", incoming.Side.String()),
			logging.String("size", incoming.Size.String()))
		return &Result{
			Order:        incoming,
			Trades:       nil,
			Rejected:     true,
			RejectReason: market.RejectReasonFOKNotFilled,
		}, nil
	}

	trades, err := m.matchLoop(ctx, bk, incoming, true)
	if err != nil {
		return nil, err
	}
	incoming.Status = market.OrderStatusFilled
	if err := m.persistAggressorStatus(ctx, incoming); err != nil {
		return nil, err
	}
	return &Result{Order: incoming, Trades: trades}, nil
}

// crossAscending reports which direction the matching loop must walk
// the opposite book so that the crossing test's eligible levels form a
// prefix of the walk — required for the loop's "stop at first failure"
// rule (spec §4.4.2 step 3) to be sound.
//
// An incoming YES order's crossing test (p_in >= p_rest) admits NO
// levels with the lowest prices first and becomes less permissive as
// price rises, so the NO book must be walked ascending. An incoming NO
// order's test (p_in <= p_rest) is the mirror image — it admits the
// highest YES prices first — so the YES book must be walked descending.
// Spec §8 scenarios 3 and 4 are both incoming-YES examples and their
// literal trade sequences (lowest resting price filled first) confirm
// the ascending case directly; the descending case for incoming NO
// follows from the same monotonicity argument applied to the mirrored
// inequality, since §8 gives no literal incoming-NO multi-level example
// to confirm it independently.
func crossAscending(incomingSide market.Side) bool {
	return incomingSide == market.SideYes
}

// fokFillable walks the opposite book in matching order, summing
// resting remainders while the crossing test holds, until either the
// incoming size is reached or the test fails.
func (m *Matcher) fokFillable(bk *book.Book, incoming *market.Order) bool {
	opposite := incoming.Side.Opposite()
	ascending := crossAscending(incoming.Side)
	available := moneymath.Zero()
	bk.WalkCrossing(opposite, ascending, func(lvl *book.PriceLevel) bool {
		if !crosses(incoming.Side, incoming.Price, lvl.Price()) {
			return false
		}
		available = available.Add(lvl.Total())
		return available.LessThan(incoming.Size)
	})
	return available.GreaterThanOrEqual(incoming.Size)
}

// assignStatusFromRemainder sets a LIMIT order's terminal/resting status
// from its remaining size after the matching loop.
func (m *Matcher) assignStatusFromRemainder(o *market.Order) {
	switch {
	case o.Remaining().IsZero():
		o.Status = market.OrderStatusFilled
	case o.Filled.GreaterThan(moneymath.Zero()):
		o.Status = market.OrderStatusPartial
	default:
		o.Status = market.OrderStatusPending
	}
}

func (m *Matcher) persistAggressorStatus(ctx context.Context, o *market.Order) error {
	_, err := m.port.SetOrderStatus(ctx, o.ID, o.Status)
	if err != nil {
		return m.errPersistence(err)
	}
	if m.events != nil {
		select {
		case m.events <- Event{Order: o.Clone()}:
		default:
		}
	}
	return nil
}

// matchLoop is spec §4.4.2. enforceCrossingTest is false only for
// MARKET orders, which match top-down regardless of price.
func (m *Matcher) matchLoop(ctx context.Context, bk *book.Book, incoming *market.Order, enforceCrossingTest bool) ([]*market.Trade, error) {
	opposite := incoming.Side.Opposite()
	ascending := crossAscending(incoming.Side)
	var trades []*market.Trade

	for incoming.Remaining().GreaterThan(moneymath.Zero()) {
		lvl := bk.PeekCrossing(opposite, ascending)
		if lvl == nil {
			break
		}
		if enforceCrossingTest && !crosses(incoming.Side, incoming.Price, lvl.Price()) {
			break
		}
		resting := lvl.Front()
		if resting == nil {
			break
		}

		size := moneymath.Min(incoming.Remaining(), resting.Remaining())
		trade := newTrade(bk.MarketID, incoming, resting, lvl.Price(), size, m.now())

		created, err := m.port.CreateTrade(ctx, trade)
		if err != nil {
			return trades, m.errPersistence(err)
		}

		restingCumulative := resting.Filled.Add(size)
		if err := m.port.SetOrderFilled(ctx, resting.ID, restingCumulative); err != nil {
			return trades, m.errPersistence(err)
		}
		resting.ApplyFill(restingCumulative)
		if resting.Status == market.OrderStatusFilled {
			if _, err := m.port.SetOrderStatus(ctx, resting.ID, market.OrderStatusFilled); err != nil {
				return trades, m.errPersistence(err)
			}
		}

		incomingCumulative := incoming.Filled.Add(size)
		if err := m.port.SetOrderFilled(ctx, incoming.ID, incomingCumulative); err != nil {
			return trades, m.errPersistence(err)
		}
		incoming.ApplyFill(incomingCumulative)

		buyerSide := created.Side
		sellerSide := created.Side.Opposite()
		if err := m.port.UpsertPosition(ctx, bk.MarketID, created.BuyerID, buyerSide, size, created.Price); err != nil {
			return trades, m.errPersistence(err)
		}
		if err := m.port.UpsertPosition(ctx, bk.MarketID, created.SellerID, sellerSide, size.Neg(), created.Price); err != nil {
			return trades, m.errPersistence(err)
		}

		bk.DecrementCrossing(opposite, ascending, size)

		m.log.Debug("trade executed",
			logging.String("tradeID", string(created.ID)),
			logging.String("marketID", bk.MarketID),
			logging.String("price", created.Price.String()),
			logging.String("size", created.Size.String()))

		trades = append(trades, created)
		if m.events != nil {
			select {
			case m.events <- Event{Trade: created}:
			default:
			}
		}
	}
	return trades, nil
}

func (m *Matcher) publishLastPrices(ctx context.Context, bk *book.Book) error {
	yes := moneymath.Half()
	if p, ok := bk.BestPrice(market.SideYes); ok {
		yes = p
	}
	no := moneymath.Half()
	if p, ok := bk.BestPrice(market.SideNo); ok {
		no = p
	}
	if err := m.port.SetLastPrices(ctx, bk.MarketID, yes, no); err != nil {
		return m.errPersistence(err)
	}
	return nil
}

// crosses reports whether an incoming order at price pIn crosses a
// resting order at price pRest on the opposite book, per spec §4.4.1.
// This reproduces the source's direct-price-comparison rule rather than
// the classic complement-price convention (pIn + pRest >= 1) — see
// DESIGN.md for the open-question note this raises.
func crosses(side market.Side, pIn, pRest moneymath.Decimal) bool {
	if side == market.SideYes {
		return pIn.GreaterThanOrEqual(pRest)
	}
	return pIn.LessThanOrEqual(pRest)
}

// newTrade builds a trade at the resting order's price. Per spec
// §4.4.1, the aggressor (incoming) is always the buyer and the resting
// order is always the seller, regardless of which side is aggressing —
// that is the binary-market convention: a YES buy crosses a NO rest, and
// a NO buy crosses a YES rest, but in both cases it is the *incoming*
// order that is conceptually "buying".
func newTrade(marketID string, incoming, resting *market.Order, price, size moneymath.Decimal, at time.Time) *market.Trade {
	return &market.Trade{
		ID:          market.TradeID(uuid.NewString()),
		MarketID:    marketID,
		BuyOrderID:  incoming.ID,
		SellOrderID: resting.ID,
		BuyerID:     incoming.OwnerID,
		SellerID:    resting.OwnerID,
		Side:        incoming.Side,
		Price:       price,
		Size:        size,
		CreatedAt:   at,
	}
}
