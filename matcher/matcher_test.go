package matcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/jamhan/predictmarket/book"
	"github.com/jamhan/predictmarket/logging"
	"github.com/jamhan/predictmarket/market"
	"github.com/jamhan/predictmarket/matcher"
	"github.com/jamhan/predictmarket/moneymath"
	"github.com/jamhan/predictmarket/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) moneymath.Decimal {
	t.Helper()
	d, err := moneymath.FromString(s)
	require.NoError(t, err)
	return d
}

type testRig struct {
	m     *matcher.Matcher
	bk    *book.Book
	store *persist.Memory
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	store := persist.NewMemory()
	log := logging.NewDevelopment()
	return &testRig{
		m:     matcher.New(store, log),
		bk:    book.New("m-1"),
		store: store,
	}
}

func (r *testRig) submit(t *testing.T, o *market.Order) *matcher.Result {
	t.Helper()
	r.store.PutOrder(o)
	res, err := r.m.Submit(context.Background(), r.bk, o)
	require.NoError(t, err)
	return res
}

func restingNo(t *testing.T, id market.OrderID, price, size string, at time.Time) *market.Order {
	return market.NewOrder(id, "m-1", "owner-"+string(id), market.SideNo, market.OrderTypeLimit, dec(t, price), dec(t, size), at)
}

func restingYes(t *testing.T, id market.OrderID, price, size string, at time.Time) *market.Order {
	return market.NewOrder(id, "m-1", "owner-"+string(id), market.SideYes, market.OrderTypeLimit, dec(t, price), dec(t, size), at)
}

// A YES limit at 0.60 crosses a resting NO limit at 0.40 (incoming YES
// price >= resting NO price), producing one trade at the resting price.
func TestMatcher_CrossingLimitOrder(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "resting", "0.40", "50", base))

	incoming := market.NewOrder("incoming", "m-1", "aggressor", market.SideYes, market.OrderTypeLimit,
		dec(t, "0.60"), dec(t, "30"), base.Add(time.Millisecond))
	res := rig.submit(t, incoming)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.True(t, trade.Price.Equal(dec(t, "0.40")))
	assert.True(t, trade.Size.Equal(dec(t, "30")))
	assert.Equal(t, market.OrderStatusFilled, res.Order.Status)

	restingAfter, ok := rig.store.Order("resting")
	require.True(t, ok)
	assert.Equal(t, market.OrderStatusPartial, restingAfter.Status)
}

// A YES limit below the resting NO ask does not cross and simply rests.
func TestMatcher_NonCrossingLimitOrderRests(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "resting", "0.40", "50", base))

	incoming := market.NewOrder("incoming", "m-1", "aggressor", market.SideYes, market.OrderTypeLimit,
		dec(t, "0.30"), dec(t, "30"), base.Add(time.Millisecond))
	res := rig.submit(t, incoming)

	assert.Empty(t, res.Trades)
	assert.Equal(t, market.OrderStatusPending, res.Order.Status)
	assert.False(t, rig.bk.IsEmpty(market.SideYes))
}

// An incoming order walks multiple resting NO levels lowest-price
// first, until its size is exhausted, leaving the highest-priced level
// holding whatever remainder is left over.
func TestMatcher_WalksMultipleLevels(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "S1", "0.30", "25", base))
	rig.submit(t, restingNo(t, "S2", "0.35", "25", base.Add(time.Millisecond)))
	rig.submit(t, restingNo(t, "S3", "0.40", "25", base.Add(2*time.Millisecond)))

	incoming := market.NewOrder("B1", "m-1", "aggressor", market.SideYes, market.OrderTypeLimit,
		dec(t, "0.50"), dec(t, "60"), base.Add(3*time.Millisecond))
	res := rig.submit(t, incoming)

	require.Len(t, res.Trades, 3)
	assert.True(t, res.Trades[0].Price.Equal(dec(t, "0.30")))
	assert.True(t, res.Trades[0].Size.Equal(dec(t, "25")))
	assert.True(t, res.Trades[1].Price.Equal(dec(t, "0.35")))
	assert.True(t, res.Trades[1].Size.Equal(dec(t, "25")))
	assert.True(t, res.Trades[2].Price.Equal(dec(t, "0.40")))
	assert.True(t, res.Trades[2].Size.Equal(dec(t, "10")))
	assert.Equal(t, market.OrderStatusFilled, res.Order.Status)

	s3After, ok := rig.store.Order("S3")
	require.True(t, ok)
	assert.True(t, s3After.Remaining().Equal(dec(t, "15")))
	assert.Equal(t, market.OrderStatusPartial, s3After.Status)
}

// An incoming NO order walks the YES book highest-price first: its
// crossing test (NO price <= resting YES price) admits the highest YES
// prices first, the mirror image of TestMatcher_WalksMultipleLevels'
// incoming-YES case. Spec §8 has no literal worked example for this
// direction; see matcher.crossAscending's doc comment and DESIGN.md for
// why the mirrored inequality settles it the same way.
func TestMatcher_WalksMultipleLevels_IncomingNO(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingYes(t, "S1", "0.70", "25", base))
	rig.submit(t, restingYes(t, "S2", "0.65", "25", base.Add(time.Millisecond)))
	rig.submit(t, restingYes(t, "S3", "0.60", "25", base.Add(2*time.Millisecond)))

	incoming := market.NewOrder("B1", "m-1", "aggressor", market.SideNo, market.OrderTypeLimit,
		dec(t, "0.50"), dec(t, "60"), base.Add(3*time.Millisecond))
	res := rig.submit(t, incoming)

	require.Len(t, res.Trades, 3)
	assert.True(t, res.Trades[0].Price.Equal(dec(t, "0.70")))
	assert.True(t, res.Trades[0].Size.Equal(dec(t, "25")))
	assert.True(t, res.Trades[1].Price.Equal(dec(t, "0.65")))
	assert.True(t, res.Trades[1].Size.Equal(dec(t, "25")))
	assert.True(t, res.Trades[2].Price.Equal(dec(t, "0.60")))
	assert.True(t, res.Trades[2].Size.Equal(dec(t, "10")))
	assert.Equal(t, market.OrderStatusFilled, res.Order.Status)

	s3After, ok := rig.store.Order("S3")
	require.True(t, ok)
	assert.True(t, s3After.Remaining().Equal(dec(t, "15")))
	assert.Equal(t, market.OrderStatusPartial, s3After.Status)
}

// MARKET orders ignore the crossing test but still walk the opposite
// book lowest-price first, same as a crossing LIMIT order would.
func TestMatcher_MarketOrderIgnoresCrossingTest(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "S1", "0.30", "50", base))
	rig.submit(t, restingNo(t, "S2", "0.40", "50", base.Add(time.Millisecond)))

	incoming := market.NewOrder("M1", "m-1", "aggressor", market.SideYes, market.OrderTypeMarket,
		moneymath.Zero(), dec(t, "75"), base.Add(2*time.Millisecond))
	res := rig.submit(t, incoming)

	require.Len(t, res.Trades, 2)
	assert.True(t, res.Trades[0].Price.Equal(dec(t, "0.30")))
	assert.True(t, res.Trades[0].Size.Equal(dec(t, "50")))
	assert.True(t, res.Trades[1].Price.Equal(dec(t, "0.40")))
	assert.True(t, res.Trades[1].Size.Equal(dec(t, "25")))
	assert.Equal(t, market.OrderStatusFilled, res.Order.Status)

	s2After, ok := rig.store.Order("S2")
	require.True(t, ok)
	assert.True(t, s2After.Remaining().Equal(dec(t, "25")))
	assert.Equal(t, market.OrderStatusPartial, s2After.Status)
}

// IOC partially fills against available liquidity and cancels the
// unfilled remainder instead of resting.
func TestMatcher_IOCPartialFillCancelsRemainder(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "resting", "0.40", "10", base))

	incoming := market.NewOrder("incoming", "m-1", "aggressor", market.SideYes, market.OrderTypeIOC,
		dec(t, "0.50"), dec(t, "30"), base.Add(time.Millisecond))
	res := rig.submit(t, incoming)

	require.Len(t, res.Trades, 1)
	assert.True(t, res.Trades[0].Size.Equal(dec(t, "10")))
	assert.Equal(t, market.OrderStatusPartial, res.Order.Status)
	assert.True(t, rig.bk.IsEmpty(market.SideYes))
}

// FOK is rejected outright, with no trades and no side effects, when the
// opposite book cannot supply the full requested size.
func TestMatcher_FOKRejectsWhenInsufficientLiquidity(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "resting", "0.40", "10", base))

	incoming := market.NewOrder("incoming", "m-1", "aggressor", market.SideYes, market.OrderTypeFOK,
		dec(t, "0.50"), dec(t, "30"), base.Add(time.Millisecond))
	res := rig.submit(t, incoming)

	assert.True(t, res.Rejected)
	assert.Equal(t, market.RejectReasonFOKNotFilled, res.RejectReason)
	assert.Empty(t, res.Trades)
	assert.Equal(t, market.OrderStatusCancelled, res.Order.Status)
	assert.False(t, rig.bk.IsEmpty(market.SideNo))
}

// FOK fills completely, in one or more trades, when the opposite book
// can supply the full requested size.
func TestMatcher_FOKFillsWhenSufficientLiquidity(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "cheap", "0.30", "20", base))
	rig.submit(t, restingNo(t, "mid", "0.40", "20", base.Add(time.Millisecond)))

	incoming := market.NewOrder("incoming", "m-1", "aggressor", market.SideYes, market.OrderTypeFOK,
		dec(t, "0.50"), dec(t, "35"), base.Add(2*time.Millisecond))
	res := rig.submit(t, incoming)

	assert.False(t, res.Rejected)
	require.Len(t, res.Trades, 2)
	assert.True(t, res.Trades[0].Price.Equal(dec(t, "0.30")))
	assert.True(t, res.Trades[0].Size.Equal(dec(t, "20")))
	assert.True(t, res.Trades[1].Price.Equal(dec(t, "0.40")))
	assert.True(t, res.Trades[1].Size.Equal(dec(t, "15")))
	assert.Equal(t, market.OrderStatusFilled, res.Order.Status)
}

// Self-matching is permitted: the same owner can be both the aggressor
// and the resting counterparty, recorded literally.
func TestMatcher_SelfMatchPermitted(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, market.NewOrder("resting", "m-1", "same-owner", market.SideNo, market.OrderTypeLimit,
		dec(t, "0.40"), dec(t, "10"), base))

	incoming := market.NewOrder("incoming", "m-1", "same-owner", market.SideYes, market.OrderTypeLimit,
		dec(t, "0.60"), dec(t, "10"), base.Add(time.Millisecond))
	res := rig.submit(t, incoming)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, "same-owner", res.Trades[0].BuyerID)
	assert.Equal(t, "same-owner", res.Trades[0].SellerID)
}

// Positions are recorded with negated shares on the counterparty side
// rather than netted away, per the engine's literal short-position
// convention.
func TestMatcher_CounterpartyPositionRecordsNegativeShares(t *testing.T) {
	rig := newRig(t)
	base := time.Now()

	rig.submit(t, restingNo(t, "resting", "0.40", "10", base))
	incoming := market.NewOrder("incoming", "m-1", "aggressor", market.SideYes, market.OrderTypeLimit,
		dec(t, "0.60"), dec(t, "10"), base.Add(time.Millisecond))
	rig.submit(t, incoming)

	buyerPos, ok := rig.store.Position("m-1", "aggressor", market.SideYes)
	require.True(t, ok)
	assert.True(t, buyerPos.Shares.Equal(dec(t, "10")))

	sellerPos, ok := rig.store.Position("m-1", "owner-resting", market.SideNo)
	require.True(t, ok)
	assert.True(t, sellerPos.Shares.Equal(dec(t, "-10")))
}
