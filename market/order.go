// Package market holds the value types for the binary prediction market
// matching engine: orders, trades, positions, and their state machines.
// Nothing in this package mutates shared state; the matcher and the
// engine facade are the only writers of the fields that change after
// construction.
package market

import (
	"time"

	"github.com/jamhan/predictmarket/moneymath"
	"github.com/pkg/errors"
)

// Side is one of the two mutually exclusive outcomes of a binary market.
type Side int

const (
	SideYes Side = iota
	SideNo
)

func (s Side) String() string {
	if s == SideYes {
		return "YES"
	}
	return "NO"
}

// Opposite returns the other side of the same binary market.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// OrderType selects the matching policy applied to an order at
// submission time. See the matcher package for the policies themselves.
type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeIOC
	OrderTypeFOK
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeIOC:
		return "IOC"
	case OrderTypeFOK:
		return "FOK"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus is the order's position in its lifecycle. The legal
// transitions are:
//
//	PENDING   -> PARTIAL
//	PENDING   -> FILLED
//	PENDING   -> CANCELLED
//	PARTIAL   -> FILLED
//	PARTIAL   -> CANCELLED
//
// No other transition is permitted; the matcher and the engine facade
// are the only writers.
type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusPartial
	OrderStatusFilled
	OrderStatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusPartial:
		return "PARTIAL"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the status can never change again.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// RejectReason enumerates the typed reasons a submission can be turned
// away without becoming a resting or terminal order in the usual sense.
type RejectReason int

const (
	RejectReasonNone RejectReason = iota
	RejectReasonFOKNotFilled
)

func (r RejectReason) String() string {
	switch r {
	case RejectReasonFOKNotFilled:
		return "FOK order cannot be completely filled"
	default:
		return ""
	}
}

// OrderID uniquely identifies an order across its lifetime.
type OrderID string

// Order is a single priced or unpriced request to trade one side of a
// binary market. Price and size are non-negative fixed-precision
// decimals; Price is meaningful (and must lie in [0, 1]) for every type
// except MARKET, where it is accepted as a placeholder and ignored by
// the matcher.
type Order struct {
	ID           OrderID
	MarketID     string
	OwnerID      string
	Side         Side
	Type         OrderType
	Price        moneymath.Decimal
	Size         moneymath.Decimal
	Filled       moneymath.Decimal
	Status       OrderStatus
	Reference    string
	RejectReason RejectReason
	CreatedAt    time.Time
}

// NewOrder constructs a PENDING order with zero fill progress.
// createdAt is the per-market, strictly monotone creation timestamp used
// for time priority (see book.Side); the engine facade is responsible
// for handing out a value strictly greater than any previously assigned
// in the same market.
func NewOrder(id OrderID, marketID, ownerID string, side Side, typ OrderType, price, size moneymath.Decimal, createdAt time.Time) *Order {
	return &Order{
		ID:        id,
		MarketID:  marketID,
		OwnerID:   ownerID,
		Side:      side,
		Type:      typ,
		Price:     price,
		Size:      size,
		Filled:    moneymath.Zero(),
		Status:    OrderStatusPending,
		CreatedAt: createdAt,
	}
}

// Remaining returns size minus cumulative filled.
func (o *Order) Remaining() moneymath.Decimal {
	return o.Size.Sub(o.Filled)
}

// Validate checks the construction-time invariants from the admission
// boundary: non-negative size, and for priced order types, a price in
// [0, 1]. The matcher itself never calls this — an order that somehow
// reaches it malformed simply fails to cross (see matcher package).
func (o *Order) Validate() error {
	if !moneymath.IsNonNegative(o.Size) {
		return errors.Errorf("order %s: size must be non-negative, got %s", o.ID, o.Size)
	}
	if o.Type != OrderTypeMarket && !moneymath.InUnitInterval(o.Price) {
		return errors.Errorf("order %s: price must be in [0,1], got %s", o.ID, o.Price)
	}
	return nil
}

// Clone returns a defensive copy, safe to hand to a caller outside the
// book's lock.
func (o *Order) Clone() *Order {
	cp := *o
	return &cp
}

// ApplyFill records a trade's size against the order's cumulative filled
// total and advances status. cumulativeFilled must be the order's total
// filled size after this trade (original filled at submission plus all
// matches so far), never a delta.
func (o *Order) ApplyFill(cumulativeFilled moneymath.Decimal) {
	o.Filled = cumulativeFilled
	if o.Filled.GreaterThanOrEqual(o.Size) {
		o.Status = OrderStatusFilled
	} else if o.Filled.GreaterThan(moneymath.Zero()) {
		o.Status = OrderStatusPartial
	}
}

// Cancel marks the order CANCELLED. Legal from PENDING or PARTIAL only;
// callers (the engine facade) must not call this on a terminal order.
func (o *Order) Cancel() {
	o.Status = OrderStatusCancelled
}
