// Package gateway defines the order execution contract against the
// brokerage and a simulated implementation for dry runs.
package gateway

import (
	"context"
	"errors"
	"time"
)

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType denotes supported order types.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderState normalizes brokerage status into a small set.
type OrderState string

const (
	StatePending  OrderState = "PENDING"
	StateFilled   OrderState = "FILLED"
	StateRejected OrderState = "REJECTED"
	StateCanceled OrderState = "CANCELED"
)

// OrderRequest captures an order intent to be sent to the brokerage.
type OrderRequest struct {
	ClientID string // uuid assigned by the caller
	Symbol   string
	Side     Side
	Type     OrderType
	Qty      int64
	Price    float64 // limit price; reference price for simulated fills
}

// OrderHandle identifies a placed order for status polling.
type OrderHandle struct {
	ID       string
	ClientID string
	PlacedAt time.Time
}

// OrderStatus is the brokerage's answer to a status query.
type OrderStatus struct {
	State     OrderState
	FillPrice float64 // set when State == StateFilled
	Reason    string  // set when State == StateRejected
}

// Brokerage-side failure modes the position engine distinguishes.
var (
	// ErrExecutionRejected: the brokerage refused the order. The position
	// reverts to Rejected; the same signal is not retried.
	ErrExecutionRejected = errors.New("execution rejected")
	// ErrExecutionTimeout: order status unknown. Bounded retries, then the
	// position is flagged for manual review, never silently discarded.
	ErrExecutionTimeout = errors.New("execution status timeout")
)

// Gateway places and cancels orders against the brokerage and reports
// fills. Status queries must be idempotent.
type Gateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderHandle, error)
	OrderStatus(ctx context.Context, h OrderHandle) (OrderStatus, error)
	CancelOrder(ctx context.Context, h OrderHandle) error
}
