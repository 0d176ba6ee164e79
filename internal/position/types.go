// Package position owns every open and closing position and drives each one
// through its lifecycle: entry confirmation, protective exits, trailing-stop
// tightening and final close accounting.
package position

import (
	"time"

	"intraday-core/internal/gateway"
	"intraday-core/internal/market"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
)

// State of a position.
type State string

const (
	StatePendingEntry State = "PENDING_ENTRY"
	StateOpen         State = "OPEN"
	StateClosing      State = "CLOSING"
	StateClosed       State = "CLOSED"
	StateRejected     State = "REJECTED"
)

// ExitReason records which exit condition fired.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTarget     ExitReason = "TARGET"
	ExitSessionEnd ExitReason = "SESSION_END"
	ExitHalt       ExitReason = "HALT"
)

// Position is a tracked trade. Symbol, direction and entry price are
// immutable after the fill; stop and size may be mutated in place by the
// engine (trailing ratchet, partial fills are not modeled).
type Position struct {
	ID         string
	StrategyID string
	Symbol     string
	Sector     market.Sector
	Direction  strategy.Direction

	Qty         int64
	EntryPrice  float64 // fill price once Open; proposed price before
	StopPrice   float64
	TargetPrice float64

	State         State
	EntryTime     time.Time
	ExitTime      time.Time
	ExitPrice     float64
	ExitReason    ExitReason
	RealizedPnL   float64
	UnrealizedPnL float64

	// ManualReview marks a position whose brokerage-side state could not be
	// confirmed within the retry budget. It stays tracked but the engine
	// takes no further automated action on it.
	ManualReview bool

	Trailing     bool
	TrailTrigger float64

	reservation  risk.Reservation
	entryOrder   gateway.OrderHandle
	exitOrder    gateway.OrderHandle
	stopDistance float64 // |entry - initial stop|, drives the trail ratchet
	retries      int
}

// OrderEvent describes order activity for the bus (persistence, UI stream).
type OrderEvent struct {
	Handle    gateway.OrderHandle
	Request   gateway.OrderRequest
	State     gateway.OrderState
	FillPrice float64
}

// Key identifies the position by its (strategy, symbol) pair.
func (p *Position) Key() string {
	return p.StrategyID + ":" + p.Symbol
}

// pnlAt computes realized PnL for an exit at the given price.
func (p *Position) pnlAt(exit float64) float64 {
	return (exit - p.EntryPrice) * float64(p.Qty) * p.Direction.Sign()
}

// exitSide is the order side that flattens the position.
func (p *Position) exitSide() gateway.Side {
	if p.Direction == strategy.DirectionShort {
		return gateway.SideBuy
	}
	return gateway.SideSell
}

func (p *Position) entrySide() gateway.Side {
	if p.Direction == strategy.DirectionShort {
		return gateway.SideSell
	}
	return gateway.SideBuy
}
