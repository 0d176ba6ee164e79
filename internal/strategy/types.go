package strategy

import (
	"time"

	"intraday-core/internal/market"
)

// Direction of a proposed trade.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for long, -1 for short.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Signal is a strategy's proposed trade entry. Immutable once created;
// consumed at most once by the risk manager.
type Signal struct {
	Symbol      string
	Sector      market.Sector
	StrategyID  string
	Direction   Direction
	Confidence  float64 // 0-1, comparable across strategies
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	GeneratedAt time.Time

	// Trailing enables the stop ratchet once unrealized profit exceeds
	// TrailTrigger x the entry-to-target distance.
	Trailing     bool
	TrailTrigger float64

	Note string
}

// Strategy is the evaluation contract every variant fulfills. Evaluate must
// be a pure function of its inputs, return nil for malformed-but-well-typed
// input rather than failing, and keep confidence inside [0,1]. Active-hours
// enforcement is the Service's job, not the strategy's.
type Strategy interface {
	ID() string
	Name() string
	Window() market.Window
	Evaluate(sym market.Symbol, snap market.Snapshot, history []market.Snapshot) *Signal
}
