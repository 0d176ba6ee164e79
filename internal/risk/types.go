package risk

import (
	"errors"
	"fmt"

	"intraday-core/internal/market"
)

// ErrConfigInvalid marks malformed risk parameters at startup. Fatal: the
// session refuses to start.
var ErrConfigInvalid = errors.New("invalid risk config")

// Config defines portfolio-wide risk parameters.
type Config struct {
	PortfolioValue  float64 // session capital base
	RiskPerTrade    float64 // fraction of portfolio value risked per trade
	LotSize         int64   // tradable unit; sizes round down to a multiple
	MaxTotal        int     // portfolio-wide open position cap
	MaxPerSector    int     // per-sector concentration cap
	DefaultCap      int     // per-strategy cap when not listed in StrategyCaps
	StrategyCaps    map[string]int
	DrawdownPct     float64 // halt when drawdown from HWM reaches this % of portfolio value
	ProfitTargetPct float64 // halt when session PnL reaches this % of portfolio value
}

// DefaultConfig returns a conservative parameter set.
func DefaultConfig() Config {
	return Config{
		PortfolioValue:  1_000_000,
		RiskPerTrade:    0.01,
		LotSize:         1,
		MaxTotal:        5,
		MaxPerSector:    2,
		DefaultCap:      3,
		DrawdownPct:     2.0,
		ProfitTargetPct: 3.0,
	}
}

// Validate rejects parameter sets a session must not start with.
func (c Config) Validate() error {
	switch {
	case c.PortfolioValue <= 0:
		return fmt.Errorf("%w: portfolio value %.2f", ErrConfigInvalid, c.PortfolioValue)
	case c.RiskPerTrade <= 0 || c.RiskPerTrade >= 1:
		return fmt.Errorf("%w: risk per trade %.4f outside (0,1)", ErrConfigInvalid, c.RiskPerTrade)
	case c.LotSize <= 0:
		return fmt.Errorf("%w: lot size %d", ErrConfigInvalid, c.LotSize)
	case c.MaxTotal <= 0:
		return fmt.Errorf("%w: portfolio cap %d", ErrConfigInvalid, c.MaxTotal)
	case c.MaxPerSector <= 0:
		return fmt.Errorf("%w: sector cap %d", ErrConfigInvalid, c.MaxPerSector)
	case c.DefaultCap <= 0:
		return fmt.Errorf("%w: default strategy cap %d", ErrConfigInvalid, c.DefaultCap)
	case c.DrawdownPct <= 0:
		return fmt.Errorf("%w: drawdown threshold %.2f", ErrConfigInvalid, c.DrawdownPct)
	case c.ProfitTargetPct <= 0:
		return fmt.Errorf("%w: profit target threshold %.2f", ErrConfigInvalid, c.ProfitTargetPct)
	}
	for id, limit := range c.StrategyCaps {
		if limit <= 0 {
			return fmt.Errorf("%w: cap %d for strategy %s", ErrConfigInvalid, limit, id)
		}
	}
	return nil
}

// RejectReason classifies why a signal was not admitted.
type RejectReason string

const (
	ReasonTradingHalted       RejectReason = "TradingHalted"
	ReasonStrategyCapReached  RejectReason = "StrategyCapReached"
	ReasonPortfolioCapReached RejectReason = "PortfolioCapReached"
	ReasonSectorCapReached    RejectReason = "SectorCapReached"
	ReasonDuplicatePosition   RejectReason = "DuplicatePosition"
	ReasonSizeTooSmall        RejectReason = "SizeTooSmall"
)

// Reservation records what an admission booked against portfolio state, so
// a failed entry can be released exactly.
type Reservation struct {
	StrategyID string
	Symbol     string
	Sector     market.Sector
	Exposure   float64
}

// Decision is the admission verdict for one signal.
type Decision struct {
	Admitted    bool
	Reason      RejectReason
	Qty         int64
	Reservation Reservation
}

// PortfolioState aggregates across all open positions. Single writer (the
// Manager); read by all through Snapshot copies.
type PortfolioState struct {
	OpenTotal       int                   `json:"open_total"`
	OpenPerStrategy map[string]int        `json:"open_per_strategy"`
	OpenPerSector   map[market.Sector]int `json:"open_per_sector"`
	OpenPairs       map[string]bool       `json:"-"`
	Exposure        float64               `json:"exposure"`
	RealizedPnL     float64               `json:"realized_pnl"`
	HighWaterMark   float64               `json:"high_water_mark"`
	Halted          bool                  `json:"halted"`
	HaltReason      string                `json:"halt_reason,omitempty"`
}
