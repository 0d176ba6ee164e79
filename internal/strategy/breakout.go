package strategy

import (
	"fmt"

	"intraday-core/internal/analysis"
	"intraday-core/internal/market"
)

// OpenBreakoutConfig tunes the opening-range breakout entry.
type OpenBreakoutConfig struct {
	MinBreakoutPercent float64 `yaml:"min_breakout_percent"`
	MinVolumeMultiple  float64 `yaml:"min_volume_multiple"`
	OpeningRangeBars   int     `yaml:"opening_range_bars"`
	RiskRewardRatio    float64 `yaml:"risk_reward_ratio"`
	TrailTrigger       float64 `yaml:"trail_trigger"`
	AtrPeriod          int     `yaml:"atr_period"`
}

// DefaultOpenBreakoutConfig mirrors the production parameter set.
func DefaultOpenBreakoutConfig() OpenBreakoutConfig {
	return OpenBreakoutConfig{
		MinBreakoutPercent: 0.3,
		MinVolumeMultiple:  1.5,
		OpeningRangeBars:   15,
		RiskRewardRatio:    2.0,
		TrailTrigger:       0.5,
		AtrPeriod:          14,
	}
}

// OpenBreakout buys stocks breaking above their opening range on volume.
// Long entries with a trailing stop: the range low protects the entry and
// the target sits RiskRewardRatio times the stop distance above it.
type OpenBreakout struct {
	id     string
	window market.Window
	cfg    OpenBreakoutConfig
}

func NewOpenBreakout(id string, window market.Window, cfg OpenBreakoutConfig) *OpenBreakout {
	return &OpenBreakout{id: id, window: window, cfg: cfg}
}

func (s *OpenBreakout) ID() string            { return s.id }
func (s *OpenBreakout) Name() string          { return "Open_Breakout" }
func (s *OpenBreakout) Window() market.Window { return s.window }

func (s *OpenBreakout) Evaluate(sym market.Symbol, snap market.Snapshot, history []market.Snapshot) *Signal {
	if !snap.Valid() {
		return nil
	}

	rangeHigh, rangeLow := analysis.OpeningRange(snap, s.cfg.OpeningRangeBars)
	if rangeHigh <= 0 || snap.LastPrice <= rangeHigh {
		return nil
	}

	breakoutPct := (snap.LastPrice - rangeHigh) / rangeHigh * 100
	if breakoutPct < s.cfg.MinBreakoutPercent {
		return nil
	}

	volumeRatio := analysis.VolumeRatio(snap)
	if volumeRatio < s.cfg.MinVolumeMultiple {
		return nil
	}

	// Breakout strength relative to the range size, volume-confirmed.
	rangeSize := rangeHigh - rangeLow
	if rangeSize <= 0 {
		return nil
	}
	strength := (snap.LastPrice - rangeHigh) / rangeSize * min(volumeRatio, 3) * 0.5
	confidence := clamp01(strength)

	entry := snap.LastPrice
	stop := rangeLow
	if stop >= entry {
		return nil
	}
	// A tight opening range can put the stop inside routine volatility;
	// keep at least one ATR of room below the entry.
	if atr := analysis.TrueRange(snap, s.cfg.AtrPeriod); atr > entry-stop {
		stop = entry - atr
	}
	target := entry + (entry-stop)*s.cfg.RiskRewardRatio

	return &Signal{
		Symbol:       sym.Ticker,
		Sector:       sym.Sector,
		StrategyID:   s.id,
		Direction:    DirectionLong,
		Confidence:   confidence,
		EntryPrice:   entry,
		StopPrice:    stop,
		TargetPrice:  target,
		GeneratedAt:  snap.Timestamp,
		Trailing:     true,
		TrailTrigger: s.cfg.TrailTrigger,
		Note:         fmt.Sprintf("breakout=%.2f%% range=[%.2f,%.2f] vol=%.2fx", breakoutPct, rangeLow, rangeHigh, volumeRatio),
	}
}
