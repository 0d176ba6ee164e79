package strategy

import (
	"fmt"

	"intraday-core/internal/analysis"
	"intraday-core/internal/market"
)

// GapUpShortConfig tunes the gap-up fade entry.
type GapUpShortConfig struct {
	MinGapPercent      float64                   `yaml:"min_gap_percent"`
	MinSellingPressure float64                   `yaml:"min_selling_pressure"`
	MinVolumeRatio     float64                   `yaml:"min_volume_ratio"`
	StopLossPercent    float64                   `yaml:"stop_loss_percent"`
	TargetPercent      float64                   `yaml:"target_percent"`
	SectorWeights      map[market.Sector]float64 `yaml:"sector_weights"`
}

// DefaultGapUpShortConfig mirrors the production parameter set.
func DefaultGapUpShortConfig() GapUpShortConfig {
	return GapUpShortConfig{
		MinGapPercent:      0.5,
		MinSellingPressure: 60,
		MinVolumeRatio:     1.5,
		StopLossPercent:    1.0,
		TargetPercent:      2.0,
		SectorWeights: map[market.Sector]float64{
			market.SectorFMCG:    1.0,
			market.SectorIT:      0.9,
			market.SectorPharma:  0.7,
			market.SectorBanking: 0.6,
			market.SectorMetals:  0.5,
			market.SectorRealty:  0.4,
			market.SectorAuto:    0.3,
		},
	}
}

// GapUpShort fades stocks that gapped up at the open and show intraday
// selling pressure on elevated volume. Short entries only.
type GapUpShort struct {
	id     string
	window market.Window
	cfg    GapUpShortConfig
}

func NewGapUpShort(id string, window market.Window, cfg GapUpShortConfig) *GapUpShort {
	return &GapUpShort{id: id, window: window, cfg: cfg}
}

func (s *GapUpShort) ID() string            { return s.id }
func (s *GapUpShort) Name() string          { return "Gap_Up_Short" }
func (s *GapUpShort) Window() market.Window { return s.window }

func (s *GapUpShort) Evaluate(sym market.Symbol, snap market.Snapshot, history []market.Snapshot) *Signal {
	if !snap.Valid() {
		return nil
	}

	gap := analysis.GapPercent(snap)
	if gap < s.cfg.MinGapPercent {
		return nil
	}

	pressure := analysis.SellingPressure(snap)
	volumeRatio := analysis.VolumeRatio(snap)
	if pressure < s.cfg.MinSellingPressure || volumeRatio < s.cfg.MinVolumeRatio {
		return nil
	}

	sectorWeight, ok := s.cfg.SectorWeights[sym.Sector]
	if !ok {
		sectorWeight = 0.5
	}
	confidence := (pressure/100)*0.4 +
		min(volumeRatio/3, 1)*0.3 +
		min(gap/5, 1)*0.2 +
		sectorWeight*0.1
	confidence = clamp01(confidence)

	entry := snap.LastPrice
	return &Signal{
		Symbol:      sym.Ticker,
		Sector:      sym.Sector,
		StrategyID:  s.id,
		Direction:   DirectionShort,
		Confidence:  confidence,
		EntryPrice:  entry,
		StopPrice:   entry * (1 + s.cfg.StopLossPercent/100),
		TargetPrice: entry * (1 - s.cfg.TargetPercent/100),
		GeneratedAt: snap.Timestamp,
		Note:        fmt.Sprintf("gap=%.2f%% pressure=%.1f vol=%.2fx", gap, pressure, volumeRatio),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
