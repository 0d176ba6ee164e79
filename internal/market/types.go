package market

import (
	"errors"
	"time"
)

// Sector groups symbols for concentration limits.
type Sector string

const (
	SectorFMCG    Sector = "FMCG"
	SectorIT      Sector = "IT"
	SectorBanking Sector = "BANKING"
	SectorAuto    Sector = "AUTO"
	SectorPharma  Sector = "PHARMA"
	SectorMetals  Sector = "METALS"
	SectorRealty  Sector = "REALTY"
	SectorOther   Sector = "OTHER"
)

// Symbol is immutable reference data for a tradable instrument.
type Symbol struct {
	Ticker string `yaml:"ticker"`
	Sector Sector `yaml:"sector"`
}

// Bar is one entry of a snapshot's rolling history window.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Time   time.Time
}

// Snapshot captures a symbol's market state at one instant. Produced fresh
// each cycle and never mutated after creation.
type Snapshot struct {
	Symbol    string
	LastPrice float64
	OpenPrice float64
	HighPrice float64
	LowPrice  float64
	PrevClose float64
	Volume    int64
	Timestamp time.Time

	// History is a short rolling window of recent bars, oldest first.
	// May be empty when the provider has no intraday history.
	History []Bar
}

// Valid reports whether the snapshot carries usable price data.
func (s Snapshot) Valid() bool {
	return s.LastPrice > 0 && s.OpenPrice > 0 && s.PrevClose > 0
}

// ErrDataUnavailable marks a symbol whose snapshot fetch failed this cycle.
// The symbol is skipped for the cycle; it is not fatal.
var ErrDataUnavailable = errors.New("market data unavailable")

// Result is the per-symbol outcome of a snapshot fetch: either a snapshot or
// an error, never both and never silently neither.
type Result struct {
	Snapshot Snapshot
	Err      error
}
