// Package analysis computes the per-symbol indicator inputs strategies
// consume: volume baselines, selling pressure, range measures.
package analysis

import (
	"github.com/markcheno/go-talib"

	"intraday-core/internal/market"
)

// VolumeRatio compares the snapshot's volume against the average volume of
// its history window. Returns 0 when no baseline is available.
func VolumeRatio(snap market.Snapshot) float64 {
	if len(snap.History) < 2 {
		return 0
	}
	vols := make([]float64, len(snap.History))
	for i, b := range snap.History {
		vols[i] = float64(b.Volume)
	}
	sma := talib.Sma(vols, len(vols))
	avg := sma[len(sma)-1]
	if avg <= 0 {
		return 0
	}
	return float64(snap.Volume) / avg
}

// SellingPressure scores 0-100 how far price has retraced from the day high
// within the day range. 100 means price sits at the low.
func SellingPressure(snap market.Snapshot) float64 {
	dayRange := snap.HighPrice - snap.LowPrice
	if dayRange <= 0 {
		return 0
	}
	score := (snap.HighPrice - snap.LastPrice) / dayRange * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TrueRange returns the ATR over the history window, used for volatility
// sized stop distances. Returns 0 if the window is too short.
func TrueRange(snap market.Snapshot, period int) float64 {
	if period <= 0 || len(snap.History) <= period {
		return 0
	}
	highs := make([]float64, len(snap.History))
	lows := make([]float64, len(snap.History))
	closes := make([]float64, len(snap.History))
	for i, b := range snap.History {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	atr := talib.Atr(highs, lows, closes, period)
	return atr[len(atr)-1]
}

// GapPercent is the opening gap over the previous close, in percent.
// Positive for a gap-up.
func GapPercent(snap market.Snapshot) float64 {
	if snap.PrevClose <= 0 {
		return 0
	}
	return (snap.OpenPrice - snap.PrevClose) / snap.PrevClose * 100
}

// OpeningRange derives the first-minutes high/low from the history window.
// Falls back to a band around the day open when history is too short.
func OpeningRange(snap market.Snapshot, bars int) (high, low float64) {
	if bars > 0 && len(snap.History) >= bars {
		high, low = snap.History[0].High, snap.History[0].Low
		for _, b := range snap.History[:bars] {
			if b.High > high {
				high = b.High
			}
			if b.Low < low && b.Low > 0 {
				low = b.Low
			}
		}
		if high > 0 && low > 0 {
			return high, low
		}
	}
	return snap.OpenPrice * 1.01, snap.OpenPrice * 0.99
}
