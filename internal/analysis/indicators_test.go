package analysis

import (
	"math"
	"testing"

	"intraday-core/internal/market"
)

func TestSellingPressure(t *testing.T) {
	tests := []struct {
		name string
		snap market.Snapshot
		want float64
	}{
		{"at low", market.Snapshot{HighPrice: 110, LowPrice: 100, LastPrice: 100}, 100},
		{"at high", market.Snapshot{HighPrice: 110, LowPrice: 100, LastPrice: 110}, 0},
		{"midway", market.Snapshot{HighPrice: 110, LowPrice: 100, LastPrice: 105}, 50},
		{"no range", market.Snapshot{HighPrice: 100, LowPrice: 100, LastPrice: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SellingPressure(tt.snap); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("SellingPressure=%v, expected %v", got, tt.want)
			}
		})
	}
}

func TestGapPercent(t *testing.T) {
	snap := market.Snapshot{OpenPrice: 102, PrevClose: 100}
	if got := GapPercent(snap); math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("GapPercent=%v, expected 2.0", got)
	}
	if got := GapPercent(market.Snapshot{OpenPrice: 102}); got != 0 {
		t.Fatalf("GapPercent without prev close=%v, expected 0", got)
	}
}

func TestVolumeRatio(t *testing.T) {
	snap := market.Snapshot{
		Volume: 3000,
		History: []market.Bar{
			{Volume: 1000}, {Volume: 1000}, {Volume: 1000},
		},
	}
	if got := VolumeRatio(snap); math.Abs(got-3.0) > 1e-9 {
		t.Fatalf("VolumeRatio=%v, expected 3.0", got)
	}
	if got := VolumeRatio(market.Snapshot{Volume: 3000}); got != 0 {
		t.Fatalf("VolumeRatio without history=%v, expected 0", got)
	}
}

func TestOpeningRangeFallback(t *testing.T) {
	snap := market.Snapshot{OpenPrice: 200}
	high, low := OpeningRange(snap, 15)
	if high <= snap.OpenPrice || low >= snap.OpenPrice {
		t.Fatalf("fallback range [%v, %v] must straddle the open %v", low, high, snap.OpenPrice)
	}
}
