package strategy

import (
	"testing"
	"time"

	"intraday-core/internal/market"
)

func gapUpSnapshot() market.Snapshot {
	// Gapped up 2% over prev close, retraced near the low, triple volume.
	return market.Snapshot{
		Symbol:    "ITC",
		PrevClose: 100,
		OpenPrice: 102,
		HighPrice: 103,
		LowPrice:  101,
		LastPrice: 101.2,
		Volume:    30000,
		Timestamp: time.Date(2026, 8, 3, 10, 0, 0, 0, market.IST),
		History: []market.Bar{
			{Volume: 10000}, {Volume: 10000}, {Volume: 10000},
		},
	}
}

func TestGapUpShortSignal(t *testing.T) {
	s := NewGapUpShort("gap-1", tradingWindow(), DefaultGapUpShortConfig())
	sym := market.Symbol{Ticker: "ITC", Sector: market.SectorFMCG}

	sig := s.Evaluate(sym, gapUpSnapshot(), nil)
	if sig == nil {
		t.Fatal("expected a signal for a gapped-up symbol under selling pressure")
	}
	if sig.Direction != DirectionShort {
		t.Fatalf("Direction=%s, expected SHORT", sig.Direction)
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		t.Fatalf("Confidence=%v outside [0,1]", sig.Confidence)
	}
	if sig.StopPrice <= sig.EntryPrice {
		t.Fatalf("short stop %v must sit above entry %v", sig.StopPrice, sig.EntryPrice)
	}
	if sig.TargetPrice >= sig.EntryPrice {
		t.Fatalf("short target %v must sit below entry %v", sig.TargetPrice, sig.EntryPrice)
	}
}

func TestGapUpShortRejects(t *testing.T) {
	s := NewGapUpShort("gap-1", tradingWindow(), DefaultGapUpShortConfig())
	sym := market.Symbol{Ticker: "ITC", Sector: market.SectorFMCG}

	tests := []struct {
		name   string
		mutate func(*market.Snapshot)
	}{
		{"gap down", func(s *market.Snapshot) { s.OpenPrice = 99 }},
		{"no selling pressure", func(s *market.Snapshot) { s.LastPrice = 102.9 }},
		{"thin volume", func(s *market.Snapshot) { s.Volume = 10000 }},
		{"malformed snapshot", func(s *market.Snapshot) { s.PrevClose = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := gapUpSnapshot()
			tt.mutate(&snap)
			if sig := s.Evaluate(sym, snap, nil); sig != nil {
				t.Fatalf("expected no signal, got %+v", sig)
			}
		})
	}
}

func tradingWindow() market.Window {
	return market.Window{StartHour: 9, StartMinute: 15, EndHour: 14, EndMinute: 30}
}
