package market

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParallelProviderCollectsAllSymbols(t *testing.T) {
	failing := errors.New("quote endpoint 500")
	p := &ParallelProvider{
		Fetch: func(ctx context.Context, sym Symbol) (Snapshot, error) {
			if sym.Ticker == "BAD" {
				return Snapshot{}, failing
			}
			return Snapshot{Symbol: sym.Ticker, LastPrice: 100, OpenPrice: 99, PrevClose: 98}, nil
		},
	}

	symbols := []Symbol{
		{Ticker: "INFY", Sector: SectorIT},
		{Ticker: "BAD", Sector: SectorAuto},
		{Ticker: "ITC", Sector: SectorFMCG},
	}
	results := FetchAll(context.Background(), p, symbols, time.Second)

	if len(results) != len(symbols) {
		t.Fatalf("got %d results, expected %d", len(results), len(symbols))
	}
	if results["BAD"].Err == nil {
		t.Fatal("failed fetch must surface an error, not a snapshot")
	}
	if results["INFY"].Err != nil || !results["INFY"].Snapshot.Valid() {
		t.Fatalf("INFY fetch failed: %+v", results["INFY"])
	}
}

// A provider that answers for a subset must not make the rest vanish: the
// missing symbols come back marked data-unavailable.
func TestFetchAllFillsMissingSymbols(t *testing.T) {
	p := partialProvider{}
	symbols := []Symbol{{Ticker: "TCS"}, {Ticker: "SBIN"}}

	results := FetchAll(context.Background(), p, symbols, time.Second)

	if results["TCS"].Err != nil {
		t.Fatalf("TCS should have a snapshot: %v", results["TCS"].Err)
	}
	if !errors.Is(results["SBIN"].Err, ErrDataUnavailable) {
		t.Fatalf("SBIN err=%v, expected ErrDataUnavailable", results["SBIN"].Err)
	}
}

type partialProvider struct{}

func (partialProvider) Snapshots(ctx context.Context, symbols []Symbol) map[string]Result {
	return map[string]Result{
		"TCS": {Snapshot: Snapshot{Symbol: "TCS", LastPrice: 1, OpenPrice: 1, PrevClose: 1}},
	}
}
