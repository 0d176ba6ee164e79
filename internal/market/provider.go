package market

import (
	"context"
	"sync"
	"time"
)

// Provider supplies current snapshots for a symbol set on demand. Polled,
// not pushed. Implementations must not block past the context deadline.
type Provider interface {
	Snapshots(ctx context.Context, symbols []Symbol) map[string]Result
}

// FetchAll polls the provider with a per-cycle timeout and guarantees every
// requested symbol appears in the returned map: a symbol the provider did
// not answer for comes back with ErrDataUnavailable rather than being
// silently absent.
func FetchAll(ctx context.Context, p Provider, symbols []Symbol, timeout time.Duration) map[string]Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results := p.Snapshots(ctx, symbols)
	if results == nil {
		results = make(map[string]Result, len(symbols))
	}
	for _, sym := range symbols {
		if _, ok := results[sym.Ticker]; !ok {
			results[sym.Ticker] = Result{Err: ErrDataUnavailable}
		}
	}
	return results
}

// ParallelProvider fans a snapshot request out to a per-symbol fetch
// function, one goroutine per symbol. All fetches complete (or fail
// individually) before the map is returned, so the risk/position phase
// never starts on a partial fetch.
type ParallelProvider struct {
	Fetch func(ctx context.Context, sym Symbol) (Snapshot, error)
}

func (p *ParallelProvider) Snapshots(ctx context.Context, symbols []Symbol) map[string]Result {
	results := make(map[string]Result, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, sym := range symbols {
		wg.Add(1)
		go func(sym Symbol) {
			defer wg.Done()
			snap, err := p.Fetch(ctx, sym)
			mu.Lock()
			if err != nil {
				results[sym.Ticker] = Result{Err: err}
			} else {
				results[sym.Ticker] = Result{Snapshot: snap}
			}
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	return results
}
