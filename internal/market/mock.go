package market

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// MockProvider generates synthetic snapshots for local development and dry
// runs. Each symbol follows a simple random walk seeded from StartPrice.
type MockProvider struct {
	StartPrice float64
	Step       float64

	mu    sync.Mutex
	state map[string]*mockSymbolState
}

type mockSymbolState struct {
	open   float64
	high   float64
	low    float64
	prev   float64
	last   float64
	volume int64
	bars   []Bar
}

func NewMockProvider(startPrice, step float64) *MockProvider {
	if startPrice <= 0 {
		startPrice = 100.0
	}
	if step <= 0 {
		step = 0.5
	}
	return &MockProvider{
		StartPrice: startPrice,
		Step:       step,
		state:      make(map[string]*mockSymbolState),
	}
}

func (m *MockProvider) Snapshots(ctx context.Context, symbols []Symbol) map[string]Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	results := make(map[string]Result, len(symbols))
	for _, sym := range symbols {
		st, ok := m.state[sym.Ticker]
		if !ok {
			prev := m.StartPrice * (0.95 + rand.Float64()*0.1)
			open := prev * (0.99 + rand.Float64()*0.03) // occasional gap
			st = &mockSymbolState{
				open: open,
				high: open,
				low:  open,
				prev: prev,
				last: open,
			}
			m.state[sym.Ticker] = st
		}

		st.last += (rand.Float64()*2 - 1) * m.Step
		if st.last <= 0 {
			st.last = m.Step
		}
		if st.last > st.high {
			st.high = st.last
		}
		if st.last < st.low {
			st.low = st.last
		}
		st.volume += int64(1000 + rand.Intn(9000))
		st.bars = append(st.bars, Bar{
			Open: st.last, High: st.last, Low: st.last, Close: st.last,
			Volume: st.volume, Time: now,
		})
		if len(st.bars) > 60 {
			st.bars = st.bars[1:]
		}

		history := make([]Bar, len(st.bars))
		copy(history, st.bars)
		results[sym.Ticker] = Result{Snapshot: Snapshot{
			Symbol:    sym.Ticker,
			LastPrice: st.last,
			OpenPrice: st.open,
			HighPrice: st.high,
			LowPrice:  st.low,
			PrevClose: st.prev,
			Volume:    st.volume,
			Timestamp: now,
			History:   history,
		}}
	}
	return results
}
