package strategy

import (
	"log"
	"sort"
	"sync"

	"intraday-core/internal/market"
)

// Service runs all active strategies each cycle, filters candidates by the
// confidence threshold, deduplicates per (symbol, strategy), and ranks the
// survivors. Registration order defines strategy priority for tie-breaks.
type Service struct {
	mu            sync.RWMutex
	strategies    []Strategy
	priority      map[string]int
	active        map[string]bool
	minConfidence float64
	clock         *market.Clock

	// rolling per-symbol snapshot history handed to strategies
	history    map[string][]market.Snapshot
	historyLen int
}

func NewService(clock *market.Clock, minConfidence float64) *Service {
	return &Service{
		priority:      make(map[string]int),
		active:        make(map[string]bool),
		minConfidence: minConfidence,
		clock:         clock,
		history:       make(map[string][]market.Snapshot),
		historyLen:    30,
	}
}

// Add registers a strategy. Earlier registrations rank higher on confidence
// ties.
func (s *Service) Add(strat Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priority[strat.ID()] = len(s.strategies)
	s.strategies = append(s.strategies, strat)
	s.active[strat.ID()] = true
}

// SetActive switches the session's strategy set (the mode selector). IDs not
// listed are deactivated; unknown IDs are ignored with a log line.
func (s *Service) SetActive(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, known := s.priority[id]; !known {
			log.Printf("signal service: unknown strategy %q in mode selection", id)
			continue
		}
		want[id] = true
	}
	for id := range s.active {
		s.active[id] = want[id]
	}
}

// ActiveIDs returns the currently enabled strategy IDs in priority order.
func (s *Service) ActiveIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.strategies))
	for _, strat := range s.strategies {
		if s.active[strat.ID()] {
			ids = append(ids, strat.ID())
		}
	}
	return ids
}

// Evaluate runs one cycle over the fetched snapshots and returns ranked
// signals. Failed fetches contribute no signal for that symbol this cycle.
// Active-hours windows are enforced here so strategies stay stateless with
// respect to time.
func (s *Service) Evaluate(universe []market.Symbol, snapshots map[string]market.Result) []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.clock.IsSignalTime() {
		return nil
	}
	now := s.clock.NowIST()

	// Keep one slot per (symbol, strategy); a later duplicate only wins on
	// higher confidence.
	best := make(map[string]Signal)
	for _, sym := range universe {
		res, ok := snapshots[sym.Ticker]
		if !ok || res.Err != nil || !res.Snapshot.Valid() {
			continue
		}
		snap := res.Snapshot
		hist := s.appendHistory(sym.Ticker, snap)

		for _, strat := range s.strategies {
			if !s.active[strat.ID()] || !strat.Window().Contains(now) {
				continue
			}
			sig := strat.Evaluate(sym, snap, hist)
			if sig == nil {
				continue
			}
			if sig.Confidence < 0 || sig.Confidence > 1 {
				log.Printf("signal service: %s produced out-of-range confidence %.3f for %s, dropped",
					strat.Name(), sig.Confidence, sym.Ticker)
				continue
			}
			if sig.Confidence < s.minConfidence {
				continue
			}
			key := sig.StrategyID + ":" + sig.Symbol
			if prev, dup := best[key]; !dup || sig.Confidence > prev.Confidence {
				best[key] = *sig
			}
		}
	}

	signals := make([]Signal, 0, len(best))
	for _, sig := range best {
		signals = append(signals, sig)
	}
	s.rank(signals)
	return signals
}

// rank orders by confidence descending, then configured strategy priority,
// then symbol lexical order as the final deterministic tie-break.
func (s *Service) rank(signals []Signal) {
	sort.Slice(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if pa, pb := s.priority[a.StrategyID], s.priority[b.StrategyID]; pa != pb {
			return pa < pb
		}
		return a.Symbol < b.Symbol
	})
}

func (s *Service) appendHistory(ticker string, snap market.Snapshot) []market.Snapshot {
	h := append(s.history[ticker], snap)
	if len(h) > s.historyLen {
		h = h[1:]
	}
	s.history[ticker] = h
	out := make([]market.Snapshot, len(h))
	copy(out, h)
	return out
}
