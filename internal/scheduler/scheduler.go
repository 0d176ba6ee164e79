// Package scheduler drives the fixed-interval evaluation loop: one cycle at
// a time runs snapshot fetch, strategy evaluation, risk admission, position
// re-evaluation and order dispatch to completion before the next begins.
package scheduler

import (
	"context"
	"log"
	"time"

	"intraday-core/internal/events"
	"intraday-core/internal/market"
	"intraday-core/internal/monitor"
	"intraday-core/internal/position"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
)

// Scheduler owns the cycle cadence. Cycles never overlap: a tick that fires
// while a cycle is still running is observed only after it finishes, and the
// overrun is counted.
type Scheduler struct {
	interval     time.Duration
	fetchTimeout time.Duration
	universe     []market.Symbol

	provider market.Provider
	signals  *strategy.Service
	risk     *risk.Manager
	engine   *position.Engine
	clock    *market.Clock
	bus      *events.Bus
	metrics  *monitor.SystemMetrics
}

// Config wires the scheduler's collaborators.
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Universe     []market.Symbol
	Provider     market.Provider
	Signals      *strategy.Service
	Risk         *risk.Manager
	Engine       *position.Engine
	Clock        *market.Clock
	Bus          *events.Bus
	Metrics      *monitor.SystemMetrics
}

func New(cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = cfg.Interval / 2
	}
	return &Scheduler{
		interval:     cfg.Interval,
		fetchTimeout: cfg.FetchTimeout,
		universe:     cfg.Universe,
		provider:     cfg.Provider,
		signals:      cfg.Signals,
		risk:         cfg.Risk,
		engine:       cfg.Engine,
		clock:        cfg.Clock,
		bus:          cfg.Bus,
		metrics:      cfg.Metrics,
	}
}

// Run loops until ctx is canceled. Shutdown lets the current cycle finish,
// then reconciles outstanding brokerage state before returning, so no
// position is abandoned mid-confirmation.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("scheduler: starting, interval=%s universe=%d symbols", s.interval, len(s.universe))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutdown requested, reconciling outstanding orders")
			s.engine.Reconcile(context.Background())
			log.Println("scheduler: stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle executes one full evaluation pass.
func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.clock.IsTradingTime() && s.engine.Outstanding() == 0 && len(s.engine.Open()) == 0 {
		return
	}
	start := time.Now()

	results := market.FetchAll(ctx, s.provider, s.universe, s.fetchTimeout)
	snaps := make(map[string]market.Snapshot, len(results))
	for ticker, res := range results {
		if res.Err != nil {
			log.Printf("scheduler: snapshot for %s unavailable: %v", ticker, res.Err)
			if s.metrics != nil {
				s.metrics.IncrementErrors()
			}
			continue
		}
		snaps[ticker] = res.Snapshot
	}

	stratStart := time.Now()
	sigs := s.signals.Evaluate(s.universe, results)
	if s.metrics != nil {
		s.metrics.StrategyLatency.Record(time.Since(stratStart))
		s.metrics.AddSignals(len(sigs))
	}

	for _, sig := range sigs {
		if s.bus != nil {
			s.bus.Publish(events.EventSignal, sig)
		}
		dec := s.risk.Admit(sig)
		if !dec.Admitted {
			continue
		}
		orderStart := time.Now()
		if err := s.engine.Track(ctx, sig, dec); err != nil {
			log.Printf("scheduler: tracking %s %s failed: %v", sig.StrategyID, sig.Symbol, err)
			if s.metrics != nil {
				s.metrics.IncrementErrors()
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.OrderLatency.Record(time.Since(orderStart))
			s.metrics.IncrementOrders()
		}
	}

	s.engine.Cycle(ctx, snaps)

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.CycleLatency.Record(elapsed)
		s.metrics.IncrementCycles()
	}
	if s.bus != nil {
		s.bus.Publish(events.EventCycleComplete, elapsed)
	}
	if elapsed > s.interval {
		log.Printf("scheduler: cycle overran interval: %s > %s", elapsed, s.interval)
		if s.metrics != nil {
			s.metrics.IncrementOverruns()
		}
	}
}
