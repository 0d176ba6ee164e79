// Package persistence streams session activity from the event bus into the
// SQLite store so the day's signals, closes and metrics survive a restart.
package persistence

import (
	"context"
	"log"

	"intraday-core/internal/events"
	"intraday-core/internal/monitor"
	"intraday-core/internal/position"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
	"intraday-core/pkg/db"
)

// metricsEvery controls how often (in completed cycles) a session_metrics
// row is written.
const metricsEvery = 10

// Recorder subscribes to the bus and persists what it hears. It runs on its
// own goroutine so a slow disk never blocks the evaluation cycle.
type Recorder struct {
	queries *db.Queries
	bus     *events.Bus
	risk    *risk.Manager
	metrics *monitor.SystemMetrics
}

func NewRecorder(q *db.Queries, bus *events.Bus, rm *risk.Manager, metrics *monitor.SystemMetrics) *Recorder {
	return &Recorder{queries: q, bus: bus, risk: rm, metrics: metrics}
}

// Run consumes bus events until ctx is canceled.
func (r *Recorder) Run(ctx context.Context) {
	signals, unsubSignals := r.bus.Subscribe(events.EventSignal, 256)
	closes, unsubCloses := r.bus.Subscribe(events.EventPositionClosed, 256)
	placed, unsubPlaced := r.bus.Subscribe(events.EventOrderPlaced, 256)
	settled, unsubSettled := r.bus.Subscribe(events.EventOrderSettled, 256)
	cycles, unsubCycles := r.bus.Subscribe(events.EventCycleComplete, 64)
	defer unsubSignals()
	defer unsubCloses()
	defer unsubPlaced()
	defer unsubSettled()
	defer unsubCycles()

	var cycleCount uint64
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-signals:
			sig, ok := msg.(strategy.Signal)
			if !ok {
				continue
			}
			err := r.queries.InsertSignal(ctx, db.SignalRow{
				StrategyID:  sig.StrategyID,
				Symbol:      sig.Symbol,
				Direction:   string(sig.Direction),
				Confidence:  sig.Confidence,
				EntryPrice:  sig.EntryPrice,
				StopPrice:   sig.StopPrice,
				TargetPrice: sig.TargetPrice,
				GeneratedAt: sig.GeneratedAt,
			})
			if err != nil {
				log.Printf("recorder: persist signal %s %s: %v", sig.StrategyID, sig.Symbol, err)
			}
		case msg := <-closes:
			p, ok := msg.(position.Position)
			if !ok {
				continue
			}
			err := r.queries.InsertClosedPosition(ctx, db.ClosedPosition{
				ID:          p.ID,
				StrategyID:  p.StrategyID,
				Symbol:      p.Symbol,
				Sector:      string(p.Sector),
				Direction:   string(p.Direction),
				Qty:         p.Qty,
				EntryPrice:  p.EntryPrice,
				ExitPrice:   p.ExitPrice,
				ExitReason:  string(p.ExitReason),
				RealizedPnL: p.RealizedPnL,
				EntryTime:   p.EntryTime,
				ExitTime:    p.ExitTime,
			})
			if err != nil {
				log.Printf("recorder: persist close %s: %v", p.Symbol, err)
			}
		case msg := <-placed:
			ev, ok := msg.(position.OrderEvent)
			if !ok {
				continue
			}
			err := r.queries.InsertOrder(ctx, db.Order{
				ID:        ev.Handle.ID,
				ClientID:  ev.Handle.ClientID,
				Symbol:    ev.Request.Symbol,
				Side:      string(ev.Request.Side),
				OrderType: string(ev.Request.Type),
				Qty:       ev.Request.Qty,
				Price:     ev.Request.Price,
				Status:    string(ev.State),
			})
			if err != nil {
				log.Printf("recorder: persist order %s: %v", ev.Handle.ID, err)
			}
		case msg := <-settled:
			ev, ok := msg.(position.OrderEvent)
			if !ok {
				continue
			}
			if err := r.queries.UpdateOrderStatus(ctx, ev.Handle.ID, string(ev.State), ev.FillPrice); err != nil {
				log.Printf("recorder: settle order %s: %v", ev.Handle.ID, err)
			}
		case <-cycles:
			cycleCount++
			if cycleCount%metricsEvery != 0 {
				continue
			}
			snap := r.metrics.GetSnapshot()
			state := r.risk.Snapshot()
			err := r.queries.InsertSessionMetric(ctx, db.SessionMetric{
				CyclesCompleted:  snap.CyclesCompleted,
				SignalsGenerated: snap.SignalsGenerated,
				OrdersPlaced:     snap.OrdersPlaced,
				ErrorsCount:      snap.ErrorsCount,
				RealizedPnL:      state.RealizedPnL,
				OpenPositions:    state.OpenTotal,
			})
			if err != nil {
				log.Printf("recorder: persist session metric: %v", err)
			}
		}
	}
}
