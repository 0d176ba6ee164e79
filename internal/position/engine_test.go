package position

import (
	"context"
	"testing"
	"time"

	"intraday-core/internal/gateway"
	"intraday-core/internal/market"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
)

// tradingClock pins the session to a Monday at the given IST time.
func tradingClock(hour, minute int) *market.Clock {
	c := market.DefaultClock()
	c.Now = func() time.Time {
		return time.Date(2026, 8, 3, hour, minute, 0, 0, market.IST)
	}
	return c
}

func testRiskManager(t *testing.T) *risk.Manager {
	t.Helper()
	cfg := risk.DefaultConfig()
	cfg.PortfolioValue = 100000
	cfg.RiskPerTrade = 0.01
	mgr, err := risk.NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr
}

func longSignal() strategy.Signal {
	return strategy.Signal{
		Symbol:      "INFY",
		Sector:      market.SectorIT,
		StrategyID:  "brk",
		Direction:   strategy.DirectionLong,
		Confidence:  0.8,
		EntryPrice:  100,
		StopPrice:   98,
		TargetPrice: 106,
	}
}

func snapAt(last float64) map[string]market.Snapshot {
	return map[string]market.Snapshot{
		"INFY": {
			Symbol:    "INFY",
			LastPrice: last,
			OpenPrice: 100,
			HighPrice: last,
			LowPrice:  98,
			PrevClose: 100,
			Volume:    50000,
		},
	}
}

// track admits the signal and hands it to the engine, failing the test on
// either step.
func track(t *testing.T, e *Engine, rm *risk.Manager, sig strategy.Signal) {
	t.Helper()
	dec := rm.Admit(sig)
	if !dec.Admitted {
		t.Fatalf("admission rejected: %s", dec.Reason)
	}
	if err := e.Track(context.Background(), sig, dec); err != nil {
		t.Fatalf("Track: %v", err)
	}
}

func TestEntryFillOpensPosition(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(101))

	open := e.Open()
	if len(open) != 1 {
		t.Fatalf("open=%d, expected 1", len(open))
	}
	p := open[0]
	if p.State != StateOpen {
		t.Fatalf("State=%s, expected OPEN", p.State)
	}
	if p.EntryPrice != 100 || p.Qty != 500 {
		t.Fatalf("entry=%.2f qty=%d, expected 100.00/500", p.EntryPrice, p.Qty)
	}
}

// A snapshot that breaches the stop must produce the exit instruction in
// that same cycle, not the next one.
func TestStopBreachExitsSameCycle(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(100)) // fill
	e.Cycle(context.Background(), snapAt(97.5))

	open := e.Open()
	if len(open) != 1 || open[0].State != StateClosing {
		t.Fatalf("got %+v, expected one CLOSING position", open)
	}
	if open[0].ExitReason != ExitStopLoss {
		t.Fatalf("ExitReason=%s, expected STOP_LOSS", open[0].ExitReason)
	}
}

// Round trip: closing at the stop loses the risk-per-trade amount.
func TestStopExitRoundTripLosesRiskAmount(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(100))  // fill at 100
	e.Cycle(context.Background(), snapAt(97.5)) // exit at stop 98
	e.Cycle(context.Background(), snapAt(97.5)) // exit fill settles

	closed := e.Closed()
	if len(closed) != 1 {
		t.Fatalf("closed=%d, expected 1", len(closed))
	}
	if closed[0].RealizedPnL != -1000 {
		t.Fatalf("RealizedPnL=%.2f, expected -1000 (risk-per-trade)", closed[0].RealizedPnL)
	}
	st := rm.Snapshot()
	if st.OpenTotal != 0 || st.RealizedPnL != -1000 {
		t.Fatalf("portfolio state %+v, expected released slot and booked loss", st)
	}
}

func TestTargetExit(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(100))
	e.Cycle(context.Background(), snapAt(106.5))
	e.Cycle(context.Background(), snapAt(106.5))

	closed := e.Closed()
	if len(closed) != 1 || closed[0].ExitReason != ExitTarget {
		t.Fatalf("got %+v, expected one TARGET close", closed)
	}
	if closed[0].RealizedPnL != 3000 { // (106-100) x 500
		t.Fatalf("RealizedPnL=%.2f, expected 3000", closed[0].RealizedPnL)
	}
}

// The trailing stop only tightens; a pullback never loosens it.
func TestTrailingStopMonotonic(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	sig := longSignal()
	sig.Trailing = true
	sig.TrailTrigger = 0.5 // arm at +3 of the 6-point target distance
	track(t, e, rm, sig)
	e.Cycle(context.Background(), snapAt(100))

	prices := []float64{101, 103, 104, 103.5, 105}
	expectStops := []float64{98, 101, 102, 102, 103} // stop distance 2 behind the high
	for i, last := range prices {
		e.Cycle(context.Background(), snapAt(last))
		open := e.Open()
		if len(open) != 1 {
			t.Fatalf("price %.1f: position gone", last)
		}
		if open[0].StopPrice != expectStops[i] {
			t.Fatalf("price %.1f: stop=%.2f, expected %.2f", last, open[0].StopPrice, expectStops[i])
		}
	}
}

func TestHaltForcesMarketExit(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(101))

	rm.Halt("operator")
	e.Cycle(context.Background(), snapAt(101))

	open := e.Open()
	if len(open) != 1 || open[0].State != StateClosing || open[0].ExitReason != ExitHalt {
		t.Fatalf("got %+v, expected CLOSING with HALT reason", open)
	}
}

func TestSquareOffWindowExit(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	clock := tradingClock(10, 0)
	e := NewEngine(sim, rm, nil, clock)

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(101))

	clock.Now = func() time.Time {
		return time.Date(2026, 8, 3, 15, 15, 0, 0, market.IST)
	}
	e.Cycle(context.Background(), snapAt(101))

	open := e.Open()
	if len(open) != 1 || open[0].ExitReason != ExitSessionEnd {
		t.Fatalf("got %+v, expected SESSION_END exit", open)
	}
}

func TestRejectedEntryReleasesReservation(t *testing.T) {
	sim := gateway.NewSim(0)
	sim.RejectNext = true
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(101))

	if n := len(e.Open()); n != 0 {
		t.Fatalf("open=%d, expected rejected entry to be retired", n)
	}
	if st := rm.Snapshot(); st.OpenTotal != 0 {
		t.Fatalf("OpenTotal=%d, expected released reservation", st.OpenTotal)
	}
	// the same signal may be admitted again
	if dec := rm.Admit(longSignal()); !dec.Admitted {
		t.Fatalf("re-admission rejected: %s", dec.Reason)
	}
}

// Status timeouts are retried a bounded number of cycles, then the position
// is flagged for manual review and left alone.
func TestTimeoutEscalatesToManualReview(t *testing.T) {
	sim := gateway.NewSim(0)
	sim.TimeoutNext = 100
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	for i := 0; i < DefaultStatusRetries; i++ {
		e.Cycle(context.Background(), snapAt(101))
	}

	open := e.Open()
	if len(open) != 1 || !open[0].ManualReview {
		t.Fatalf("got %+v, expected a manual-review flag", open)
	}
	if open[0].State != StatePendingEntry {
		t.Fatalf("State=%s, expected still PENDING_ENTRY", open[0].State)
	}

	// no further automated action: more cycles change nothing
	e.Cycle(context.Background(), snapAt(50))
	if got := e.Open()[0].State; got != StatePendingEntry {
		t.Fatalf("State=%s after extra cycle, expected untouched", got)
	}
}

// A rejected exit order puts the position back to Open with no exit
// residue; the next breach issues a fresh exit.
func TestRejectedExitRevertsToOpen(t *testing.T) {
	sim := gateway.NewSim(0)
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Cycle(context.Background(), snapAt(100)) // entry fills

	sim.RejectNext = true
	e.Cycle(context.Background(), snapAt(97.5)) // exit placed, simulator rejects it
	e.Cycle(context.Background(), snapAt(101))  // rejection observed, price back above stop

	open := e.Open()
	if len(open) != 1 || open[0].State != StateOpen {
		t.Fatalf("got %+v, expected one OPEN position", open)
	}
	if open[0].ExitReason != "" {
		t.Fatalf("ExitReason=%q, expected cleared on revert", open[0].ExitReason)
	}

	e.Cycle(context.Background(), snapAt(97.5)) // breach again, fresh exit
	open = e.Open()
	if len(open) != 1 || open[0].State != StateClosing || open[0].ExitReason != ExitStopLoss {
		t.Fatalf("got %+v, expected a fresh CLOSING with STOP_LOSS", open)
	}
}

func TestReconcileCancelsPendingEntries(t *testing.T) {
	sim := gateway.NewSim(0)
	sim.FillDelay = 100 // entry never fills during the test
	rm := testRiskManager(t)
	e := NewEngine(sim, rm, nil, tradingClock(10, 0))

	track(t, e, rm, longSignal())
	e.Reconcile(context.Background())

	if n := len(e.Open()); n != 0 {
		t.Fatalf("open=%d, expected pending entry canceled and retired", n)
	}
	if st := rm.Snapshot(); st.OpenTotal != 0 {
		t.Fatalf("OpenTotal=%d, expected released reservation", st.OpenTotal)
	}
}
