package position

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/google/uuid"

	"intraday-core/internal/events"
	"intraday-core/internal/gateway"
	"intraday-core/internal/market"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
)

// DefaultStatusRetries bounds how many consecutive cycles a status query may
// time out before the position is flagged for manual review.
const DefaultStatusRetries = 3

// Engine owns all positions, keyed by (strategy, symbol). All mutation
// happens on the scheduler's cycle goroutine; the mutex protects the
// read-only accessors used by the API layer.
type Engine struct {
	gw      gateway.Gateway
	risk    *risk.Manager
	bus     *events.Bus
	clock   *market.Clock
	retries int

	mu        sync.RWMutex
	positions map[string]*Position
	closed    []*Position
}

// NewEngine creates a position engine. bus may be nil in tests.
func NewEngine(gw gateway.Gateway, rm *risk.Manager, bus *events.Bus, clock *market.Clock) *Engine {
	return &Engine{
		gw:        gw,
		risk:      rm,
		bus:       bus,
		clock:     clock,
		retries:   DefaultStatusRetries,
		positions: make(map[string]*Position),
	}
}

// Track converts an admitted signal into a PendingEntry position and places
// the entry order. The reservation travels with the position so a failed
// entry releases exactly what admission booked.
func (e *Engine) Track(ctx context.Context, sig strategy.Signal, dec risk.Decision) error {
	p := &Position{
		ID:           uuid.NewString(),
		StrategyID:   sig.StrategyID,
		Symbol:       sig.Symbol,
		Sector:       sig.Sector,
		Direction:    sig.Direction,
		Qty:          dec.Qty,
		EntryPrice:   sig.EntryPrice,
		StopPrice:    sig.StopPrice,
		TargetPrice:  sig.TargetPrice,
		State:        StatePendingEntry,
		EntryTime:    e.clock.NowIST(),
		Trailing:     sig.Trailing,
		TrailTrigger: sig.TrailTrigger,
		reservation:  dec.Reservation,
		stopDistance: math.Abs(sig.EntryPrice - sig.StopPrice),
	}

	req := gateway.OrderRequest{
		ClientID: p.ID,
		Symbol:   p.Symbol,
		Side:     p.entrySide(),
		Type:     gateway.OrderTypeMarket,
		Qty:      p.Qty,
		Price:    sig.EntryPrice,
	}
	h, err := e.gw.PlaceOrder(ctx, req)
	if err != nil {
		e.risk.Release(p.reservation)
		return fmt.Errorf("engine: entry order for %s: %w", p.Symbol, err)
	}
	p.entryOrder = h
	if e.bus != nil {
		e.bus.Publish(events.EventOrderPlaced, OrderEvent{Handle: h, Request: req, State: gateway.StatePending})
	}

	e.mu.Lock()
	e.positions[p.Key()] = p
	e.mu.Unlock()
	log.Printf("engine: tracking %s %s %s qty=%d entry~%.2f stop=%.2f target=%.2f",
		p.StrategyID, p.Direction, p.Symbol, p.Qty, p.EntryPrice, p.StopPrice, p.TargetPrice)
	return nil
}

// Cycle runs one position pass: reconcile outstanding orders, ratchet
// trailing stops, then evaluate exits for every Open position. snaps holds
// this cycle's snapshots keyed by ticker; positions whose symbol has no
// fresh snapshot skip exit evaluation this cycle.
func (e *Engine) Cycle(ctx context.Context, snaps map[string]market.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	halted := e.risk.Halted()
	squareOff := e.clock.IsSquareOffTime() || !e.clock.IsTradingTime()

	for key, p := range e.positions {
		if p.ManualReview {
			continue
		}
		switch p.State {
		case StatePendingEntry, StateClosing:
			e.pollOrder(ctx, p)
		}
		if p.State != StateOpen {
			if p.State == StateClosed || p.State == StateRejected {
				e.retire(key, p)
			}
			continue
		}

		snap, ok := snaps[p.Symbol]
		if !ok || !snap.Valid() {
			continue
		}
		p.UnrealizedPnL = p.pnlAt(snap.LastPrice)
		if p.Trailing {
			e.ratchet(p, snap.LastPrice)
		}

		reason, price, exits := exitCondition(p, snap.LastPrice, squareOff, halted)
		if exits {
			e.close(ctx, p, reason, price)
		}
	}
}

// pollOrder queries the gateway for an outstanding order and applies the
// resulting transition. Timeouts count against the retry budget; exhaustion
// flags manual review rather than dropping the position.
func (e *Engine) pollOrder(ctx context.Context, p *Position) {
	h := p.entryOrder
	if p.State == StateClosing {
		h = p.exitOrder
	}

	st, err := e.gw.OrderStatus(ctx, h)
	if err != nil {
		if errors.Is(err, gateway.ErrExecutionTimeout) {
			p.retries++
			if p.retries >= e.retries {
				p.ManualReview = true
				log.Printf("engine: %s %s status unknown after %d retries, flagged for manual review",
					p.State, p.Symbol, p.retries)
				if e.bus != nil {
					e.bus.Publish(events.EventManualReview, *p)
				}
			}
			return
		}
		log.Printf("engine: status query for %s failed: %v", p.Symbol, err)
		return
	}
	p.retries = 0
	if st.State != gateway.StatePending && e.bus != nil {
		e.bus.Publish(events.EventOrderSettled, OrderEvent{Handle: h, State: st.State, FillPrice: st.FillPrice})
	}

	switch st.State {
	case gateway.StatePending:
		// keep polling next cycle
	case gateway.StateFilled:
		if p.State == StatePendingEntry {
			p.EntryPrice = st.FillPrice
			p.stopDistance = math.Abs(p.EntryPrice - p.StopPrice)
			p.State = StateOpen
			log.Printf("engine: %s %s opened at %.2f", p.StrategyID, p.Symbol, p.EntryPrice)
			if e.bus != nil {
				e.bus.Publish(events.EventPositionOpened, *p)
			}
		} else {
			e.settle(p, st.FillPrice)
		}
	case gateway.StateRejected, gateway.StateCanceled:
		if p.State == StatePendingEntry {
			p.State = StateRejected
			e.risk.Release(p.reservation)
			log.Printf("engine: entry for %s %s rejected: %s", p.StrategyID, p.Symbol, st.Reason)
		} else {
			// Exit refused; the position is still live. Revert to Open and
			// let the next cycle issue a fresh exit.
			p.State = StateOpen
			p.ExitReason = ""
			log.Printf("engine: exit for %s %s rejected (%s), will retry", p.StrategyID, p.Symbol, st.Reason)
		}
	}
}

// ratchet tightens a trailing stop once unrealized profit exceeds
// TrailTrigger of the entry-to-target distance. The stop only ever moves in
// the protective direction.
func (e *Engine) ratchet(p *Position, last float64) {
	sign := p.Direction.Sign()
	profit := (last - p.EntryPrice) * sign
	targetDistance := math.Abs(p.TargetPrice - p.EntryPrice)
	if targetDistance <= 0 || profit < p.TrailTrigger*targetDistance {
		return
	}

	candidate := last - sign*p.stopDistance
	if sign > 0 && candidate > p.StopPrice {
		p.StopPrice = candidate
	} else if sign < 0 && candidate < p.StopPrice {
		p.StopPrice = candidate
	}
}

// exitCondition evaluates the exit rules in fixed priority. First match
// wins; at most one exit per position per cycle.
func exitCondition(p *Position, last float64, squareOff, halted bool) (ExitReason, float64, bool) {
	sign := p.Direction.Sign()
	switch {
	case (last-p.StopPrice)*sign <= 0:
		return ExitStopLoss, p.StopPrice, true
	case (last-p.TargetPrice)*sign >= 0:
		return ExitTarget, p.TargetPrice, true
	case squareOff:
		return ExitSessionEnd, last, true
	case halted:
		return ExitHalt, last, true
	}
	return "", 0, false
}

// close issues the exit order and moves the position to Closing.
func (e *Engine) close(ctx context.Context, p *Position, reason ExitReason, refPrice float64) {
	req := gateway.OrderRequest{
		ClientID: uuid.NewString(),
		Symbol:   p.Symbol,
		Side:     p.exitSide(),
		Type:     gateway.OrderTypeMarket,
		Qty:      p.Qty,
		Price:    refPrice,
	}
	h, err := e.gw.PlaceOrder(ctx, req)
	if err != nil {
		log.Printf("engine: exit order for %s failed: %v, will retry", p.Symbol, err)
		return
	}
	p.exitOrder = h
	if e.bus != nil {
		e.bus.Publish(events.EventOrderPlaced, OrderEvent{Handle: h, Request: req, State: gateway.StatePending})
	}
	p.ExitReason = reason
	p.State = StateClosing
	log.Printf("engine: closing %s %s (%s) ref=%.2f", p.StrategyID, p.Symbol, reason, refPrice)
}

// settle finalizes a filled exit: computes realized PnL, notifies the risk
// manager and publishes the close.
func (e *Engine) settle(p *Position, fill float64) {
	p.ExitPrice = fill
	p.ExitTime = e.clock.NowIST()
	p.RealizedPnL = p.pnlAt(fill)
	p.UnrealizedPnL = 0
	p.State = StateClosed
	e.risk.RecordClose(p.reservation, p.RealizedPnL)
	log.Printf("engine: %s %s closed (%s) at %.2f pnl=%.2f",
		p.StrategyID, p.Symbol, p.ExitReason, fill, p.RealizedPnL)
	if e.bus != nil {
		e.bus.Publish(events.EventPositionClosed, *p)
	}
}

// retire moves a terminal position out of the live map.
func (e *Engine) retire(key string, p *Position) {
	delete(e.positions, key)
	if p.State == StateClosed {
		e.closed = append(e.closed, p)
	}
}

// Reconcile settles outstanding brokerage state before shutdown: pending
// entries are canceled and released, closing orders polled once more. It
// never leaves a PendingEntry or Closing position without an attempt to
// learn its true state.
func (e *Engine) Reconcile(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for key, p := range e.positions {
		switch p.State {
		case StatePendingEntry:
			if err := e.gw.CancelOrder(ctx, p.entryOrder); err != nil {
				log.Printf("engine: cancel entry for %s failed: %v", p.Symbol, err)
			}
			st, err := e.gw.OrderStatus(ctx, p.entryOrder)
			if err == nil && st.State == gateway.StateFilled {
				// filled before the cancel landed; it is now an open position
				// the operator must flatten by hand
				p.EntryPrice = st.FillPrice
				p.State = StateOpen
				p.ManualReview = true
				log.Printf("engine: %s filled during shutdown, flagged for manual review", p.Symbol)
				continue
			}
			p.State = StateRejected
			e.risk.Release(p.reservation)
			e.retire(key, p)
		case StateClosing:
			st, err := e.gw.OrderStatus(ctx, p.exitOrder)
			if err == nil && st.State == gateway.StateFilled {
				e.settle(p, st.FillPrice)
				e.retire(key, p)
				continue
			}
			p.ManualReview = true
			log.Printf("engine: %s exit unresolved at shutdown, flagged for manual review", p.Symbol)
		}
	}
}

// Open returns copies of all live positions.
func (e *Engine) Open() []Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, *p)
	}
	return out
}

// Closed returns copies of this session's closed positions.
func (e *Engine) Closed() []Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Position, len(e.closed))
	for i, p := range e.closed {
		out[i] = *p
	}
	return out
}

// Outstanding counts positions awaiting brokerage confirmation.
func (e *Engine) Outstanding() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var n int
	for _, p := range e.positions {
		if p.State == StatePendingEntry || p.State == StateClosing {
			n++
		}
	}
	return n
}
