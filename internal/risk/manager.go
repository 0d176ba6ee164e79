package risk

import (
	"fmt"
	"log"
	"math"
	"sync"

	"intraday-core/internal/events"
	"intraday-core/internal/market"
	"intraday-core/internal/strategy"
)

// Manager is the admission gatekeeper: it decides whether a ranked signal
// may become a position under current exposure, caps and session limits,
// and computes position size. It is the single writer of PortfolioState.
type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	state PortfolioState
	bus   *events.Bus
}

func NewManager(cfg Config, bus *events.Bus) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg: cfg,
		bus: bus,
		state: PortfolioState{
			OpenPerStrategy: make(map[string]int),
			OpenPerSector:   make(map[market.Sector]int),
			OpenPairs:       make(map[string]bool),
		},
	}, nil
}

// pairKey identifies the (strategy, symbol) pair for the duplicate check.
func pairKey(strategyID, symbol string) string {
	return strategyID + ":" + symbol
}

// Admit evaluates the admission tests in order, short-circuiting on the
// first failure, then computes size. An admission atomically books counts
// and exposure; a rejection changes nothing.
func (m *Manager) Admit(sig strategy.Signal) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Halted {
		return m.reject(sig, ReasonTradingHalted)
	}
	if m.state.OpenPerStrategy[sig.StrategyID] >= m.strategyCap(sig.StrategyID) {
		return m.reject(sig, ReasonStrategyCapReached)
	}
	if m.state.OpenTotal >= m.cfg.MaxTotal {
		return m.reject(sig, ReasonPortfolioCapReached)
	}
	if m.state.OpenPerSector[sig.Sector] >= m.cfg.MaxPerSector {
		return m.reject(sig, ReasonSectorCapReached)
	}
	if m.state.OpenPairs[pairKey(sig.StrategyID, sig.Symbol)] {
		return m.reject(sig, ReasonDuplicatePosition)
	}

	qty := m.positionSize(sig)
	if qty <= 0 {
		return m.reject(sig, ReasonSizeTooSmall)
	}

	res := Reservation{
		StrategyID: sig.StrategyID,
		Symbol:     sig.Symbol,
		Sector:     sig.Sector,
		Exposure:   sig.EntryPrice * float64(qty),
	}
	m.state.OpenTotal++
	m.state.OpenPerStrategy[res.StrategyID]++
	m.state.OpenPerSector[res.Sector]++
	m.state.OpenPairs[pairKey(res.StrategyID, res.Symbol)] = true
	m.state.Exposure += res.Exposure

	log.Printf("risk: admitted %s %s %s qty=%d conf=%.2f",
		sig.StrategyID, sig.Direction, sig.Symbol, qty, sig.Confidence)
	return Decision{Admitted: true, Qty: qty, Reservation: res}
}

func (m *Manager) reject(sig strategy.Signal, reason RejectReason) Decision {
	log.Printf("risk: rejected %s %s: %s", sig.StrategyID, sig.Symbol, reason)
	if m.bus != nil {
		m.bus.Publish(events.EventSignalRejected, fmt.Sprintf("%s %s: %s", sig.StrategyID, sig.Symbol, reason))
	}
	return Decision{Reason: reason}
}

// positionSize divides the risk-per-trade amount by the stop distance and
// rounds down to a whole lot.
func (m *Manager) positionSize(sig strategy.Signal) int64 {
	stopDistance := math.Abs(sig.EntryPrice - sig.StopPrice)
	if stopDistance <= 0 {
		return 0
	}
	riskAmount := m.cfg.PortfolioValue * m.cfg.RiskPerTrade
	qty := int64(riskAmount / stopDistance)
	return qty - qty%m.cfg.LotSize
}

func (m *Manager) strategyCap(id string) int {
	if limit, ok := m.cfg.StrategyCaps[id]; ok {
		return limit
	}
	return m.cfg.DefaultCap
}

// Release undoes a reservation whose entry never filled (brokerage
// rejection or cancel during shutdown).
func (m *Manager) Release(res Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(res)
}

func (m *Manager) releaseLocked(res Reservation) {
	key := pairKey(res.StrategyID, res.Symbol)
	if !m.state.OpenPairs[key] {
		return // already released
	}
	m.state.OpenTotal--
	m.state.OpenPerStrategy[res.StrategyID]--
	m.state.OpenPerSector[res.Sector]--
	delete(m.state.OpenPairs, key)
	m.state.Exposure -= res.Exposure
}

// RecordClose releases the reservation of a fully closed position, applies
// its realized PnL, and checks the drawdown / profit-target thresholds.
func (m *Manager) RecordClose(res Reservation, pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked(res)
	m.state.RealizedPnL += pnl
	if m.state.RealizedPnL > m.state.HighWaterMark {
		m.state.HighWaterMark = m.state.RealizedPnL
	}

	if m.state.Halted {
		return
	}
	drawdown := m.state.HighWaterMark - m.state.RealizedPnL
	ddLimit := m.cfg.PortfolioValue * m.cfg.DrawdownPct / 100
	targetLimit := m.cfg.PortfolioValue * m.cfg.ProfitTargetPct / 100
	switch {
	case drawdown >= ddLimit:
		m.haltLocked(fmt.Sprintf("drawdown %.2f reached limit %.2f", drawdown, ddLimit))
	case m.state.RealizedPnL >= targetLimit:
		m.haltLocked(fmt.Sprintf("profit target reached: pnl %.2f >= %.2f", m.state.RealizedPnL, targetLimit))
	}
}

// Halt stops new admissions. Existing positions are still managed to
// closure by the position engine.
func (m *Manager) Halt(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.haltLocked(reason)
}

func (m *Manager) haltLocked(reason string) {
	if m.state.Halted {
		return
	}
	m.state.Halted = true
	m.state.HaltReason = reason
	log.Printf("risk: trading halted: %s", reason)
	if m.bus != nil {
		m.bus.Publish(events.EventSessionHalted, reason)
	}
}

// Resume lifts an operator or threshold halt.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Halted {
		return
	}
	m.state.Halted = false
	m.state.HaltReason = ""
	log.Println("risk: trading resumed")
	if m.bus != nil {
		m.bus.Publish(events.EventSessionResumed, nil)
	}
}

// Halted reports whether the session is in the halted state.
func (m *Manager) Halted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Halted
}

// Snapshot returns a copy of portfolio state for readers.
func (m *Manager) Snapshot() PortfolioState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.state
	out.OpenPerStrategy = make(map[string]int, len(m.state.OpenPerStrategy))
	for k, v := range m.state.OpenPerStrategy {
		out.OpenPerStrategy[k] = v
	}
	out.OpenPerSector = make(map[market.Sector]int, len(m.state.OpenPerSector))
	for k, v := range m.state.OpenPerSector {
		out.OpenPerSector[k] = v
	}
	out.OpenPairs = nil
	return out
}
