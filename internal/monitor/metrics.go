// Package monitor tracks runtime health of the evaluation loop.
package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SystemMetrics aggregates counters and latency windows for the session.
type SystemMetrics struct {
	CycleLatency    *LatencyWindow
	StrategyLatency *LatencyWindow
	OrderLatency    *LatencyWindow

	cyclesCompleted  atomic.Uint64
	cycleOverruns    atomic.Uint64
	signalsGenerated atomic.Uint64
	ordersPlaced     atomic.Uint64
	errorsCount      atomic.Uint64

	started time.Time
}

func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{
		CycleLatency:    NewLatencyWindow(500),
		StrategyLatency: NewLatencyWindow(500),
		OrderLatency:    NewLatencyWindow(500),
		started:         time.Now(),
	}
}

func (m *SystemMetrics) IncrementCycles()   { m.cyclesCompleted.Add(1) }
func (m *SystemMetrics) IncrementOverruns() { m.cycleOverruns.Add(1) }
func (m *SystemMetrics) IncrementOrders()   { m.ordersPlaced.Add(1) }
func (m *SystemMetrics) IncrementErrors()   { m.errorsCount.Add(1) }
func (m *SystemMetrics) AddSignals(n int)   { m.signalsGenerated.Add(uint64(n)) }

// LatencyWindow keeps a sliding window of duration samples in milliseconds.
type LatencyWindow struct {
	mu      sync.Mutex
	samples []float64
	maxSize int
}

func NewLatencyWindow(size int) *LatencyWindow {
	if size <= 0 {
		size = 500
	}
	return &LatencyWindow{samples: make([]float64, 0, size), maxSize: size}
}

// Record adds one sample, evicting the oldest when the window is full.
func (w *LatencyWindow) Record(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) >= w.maxSize {
		w.samples = w.samples[1:]
	}
	w.samples = append(w.samples, float64(d.Nanoseconds())/1e6)
}

// LatencyStats summarizes a window.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P95   float64 `json:"p95"`
	Count int     `json:"count"`
}

// Stats computes summary statistics over the current window.
func (w *LatencyWindow) Stats() LatencyStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.samples)
	if n == 0 {
		return LatencyStats{}
	}
	sorted := make([]float64, n)
	copy(sorted, w.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return LatencyStats{
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P95:   sorted[int(float64(n)*0.95)],
		Count: n,
	}
}

// Snapshot is a point-in-time view served by the API.
type Snapshot struct {
	CycleLatency     LatencyStats  `json:"cycle_latency_ms"`
	StrategyLatency  LatencyStats  `json:"strategy_latency_ms"`
	OrderLatency     LatencyStats  `json:"order_latency_ms"`
	CyclesCompleted  uint64        `json:"cycles_completed"`
	CycleOverruns    uint64        `json:"cycle_overruns"`
	SignalsGenerated uint64        `json:"signals_generated"`
	OrdersPlaced     uint64        `json:"orders_placed"`
	ErrorsCount      uint64        `json:"errors_count"`
	Uptime           time.Duration `json:"uptime_ns"`
	GoroutineCount   int           `json:"goroutine_count"`
	HeapAlloc        uint64        `json:"heap_alloc_bytes"`
	Timestamp        time.Time     `json:"timestamp"`
}

// GetSnapshot returns current metrics.
func (m *SystemMetrics) GetSnapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		CycleLatency:     m.CycleLatency.Stats(),
		StrategyLatency:  m.StrategyLatency.Stats(),
		OrderLatency:     m.OrderLatency.Stats(),
		CyclesCompleted:  m.cyclesCompleted.Load(),
		CycleOverruns:    m.cycleOverruns.Load(),
		SignalsGenerated: m.signalsGenerated.Load(),
		OrdersPlaced:     m.ordersPlaced.Load(),
		ErrorsCount:      m.errorsCount.Load(),
		Uptime:           time.Since(m.started),
		GoroutineCount:   runtime.NumGoroutine(),
		HeapAlloc:        mem.HeapAlloc,
		Timestamp:        time.Now(),
	}
}
