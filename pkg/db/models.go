package db

import "time"

// Order is a persisted order row.
type Order struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	OrderType string    `json:"order_type"`
	Qty       int64     `json:"qty"`
	Price     float64   `json:"price"`
	FillPrice float64   `json:"fill_price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SignalRow is a persisted signal row.
type SignalRow struct {
	ID          int64     `json:"id"`
	StrategyID  string    `json:"strategy_id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"`
	Confidence  float64   `json:"confidence"`
	EntryPrice  float64   `json:"entry_price"`
	StopPrice   float64   `json:"stop_price"`
	TargetPrice float64   `json:"target_price"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ClosedPosition is a persisted closed-position row.
type ClosedPosition struct {
	ID          string    `json:"id"`
	StrategyID  string    `json:"strategy_id"`
	Symbol      string    `json:"symbol"`
	Sector      string    `json:"sector"`
	Direction   string    `json:"direction"`
	Qty         int64     `json:"qty"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	ExitReason  string    `json:"exit_reason"`
	RealizedPnL float64   `json:"realized_pnl"`
	EntryTime   time.Time `json:"entry_time"`
	ExitTime    time.Time `json:"exit_time"`
}

// SessionMetric is a periodic snapshot of session counters.
type SessionMetric struct {
	ID               int64     `json:"id"`
	CyclesCompleted  uint64    `json:"cycles_completed"`
	SignalsGenerated uint64    `json:"signals_generated"`
	OrdersPlaced     uint64    `json:"orders_placed"`
	ErrorsCount      uint64    `json:"errors_count"`
	RealizedPnL      float64   `json:"realized_pnl"`
	OpenPositions    int       `json:"open_positions"`
	RecordedAt       time.Time `json:"recorded_at"`
}
