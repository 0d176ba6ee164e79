package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound marks a missing record.
var ErrNotFound = errors.New("record not found")

// Queries bundles the prepared statements of the session store.
type Queries struct {
	db *sql.DB
}

// InsertOrder persists a placed order.
func (q *Queries) InsertOrder(ctx context.Context, o Order) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO orders (id, client_id, symbol, side, order_type, qty, price, fill_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.ClientID, o.Symbol, o.Side, o.OrderType, o.Qty, o.Price, o.FillPrice, o.Status)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateOrderStatus records the terminal state of an order.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id, status string, fillPrice float64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, fill_price = ? WHERE id = ?
	`, status, fillPrice, id)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentOrders returns the latest orders, newest first.
func (q *Queries) RecentOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, client_id, symbol, side, order_type, qty, price, fill_price, status, created_at
		FROM orders ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ClientID, &o.Symbol, &o.Side, &o.OrderType,
			&o.Qty, &o.Price, &o.FillPrice, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// InsertSignal persists a generated signal.
func (q *Queries) InsertSignal(ctx context.Context, s SignalRow) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO signals (strategy_id, symbol, direction, confidence, entry_price, stop_price, target_price, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.StrategyID, s.Symbol, s.Direction, s.Confidence, s.EntryPrice, s.StopPrice, s.TargetPrice, s.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// RecentSignals returns the latest signals, newest first.
func (q *Queries) RecentSignals(ctx context.Context, limit int) ([]SignalRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, strategy_id, symbol, direction, confidence, entry_price, stop_price, target_price, generated_at
		FROM signals ORDER BY generated_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRow
	for rows.Next() {
		var s SignalRow
		if err := rows.Scan(&s.ID, &s.StrategyID, &s.Symbol, &s.Direction, &s.Confidence,
			&s.EntryPrice, &s.StopPrice, &s.TargetPrice, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertClosedPosition persists a fully closed position.
func (q *Queries) InsertClosedPosition(ctx context.Context, p ClosedPosition) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO closed_positions (id, strategy_id, symbol, sector, direction, qty,
			entry_price, exit_price, exit_reason, realized_pnl, entry_time, exit_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.StrategyID, p.Symbol, p.Sector, p.Direction, p.Qty,
		p.EntryPrice, p.ExitPrice, p.ExitReason, p.RealizedPnL, p.EntryTime, p.ExitTime)
	if err != nil {
		return fmt.Errorf("insert closed position: %w", err)
	}
	return nil
}

// ClosedPositions returns closed positions, most recent exits first.
func (q *Queries) ClosedPositions(ctx context.Context, limit int) ([]ClosedPosition, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, strategy_id, symbol, sector, direction, qty,
		       entry_price, exit_price, exit_reason, realized_pnl, entry_time, exit_time
		FROM closed_positions ORDER BY exit_time DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query closed positions: %w", err)
	}
	defer rows.Close()

	var out []ClosedPosition
	for rows.Next() {
		var p ClosedPosition
		if err := rows.Scan(&p.ID, &p.StrategyID, &p.Symbol, &p.Sector, &p.Direction, &p.Qty,
			&p.EntryPrice, &p.ExitPrice, &p.ExitReason, &p.RealizedPnL, &p.EntryTime, &p.ExitTime); err != nil {
			return nil, fmt.Errorf("scan closed position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertSessionMetric appends a metrics snapshot row.
func (q *Queries) InsertSessionMetric(ctx context.Context, m SessionMetric) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO session_metrics (cycles_completed, signals_generated, orders_placed, errors_count, realized_pnl, open_positions)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.CyclesCompleted, m.SignalsGenerated, m.OrdersPlaced, m.ErrorsCount, m.RealizedPnL, m.OpenPositions)
	if err != nil {
		return fmt.Errorf("insert session metric: %w", err)
	}
	return nil
}
