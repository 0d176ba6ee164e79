package db

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testDB(t *testing.T) *Queries {
	t.Helper()
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	return database.Queries()
}

func TestOrderRoundTrip(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	o := Order{
		ID: "o-1", ClientID: "c-1", Symbol: "INFY", Side: "BUY",
		OrderType: "MARKET", Qty: 500, Price: 100, Status: "PENDING",
	}
	if err := q.InsertOrder(ctx, o); err != nil {
		t.Fatalf("InsertOrder: %v", err)
	}
	if err := q.UpdateOrderStatus(ctx, "o-1", "FILLED", 100.5); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	orders, err := q.RecentOrders(ctx, 10)
	if err != nil {
		t.Fatalf("RecentOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != "FILLED" || orders[0].FillPrice != 100.5 {
		t.Fatalf("got %+v, expected one FILLED order at 100.5", orders)
	}
}

func TestUpdateUnknownOrderReturnsNotFound(t *testing.T) {
	q := testDB(t)
	if err := q.UpdateOrderStatus(context.Background(), "missing", "FILLED", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, expected ErrNotFound", err)
	}
}

func TestSignalsOrderedNewestFirst(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

	for i, sym := range []string{"INFY", "ITC", "SBIN"} {
		err := q.InsertSignal(ctx, SignalRow{
			StrategyID: "gap", Symbol: sym, Direction: "SHORT", Confidence: 0.8,
			EntryPrice: 100, StopPrice: 101, TargetPrice: 98,
			GeneratedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertSignal %s: %v", sym, err)
		}
	}

	sigs, err := q.RecentSignals(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(sigs) != 2 || sigs[0].Symbol != "SBIN" || sigs[1].Symbol != "ITC" {
		t.Fatalf("got %+v, expected SBIN then ITC", sigs)
	}
}

func TestClosedPositionRoundTrip(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	p := ClosedPosition{
		ID: "p-1", StrategyID: "brk", Symbol: "INFY", Sector: "IT",
		Direction: "LONG", Qty: 500, EntryPrice: 100, ExitPrice: 98,
		ExitReason: "STOP_LOSS", RealizedPnL: -1000,
		EntryTime: time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
		ExitTime:  time.Date(2026, 8, 3, 11, 0, 0, 0, time.UTC),
	}
	if err := q.InsertClosedPosition(ctx, p); err != nil {
		t.Fatalf("InsertClosedPosition: %v", err)
	}

	closed, err := q.ClosedPositions(ctx, 10)
	if err != nil {
		t.Fatalf("ClosedPositions: %v", err)
	}
	if len(closed) != 1 || closed[0].RealizedPnL != -1000 || closed[0].ExitReason != "STOP_LOSS" {
		t.Fatalf("got %+v, expected the stop-loss close", closed)
	}
}

func TestInsertSessionMetric(t *testing.T) {
	q := testDB(t)
	m := SessionMetric{CyclesCompleted: 10, SignalsGenerated: 3, OrdersPlaced: 2, RealizedPnL: 150, OpenPositions: 1}
	if err := q.InsertSessionMetric(context.Background(), m); err != nil {
		t.Fatalf("InsertSessionMetric: %v", err)
	}
}
