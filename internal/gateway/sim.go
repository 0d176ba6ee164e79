package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sim is an in-process gateway for dry runs. Market orders fill at the
// request's reference price shifted by SlippageBps after FillDelay polls.
// Status queries are idempotent; fills and rejections stick.
type Sim struct {
	SlippageBps float64
	FillDelay   int // number of status polls before a fill is reported

	// test/chaos hooks
	RejectNext  bool   // reject the next placed order
	TimeoutNext int    // report timeout for the next N status queries
	RejectWith  string // rejection reason when RejectNext fires

	mu     sync.Mutex
	orders map[string]*simOrder
}

type simOrder struct {
	req     OrderRequest
	status  OrderStatus
	polls   int
	created time.Time
}

func NewSim(slippageBps float64) *Sim {
	return &Sim{
		SlippageBps: slippageBps,
		orders:      make(map[string]*simOrder),
	}
}

func (s *Sim) PlaceOrder(ctx context.Context, req OrderRequest) (OrderHandle, error) {
	if req.Qty <= 0 {
		return OrderHandle{}, fmt.Errorf("sim gateway: non-positive qty %d: %w", req.Qty, ErrExecutionRejected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := OrderHandle{
		ID:       uuid.NewString(),
		ClientID: req.ClientID,
		PlacedAt: time.Now(),
	}

	if s.RejectNext {
		s.RejectNext = false
		reason := s.RejectWith
		if reason == "" {
			reason = "rejected by simulator"
		}
		s.orders[h.ID] = &simOrder{req: req, status: OrderStatus{State: StateRejected, Reason: reason}, created: h.PlacedAt}
		return h, nil
	}

	s.orders[h.ID] = &simOrder{req: req, status: OrderStatus{State: StatePending}, created: h.PlacedAt}
	log.Printf("sim gateway: accepted %s %s qty=%d ref=%.2f", req.Side, req.Symbol, req.Qty, req.Price)
	return h, nil
}

func (s *Sim) OrderStatus(ctx context.Context, h OrderHandle) (OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.TimeoutNext > 0 {
		s.TimeoutNext--
		return OrderStatus{}, ErrExecutionTimeout
	}

	o, ok := s.orders[h.ID]
	if !ok {
		return OrderStatus{}, fmt.Errorf("sim gateway: unknown order %s", h.ID)
	}
	if o.status.State != StatePending {
		return o.status, nil
	}

	o.polls++
	if o.polls > s.FillDelay {
		price := o.req.Price
		slip := price * s.SlippageBps / 10000
		if o.req.Side == SideBuy {
			price += slip
		} else {
			price -= slip
		}
		o.status = OrderStatus{State: StateFilled, FillPrice: price}
	}
	return o.status, nil
}

func (s *Sim) CancelOrder(ctx context.Context, h OrderHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[h.ID]
	if !ok {
		return fmt.Errorf("sim gateway: unknown order %s", h.ID)
	}
	if o.status.State == StatePending {
		o.status = OrderStatus{State: StateCanceled}
	}
	return nil
}
