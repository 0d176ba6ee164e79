package fyers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"intraday-core/internal/gateway"
)

// OrderGateway implements gateway.Gateway against the Fyers order
// endpoints. Intraday product type only; positions are squared off the same
// session.
type OrderGateway struct {
	client *Client
}

func NewOrderGateway(client *Client) *OrderGateway {
	return &OrderGateway{client: client}
}

func sideCode(s gateway.Side) int {
	if s == gateway.SideSell {
		return -1
	}
	return 1
}

func typeCode(t gateway.OrderType) int {
	if t == gateway.OrderTypeLimit {
		return 1
	}
	return 2
}

// PlaceOrder submits an intraday order.
func (g *OrderGateway) PlaceOrder(ctx context.Context, req gateway.OrderRequest) (gateway.OrderHandle, error) {
	body := orderRequest{
		Symbol:      exchangeSymbol(req.Symbol),
		Qty:         req.Qty,
		Type:        typeCode(req.Type),
		Side:        sideCode(req.Side),
		ProductType: "INTRADAY",
		Validity:    "DAY",
	}
	if req.Type == gateway.OrderTypeLimit {
		body.LimitPrice = req.Price
	}

	var resp orderResponse
	if err := g.client.doJSON(ctx, http.MethodPost, "/orders/sync", body, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return gateway.OrderHandle{}, fmt.Errorf("place %s %s: %w", req.Side, req.Symbol, gateway.ErrExecutionTimeout)
		}
		return gateway.OrderHandle{}, err
	}
	if resp.S != "ok" || resp.ID == "" {
		return gateway.OrderHandle{}, fmt.Errorf("place %s %s: %s: %w",
			req.Side, req.Symbol, resp.Message, gateway.ErrExecutionRejected)
	}
	return gateway.OrderHandle{ID: resp.ID, ClientID: req.ClientID, PlacedAt: time.Now()}, nil
}

// OrderStatus queries the order book for one order. Idempotent.
func (g *OrderGateway) OrderStatus(ctx context.Context, h gateway.OrderHandle) (gateway.OrderStatus, error) {
	var resp orderBookResponse
	path := "/orders?id=" + url.QueryEscape(h.ID)
	if err := g.client.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return gateway.OrderStatus{}, fmt.Errorf("status of %s: %w", h.ID, gateway.ErrExecutionTimeout)
		}
		return gateway.OrderStatus{}, err
	}
	if resp.S != "ok" || len(resp.OrderBook) == 0 {
		return gateway.OrderStatus{}, fmt.Errorf("status of %s: not in order book: %w", h.ID, gateway.ErrExecutionTimeout)
	}

	entry := resp.OrderBook[0]
	switch entry.Status {
	case statusFilled:
		return gateway.OrderStatus{State: gateway.StateFilled, FillPrice: entry.TradedPrice}, nil
	case statusRejected:
		return gateway.OrderStatus{State: gateway.StateRejected, Reason: entry.Message}, nil
	case statusCanceled:
		return gateway.OrderStatus{State: gateway.StateCanceled}, nil
	default:
		return gateway.OrderStatus{State: gateway.StatePending}, nil
	}
}

// CancelOrder cancels a pending order. Canceling an already filled order is
// not an error; the next status query reports the fill.
func (g *OrderGateway) CancelOrder(ctx context.Context, h gateway.OrderHandle) error {
	var resp apiResponse
	if err := g.client.doJSON(ctx, http.MethodDelete, "/orders/sync", cancelRequest{ID: h.ID}, &resp); err != nil {
		return err
	}
	if resp.S != "ok" {
		return fmt.Errorf("cancel %s: %s", h.ID, resp.Message)
	}
	return nil
}
