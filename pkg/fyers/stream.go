package fyers

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Tick is the latest traded price seen on the stream for a symbol.
type Tick struct {
	Price  float64
	Volume int64
	At     time.Time
}

// Stream maintains a websocket connection to the broker's quote feed and
// caches the last tick per symbol. The REST quote provider layers this
// cache over its polled snapshots for fresher last-traded prices.
type Stream struct {
	url         string
	appID       string
	accessToken string
	tickers     []string

	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewStream(url, appID, accessToken string, tickers []string) *Stream {
	return &Stream{
		url:         url,
		appID:       appID,
		accessToken: accessToken,
		tickers:     tickers,
		ticks:       make(map[string]Tick),
	}
}

// Last returns the most recent tick for a ticker, if any.
func (s *Stream) Last(ticker string) (Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[ticker]
	return t, ok
}

// Run connects and consumes the feed until ctx is canceled, reconnecting
// with backoff on failures. The stream is best-effort: the REST poll is the
// source of truth each cycle.
func (s *Stream) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := s.connectAndRead(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("fyers stream: %v, reconnecting in %s", err, backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

type streamTick struct {
	Symbol string  `json:"symbol"`
	LTP    float64 `json:"ltp"`
	Volume int64   `json:"vol_traded_today"`
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	header := map[string][]string{
		"Authorization": {s.appID + ":" + s.accessToken},
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := map[string]any{
		"T":       "SUB_DATA",
		"symbols": make([]string, 0, len(s.tickers)),
	}
	symbols := sub["symbols"].([]string)
	for _, t := range s.tickers {
		symbols = append(symbols, exchangeSymbol(t))
	}
	sub["symbols"] = symbols
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	log.Printf("fyers stream: subscribed to %d symbols", len(symbols))

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var tick streamTick
		if err := json.Unmarshal(msg, &tick); err != nil || tick.Symbol == "" {
			continue
		}
		s.mu.Lock()
		s.ticks[tickerFromExchange(tick.Symbol)] = Tick{
			Price:  tick.LTP,
			Volume: tick.Volume,
			At:     time.Now(),
		}
		s.mu.Unlock()
	}
}
