package fyers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"intraday-core/internal/market"
)

// historyBars is the per-symbol ring of one-cycle bars synthesized from
// successive quote fetches.
const historyBars = 60

// QuoteProvider implements market.Provider on the Fyers quotes endpoint.
// Each cycle's quote also appends a bar to the symbol's rolling history so
// strategies get a volume baseline without a separate history call.
type QuoteProvider struct {
	client *Client
	stream *Stream // optional; fresher last-traded prices when connected

	mu      sync.Mutex
	history map[string][]market.Bar
	prevVol map[string]int64
}

func NewQuoteProvider(client *Client, stream *Stream) *QuoteProvider {
	return &QuoteProvider{
		client:  client,
		stream:  stream,
		history: make(map[string][]market.Bar),
		prevVol: make(map[string]int64),
	}
}

// exchangeSymbol maps a ticker to the broker's symbol format.
func exchangeSymbol(ticker string) string {
	return "NSE:" + ticker + "-EQ"
}

func tickerFromExchange(sym string) string {
	sym = strings.TrimPrefix(sym, "NSE:")
	return strings.TrimSuffix(sym, "-EQ")
}

// Snapshots fetches quotes for all symbols in one batched request.
func (p *QuoteProvider) Snapshots(ctx context.Context, symbols []market.Symbol) map[string]market.Result {
	out := make(map[string]market.Result, len(symbols))
	bySymbol := make(map[string]market.Symbol, len(symbols))

	exchange := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		exchange = append(exchange, exchangeSymbol(sym.Ticker))
		bySymbol[sym.Ticker] = sym
	}

	var resp quotesResponse
	path := "/data/quotes?symbols=" + url.QueryEscape(strings.Join(exchange, ","))
	if err := p.client.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		for _, sym := range symbols {
			out[sym.Ticker] = market.Result{Err: fmt.Errorf("%w: %v", market.ErrDataUnavailable, err)}
		}
		return out
	}

	for _, entry := range resp.D {
		ticker := tickerFromExchange(entry.N)
		sym, known := bySymbol[ticker]
		if !known {
			continue
		}
		if entry.S != "ok" {
			out[ticker] = market.Result{Err: market.ErrDataUnavailable}
			continue
		}
		out[ticker] = market.Result{Snapshot: p.toSnapshot(sym, entry.V)}
	}
	return out
}

// toSnapshot converts a quote to a market snapshot, layering in the stream
// cache and the synthesized bar history.
func (p *QuoteProvider) toSnapshot(sym market.Symbol, v quoteValue) market.Snapshot {
	last := v.LastPrice
	if p.stream != nil {
		if tick, ok := p.stream.Last(sym.Ticker); ok && !tick.At.IsZero() {
			last = tick.Price
		}
	}
	ts := time.Unix(v.TimeUnix, 0)
	if v.TimeUnix == 0 {
		ts = time.Now()
	}

	p.mu.Lock()
	barVol := v.Volume - p.prevVol[sym.Ticker]
	if barVol < 0 || p.prevVol[sym.Ticker] == 0 {
		barVol = v.Volume
	}
	p.prevVol[sym.Ticker] = v.Volume
	h := append(p.history[sym.Ticker], market.Bar{
		Open:   v.Open,
		High:   v.High,
		Low:    v.Low,
		Close:  last,
		Volume: barVol,
		Time:   ts,
	})
	if len(h) > historyBars {
		h = h[1:]
	}
	p.history[sym.Ticker] = h
	hist := make([]market.Bar, len(h))
	copy(hist, h)
	p.mu.Unlock()

	return market.Snapshot{
		Symbol:    sym.Ticker,
		LastPrice: last,
		OpenPrice: v.Open,
		HighPrice: v.High,
		LowPrice:  v.Low,
		PrevClose: v.PrevClose,
		Volume:    v.Volume,
		Timestamp: ts,
		History:   hist,
	}
}
