package fyers

// apiResponse is the envelope every REST endpoint returns.
type apiResponse struct {
	S       string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// quotesResponse wraps GET /data/quotes.
type quotesResponse struct {
	apiResponse
	D []quoteEntry `json:"d"`
}

type quoteEntry struct {
	N string     `json:"n"` // exchange symbol, e.g. NSE:INFY-EQ
	S string     `json:"s"` // per-symbol status
	V quoteValue `json:"v"`
}

type quoteValue struct {
	LastPrice float64 `json:"lp"`
	Open      float64 `json:"open_price"`
	High      float64 `json:"high_price"`
	Low       float64 `json:"low_price"`
	PrevClose float64 `json:"prev_close_price"`
	Volume    int64   `json:"volume"`
	TimeUnix  int64   `json:"tt"`
}

// orderRequest is the POST /orders/sync body. Side is 1 for buy, -1 for
// sell; type 2 is a market order, 1 a limit order.
type orderRequest struct {
	Symbol      string  `json:"symbol"`
	Qty         int64   `json:"qty"`
	Type        int     `json:"type"`
	Side        int     `json:"side"`
	ProductType string  `json:"productType"`
	LimitPrice  float64 `json:"limitPrice"`
	Validity    string  `json:"validity"`
	OfflineFlag bool    `json:"offlineOrder"`
}

type orderResponse struct {
	apiResponse
	ID string `json:"id"`
}

// Order status codes used by the order book endpoint.
const (
	statusCanceled = 1
	statusFilled   = 2
	statusRejected = 5
)

type orderBookResponse struct {
	apiResponse
	OrderBook []orderBookEntry `json:"orderBook"`
}

type orderBookEntry struct {
	ID          string  `json:"id"`
	Status      int     `json:"status"`
	TradedPrice float64 `json:"tradedPrice"`
	Message     string  `json:"message"`
}

type cancelRequest struct {
	ID string `json:"id"`
}
