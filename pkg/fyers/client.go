// Package fyers is a minimal client for the Fyers v3 brokerage API: REST
// quotes and orders plus a websocket quote stream. All calls go through a
// shared rate limiter so the broker's request budget is never exceeded.
package fyers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// Client is the REST core shared by the quote provider and order gateway.
type Client struct {
	baseURL     string
	appID       string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient validates the access token and builds the client. rps is the
// request budget per second.
func NewClient(baseURL, appID, accessToken string, rps float64) (*Client, error) {
	if appID == "" || accessToken == "" {
		return nil, fmt.Errorf("fyers: app id and access token are required")
	}
	if rps <= 0 {
		rps = 8
	}
	if err := checkTokenExpiry(accessToken); err != nil {
		return nil, err
	}
	return &Client{
		baseURL:     baseURL,
		appID:       appID,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(rps), int(rps)),
	}, nil
}

// checkTokenExpiry inspects the JWT exp claim without verifying the
// signature (the broker holds the key). Tokens are day-scoped; a stale one
// fails every call, so refuse it up front.
func checkTokenExpiry(token string) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("fyers: access token is not a valid JWT: %w", err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		log.Println("fyers: access token has no exp claim, continuing")
		return nil
	}
	if time.Now().After(exp.Time) {
		return fmt.Errorf("fyers: access token expired at %s", exp.Time.Format(time.RFC3339))
	}
	if remaining := time.Until(exp.Time); remaining < time.Hour {
		log.Printf("fyers: access token expires in %s", remaining.Round(time.Minute))
	}
	return nil
}

// doJSON performs one rate-limited request and decodes the response into
// out. Non-2xx responses and s != "ok" envelopes become errors.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("fyers: rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("fyers: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("fyers: build request: %w", err)
	}
	req.Header.Set("Authorization", c.appID+":"+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fyers: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("fyers: %s %s status %d: %s", method, path, res.StatusCode, string(b))
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("fyers: decode response: %w", err)
		}
	}
	return nil
}
