package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"intraday-core/internal/events"
	"intraday-core/internal/gateway"
	"intraday-core/internal/market"
	"intraday-core/internal/monitor"
	"intraday-core/internal/position"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := events.NewBus()
	rm, err := risk.NewManager(risk.DefaultConfig(), bus)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	clock := market.DefaultClock()
	engine := position.NewEngine(gateway.NewSim(0), rm, bus, clock)
	svc := strategy.NewService(clock, 0.6)

	srv, err := NewServer(Deps{
		Bus:       bus,
		Risk:      rm,
		Engine:    engine,
		Signals:   svc,
		Metrics:   monitor.NewSystemMetrics(),
		Clock:     clock,
		JWTSecret: "test-secret",
		AdminUser: "ops",
		AdminPass: "hunter2",
		Meta:      SystemMeta{DryRun: true, Venue: "NSE", Version: "test"},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doRequest(srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, srv *Server) string {
	t.Helper()
	w := doRequest(srv, http.MethodPost, "/api/auth/login", `{"username":"ops","password":"hunter2"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("no token in login response: %s", w.Body.String())
	}
	return resp.Token
}

func TestHealthIsPublic(t *testing.T) {
	srv := testServer(t)
	if w := doRequest(srv, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := testServer(t)
	w := doRequest(srv, http.MethodPost, "/api/auth/login", `{"username":"ops","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, expected 401", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := testServer(t)
	if w := doRequest(srv, http.MethodGet, "/api/portfolio", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d without token, expected 401", w.Code)
	}

	token := loginToken(t, srv)
	if w := doRequest(srv, http.MethodGet, "/api/portfolio", "", token); w.Code != http.StatusOK {
		t.Fatalf("status=%d with token, expected 200", w.Code)
	}
}

func TestHaltAndResumeSession(t *testing.T) {
	srv := testServer(t)
	token := loginToken(t, srv)

	w := doRequest(srv, http.MethodPost, "/api/session/halt", `{"reason":"maintenance"}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("halt status=%d", w.Code)
	}
	if !srv.Risk.Halted() {
		t.Fatal("risk manager not halted after halt endpoint")
	}

	w = doRequest(srv, http.MethodPost, "/api/session/resume", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("resume status=%d", w.Code)
	}
	if srv.Risk.Halted() {
		t.Fatal("risk manager still halted after resume endpoint")
	}
}

func TestSetModeValidatesPayload(t *testing.T) {
	srv := testServer(t)
	token := loginToken(t, srv)

	w := doRequest(srv, http.MethodPut, "/api/session/mode", `{}`, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d for empty strategy list, expected 400", w.Code)
	}
}

func TestSystemStatusReportsHaltState(t *testing.T) {
	srv := testServer(t)
	token := loginToken(t, srv)
	srv.Risk.Halt("drawdown")

	w := doRequest(srv, http.MethodGet, "/api/system/status", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp struct {
		Halted     bool   `json:"halted"`
		HaltReason string `json:"halt_reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Halted || resp.HaltReason != "drawdown" {
		t.Fatalf("got %+v, expected halted with reason", resp)
	}
}
