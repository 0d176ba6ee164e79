package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

func limitQuery(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func (s *Server) getSystemStatus(c *gin.Context) {
	state := s.Risk.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"version":           s.Meta.Version,
		"venue":             s.Meta.Venue,
		"dry_run":           s.Meta.DryRun,
		"symbols":           s.Meta.Symbols,
		"trading_hours":     s.Clock.IsTradingTime(),
		"signal_window":     s.Clock.IsSignalTime(),
		"halted":            state.Halted,
		"halt_reason":       state.HaltReason,
		"active_strategies": s.Signals.ActiveIDs(),
		"events_dropped":    s.Bus.Dropped(),
	})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Metrics.GetSnapshot())
}

func (s *Server) getPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, s.Risk.Snapshot())
}

func (s *Server) getPositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": s.Engine.Open()})
}

func (s *Server) getClosedPositions(c *gin.Context) {
	if s.Queries == nil {
		c.JSON(http.StatusOK, gin.H{"positions": s.Engine.Closed()})
		return
	}
	closed, err := s.Queries.ClosedPositions(c.Request.Context(), limitQuery(c, 100, 500))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": closed})
}

func (s *Server) getSignals(c *gin.Context) {
	if s.Queries == nil {
		respondError(c, http.StatusServiceUnavailable, "NO_STORE", "signal store not configured")
		return
	}
	sigs, err := s.Queries.RecentSignals(c.Request.Context(), limitQuery(c, 50, 200))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": sigs})
}

func (s *Server) getOrders(c *gin.Context) {
	if s.Queries == nil {
		respondError(c, http.StatusServiceUnavailable, "NO_STORE", "order store not configured")
		return
	}
	orders, err := s.Queries.RecentOrders(c.Request.Context(), limitQuery(c, 100, 500))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// haltSession stops new admissions. Existing positions keep being managed
// to closure by the engine.
func (s *Server) haltSession(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BindJSON(&req)
	if req.Reason == "" {
		req.Reason = "operator halt"
	}
	s.Risk.Halt(req.Reason)
	c.JSON(http.StatusOK, gin.H{"halted": true, "reason": req.Reason})
}

func (s *Server) resumeSession(c *gin.Context) {
	s.Risk.Resume()
	c.JSON(http.StatusOK, gin.H{"halted": false})
}

// setMode switches the active strategy set.
func (s *Server) setMode(c *gin.Context) {
	var req struct {
		Strategies []string `json:"strategies"`
	}
	if err := c.BindJSON(&req); err != nil || len(req.Strategies) == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "strategies list is required")
		return
	}
	s.Signals.SetActive(req.Strategies)
	c.JSON(http.StatusOK, gin.H{"active_strategies": s.Signals.ActiveIDs()})
}
