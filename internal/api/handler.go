// Package api exposes the operational HTTP surface: session status and
// controls, portfolio and position views, and the websocket event stream.
package api

import (
	"net/http"
	"time"

	"intraday-core/internal/events"
	"intraday-core/internal/market"
	"intraday-core/internal/monitor"
	"intraday-core/internal/position"
	"intraday-core/internal/risk"
	"intraday-core/internal/strategy"
	"intraday-core/pkg/db"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Server wires HTTP endpoints around the trading core.
type Server struct {
	Router    *gin.Engine
	Bus       *events.Bus
	Queries   *db.Queries
	Risk      *risk.Manager
	Engine    *position.Engine
	Signals   *strategy.Service
	Metrics   *monitor.SystemMetrics
	Clock     *market.Clock
	JWTSecret string
	Meta      SystemMeta

	adminUser string
	adminHash []byte
}

// SystemMeta describes runtime status exposed to the UI.
type SystemMeta struct {
	DryRun  bool
	Venue   string
	Symbols []string
	Version string
}

// Deps bundles the server's collaborators.
type Deps struct {
	Bus       *events.Bus
	Queries   *db.Queries
	Risk      *risk.Manager
	Engine    *position.Engine
	Signals   *strategy.Service
	Metrics   *monitor.SystemMetrics
	Clock     *market.Clock
	JWTSecret string
	AdminUser string
	AdminPass string
	Meta      SystemMeta
}

func NewServer(d Deps) (*Server, error) {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	hash, err := bcrypt.GenerateFromPassword([]byte(d.AdminPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Router:    r,
		Bus:       d.Bus,
		Queries:   d.Queries,
		Risk:      d.Risk,
		Engine:    d.Engine,
		Signals:   d.Signals,
		Metrics:   d.Metrics,
		Clock:     d.Clock,
		JWTSecret: d.JWTSecret,
		Meta:      d.Meta,
		adminUser: d.AdminUser,
		adminHash: hash,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.POST("/auth/login", s.login)

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.GET("/system/status", s.getSystemStatus)
			protected.GET("/metrics", s.getMetrics)
			protected.GET("/portfolio", s.getPortfolio)
			protected.GET("/positions", s.getPositions)
			protected.GET("/positions/closed", s.getClosedPositions)
			protected.GET("/signals", s.getSignals)
			protected.GET("/orders", s.getOrders)

			protected.POST("/session/halt", s.haltSession)
			protected.POST("/session/resume", s.resumeSession)
			protected.PUT("/session/mode", s.setMode)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
