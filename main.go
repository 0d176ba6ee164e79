package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"intraday-core/internal/api"
	"intraday-core/internal/events"
	"intraday-core/internal/gateway"
	"intraday-core/internal/market"
	"intraday-core/internal/monitor"
	"intraday-core/internal/persistence"
	"intraday-core/internal/position"
	"intraday-core/internal/risk"
	"intraday-core/internal/scheduler"
	"intraday-core/internal/strategy"
	"intraday-core/pkg/config"
	"intraday-core/pkg/db"
	"intraday-core/pkg/fyers"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("intraday-core %s starting on port %s (dry_run=%v)", version, cfg.Port, cfg.DryRun)

	strategies, err := strategy.LoadConfig(cfg.StrategyFile)
	if err != nil {
		log.Fatalf("strategy config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	clock := market.DefaultClock()

	riskMgr, err := risk.NewManager(risk.Config{
		PortfolioValue:  cfg.PortfolioValue,
		RiskPerTrade:    cfg.RiskPerTrade,
		LotSize:         cfg.LotSize,
		MaxTotal:        cfg.MaxPositions,
		MaxPerSector:    cfg.MaxPerSector,
		DefaultCap:      cfg.DefaultStrategyCap,
		DrawdownPct:     cfg.DrawdownPct,
		ProfitTargetPct: cfg.ProfitTargetPct,
	}, bus)
	if err != nil {
		log.Fatalf("risk config invalid: %v", err)
	}

	signalSvc := strategy.NewService(clock, cfg.MinConfidence)
	if err := strategies.Build(signalSvc); err != nil {
		log.Fatalf("strategy build failed: %v", err)
	}
	log.Printf("strategies active: %v, universe: %d symbols", signalSvc.ActiveIDs(), len(strategies.Universe))

	tickers := make([]string, 0, len(strategies.Universe))
	for _, sym := range strategies.Universe {
		tickers = append(tickers, sym.Ticker)
	}

	// Market data and execution: simulated in dry-run, Fyers otherwise.
	var provider market.Provider
	var gw gateway.Gateway
	if cfg.DryRun {
		provider = market.NewMockProvider(1000, 2)
		sim := gateway.NewSim(cfg.DryRunSlippageBps)
		sim.FillDelay = cfg.DryRunFillDelay
		gw = sim
		log.Println("dry run: mock provider and simulated gateway")
	} else {
		client, err := fyers.NewClient(cfg.FyersBaseURL, cfg.FyersAppID, cfg.FyersAccessToken, cfg.FyersRateLimit)
		if err != nil {
			log.Fatalf("fyers client: %v", err)
		}
		stream := fyers.NewStream(cfg.FyersWSURL, cfg.FyersAppID, cfg.FyersAccessToken, tickers)
		go stream.Run(ctx)
		provider = fyers.NewQuoteProvider(client, stream)
		gw = fyers.NewOrderGateway(client)
	}

	metrics := monitor.NewSystemMetrics()
	engine := position.NewEngine(gw, riskMgr, bus, clock)

	recorder := persistence.NewRecorder(database.Queries(), bus, riskMgr, metrics)
	go recorder.Run(ctx)

	sched := scheduler.New(scheduler.Config{
		Interval:     cfg.CycleInterval,
		FetchTimeout: cfg.FetchTimeout,
		Universe:     strategies.Universe,
		Provider:     provider,
		Signals:      signalSvc,
		Risk:         riskMgr,
		Engine:       engine,
		Clock:        clock,
		Bus:          bus,
		Metrics:      metrics,
	})

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	server, err := api.NewServer(api.Deps{
		Bus:       bus,
		Queries:   database.Queries(),
		Risk:      riskMgr,
		Engine:    engine,
		Signals:   signalSvc,
		Metrics:   metrics,
		Clock:     clock,
		JWTSecret: cfg.JWTSecret,
		AdminUser: cfg.AdminUser,
		AdminPass: cfg.AdminPassword,
		Meta: api.SystemMeta{
			DryRun:  cfg.DryRun,
			Venue:   "NSE",
			Symbols: tickers,
			Version: version,
		},
	})
	if err != nil {
		log.Fatalf("api server: %v", err)
	}
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutdown signal received")
	cancel()
	<-schedDone // scheduler finishes its cycle and reconciles outstanding orders
	log.Println("intraday-core stopped")
}
