// Package config reads environment-driven settings for the intraday core.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment settings. Strategy parameters and the symbol
// universe live in the YAML strategy file, not here.
type Config struct {
	Port string

	// Session
	CycleInterval time.Duration
	FetchTimeout  time.Duration
	StrategyFile  string

	// Risk
	PortfolioValue     float64
	RiskPerTrade       float64
	LotSize            int64
	MaxPositions       int
	MaxPerSector       int
	DefaultStrategyCap int
	MinConfidence      float64
	DrawdownPct        float64
	ProfitTargetPct    float64

	// Execution
	DryRun            bool
	DryRunSlippageBps float64
	DryRunFillDelay   int

	// Fyers brokerage
	FyersBaseURL     string
	FyersWSURL       string
	FyersAppID       string
	FyersAccessToken string
	FyersRateLimit   float64 // requests per second

	// Database
	DBPath string

	// Auth
	JWTSecret     string
	AdminUser     string
	AdminPassword string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CycleInterval:      time.Duration(getEnvInt("CYCLE_INTERVAL_SECONDS", 30)) * time.Second,
		FetchTimeout:       time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		StrategyFile:       getEnv("STRATEGY_FILE", "./strategies.yaml"),
		PortfolioValue:     getEnvFloat("PORTFOLIO_VALUE", 1000000),
		RiskPerTrade:       getEnvFloat("RISK_PER_TRADE", 0.01),
		LotSize:            int64(getEnvInt("LOT_SIZE", 1)),
		MaxPositions:       getEnvInt("MAX_POSITIONS", 5),
		MaxPerSector:       getEnvInt("MAX_PER_SECTOR", 2),
		DefaultStrategyCap: getEnvInt("DEFAULT_STRATEGY_CAP", 3),
		MinConfidence:      getEnvFloat("MIN_CONFIDENCE", 0.6),
		DrawdownPct:        getEnvFloat("DRAWDOWN_PCT", 2.0),
		ProfitTargetPct:    getEnvFloat("PROFIT_TARGET_PCT", 3.0),
		DryRun:             getEnv("DRY_RUN", "true") == "true",
		DryRunSlippageBps:  getEnvFloat("DRY_RUN_SLIPPAGE_BPS", 2),
		DryRunFillDelay:    getEnvInt("DRY_RUN_FILL_DELAY", 0),
		FyersBaseURL:       getEnv("FYERS_BASE_URL", "https://api-t1.fyers.in/api/v3"),
		FyersWSURL:         getEnv("FYERS_WS_URL", "wss://socket.fyers.in/hsm/v1-5/prod"),
		FyersAppID:         os.Getenv("FYERS_APP_ID"),
		FyersAccessToken:   os.Getenv("FYERS_ACCESS_TOKEN"),
		FyersRateLimit:     getEnvFloat("FYERS_RATE_LIMIT", 8),
		DBPath:             getEnv("DB_PATH", "./data/intraday.db"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret"),
		AdminUser:          getEnv("ADMIN_USER", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CycleInterval <= 0 {
		return fmt.Errorf("config: cycle interval must be positive")
	}
	if !c.DryRun && (c.FyersAppID == "" || c.FyersAccessToken == "") {
		return fmt.Errorf("config: live trading requires FYERS_APP_ID and FYERS_ACCESS_TOKEN")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
