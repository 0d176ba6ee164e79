package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"intraday-core/internal/market"
)

// Config is one strategy entry in YAML. Priority for ranking ties follows
// the order entries appear in the file.
type Config struct {
	ID       string        `yaml:"id"`
	Type     string        `yaml:"type"`
	Window   market.Window `yaml:"window"`
	IsActive bool          `yaml:"is_active"`

	GapUpShort   *GapUpShortConfig   `yaml:"gap_up_short,omitempty"`
	OpenBreakout *OpenBreakoutConfig `yaml:"open_breakout,omitempty"`
}

// ConfigFile is the top-level strategies.yaml structure: the strategy set,
// the symbol universe with sector tags, and the session mode.
type ConfigFile struct {
	Mode       string          `yaml:"mode"` // "multi" or a single strategy id
	Strategies []Config        `yaml:"strategies"`
	Universe   []market.Symbol `yaml:"universe"`
}

// LoadConfig reads and validates the strategy set from a YAML file.
func LoadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate rejects malformed strategy sets before a session starts.
func (f *ConfigFile) Validate() error {
	if len(f.Strategies) == 0 {
		return fmt.Errorf("strategy config: no strategies defined")
	}
	if len(f.Universe) == 0 {
		return fmt.Errorf("strategy config: empty symbol universe")
	}
	seen := make(map[string]bool)
	for _, cfg := range f.Strategies {
		if cfg.ID == "" {
			return fmt.Errorf("strategy config: entry of type %q missing id", cfg.Type)
		}
		if seen[cfg.ID] {
			return fmt.Errorf("strategy config: duplicate id %q", cfg.ID)
		}
		seen[cfg.ID] = true
		switch cfg.Type {
		case "gap_up_short", "open_breakout":
		default:
			return fmt.Errorf("strategy config: unknown type %q for %s", cfg.Type, cfg.ID)
		}
	}
	if f.Mode != "" && f.Mode != "multi" && !seen[f.Mode] {
		return fmt.Errorf("strategy config: mode %q is not a known strategy id", f.Mode)
	}
	for _, sym := range f.Universe {
		if sym.Ticker == "" {
			return fmt.Errorf("strategy config: universe entry missing ticker")
		}
	}
	return nil
}

// Build constructs the strategy instances and registers them on the service
// in file order, then applies the mode selection.
func (f *ConfigFile) Build(svc *Service) error {
	var activeIDs []string
	for _, cfg := range f.Strategies {
		var strat Strategy
		switch cfg.Type {
		case "gap_up_short":
			c := DefaultGapUpShortConfig()
			if cfg.GapUpShort != nil {
				c = *cfg.GapUpShort
			}
			strat = NewGapUpShort(cfg.ID, cfg.Window, c)
		case "open_breakout":
			c := DefaultOpenBreakoutConfig()
			if cfg.OpenBreakout != nil {
				c = *cfg.OpenBreakout
			}
			strat = NewOpenBreakout(cfg.ID, cfg.Window, c)
		default:
			return fmt.Errorf("strategy config: unknown type %q", cfg.Type)
		}
		svc.Add(strat)
		if cfg.IsActive {
			activeIDs = append(activeIDs, cfg.ID)
		}
	}

	if f.Mode != "" && f.Mode != "multi" {
		activeIDs = []string{f.Mode}
	}
	svc.SetActive(activeIDs)
	return nil
}
