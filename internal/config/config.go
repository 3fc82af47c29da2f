package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Sheet holds the remote spreadsheet settings
	Sheet SheetConfig `json:"sheet"`

	// Chart holds projection and rendering preferences
	Chart ChartConfig `json:"chart"`

	// Fetch holds cycle timing knobs
	Fetch FetchConfig `json:"fetch"`
}

// SheetConfig holds the remote spreadsheet settings
type SheetConfig struct {
	Doc        string `json:"doc"`                   // Spreadsheet document id
	TimeoutSec int    `json:"timeout_sec"`           // HTTP timeout per request
	NoQuantize bool   `json:"no_quantize,omitempty"` // Force full-resolution queries on wide windows
	BaseURL    string `json:"base_url,omitempty"`    // Override endpoint, for local mirrors
}

// ChartConfig holds projection and rendering preferences
type ChartConfig struct {
	DecayConstant float64 `json:"decay_constant"` // Hotness decay rate per second of age
	RankLookahead int     `json:"rank_lookahead"` // Timestamps scanned when filling rank gaps
	WindowHours   int     `json:"window_hours"`   // Initial visible span
	Braille       bool    `json:"braille"`        // Braille line style instead of arc
}

// FetchConfig holds cycle timing knobs
type FetchConfig struct {
	QuietMs    int `json:"quiet_ms"`    // Viewport debounce quiet period
	MarginDays int `json:"margin_days"` // Posts fetched this far before the window start
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sheet: SheetConfig{
			Doc:        "1XbSqIH7CzYTgKkjVmGP3FFPHs1sqM3D3aj7O4lFPfn0",
			TimeoutSec: 30,
		},
		Chart: ChartConfig{
			DecayConstant: 5.1966223406838415e-08,
			RankLookahead: 5,
			WindowHours:   48,
			Braille:       true,
		},
		Fetch: FetchConfig{
			QuietMs:    1000, // 1 second of quiet before a burst of pans fetches
			MarginDays: 5,    // Posts rarely chart past five days
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".subpulse", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	cfg.fillZeroes()
	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv fills in overrides from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if doc := os.Getenv("SUBPULSE_SHEET_DOC"); doc != "" {
		c.Sheet.Doc = doc
	}
	if base := os.Getenv("SUBPULSE_BASE_URL"); base != "" {
		c.Sheet.BaseURL = base
	}
}

// fillZeroes restores defaults for fields a hand-edited config left
// empty, so an older or partial file never zeroes a tunable.
func (c *Config) fillZeroes() {
	def := DefaultConfig()
	if c.Sheet.Doc == "" {
		c.Sheet.Doc = def.Sheet.Doc
	}
	if c.Sheet.TimeoutSec <= 0 {
		c.Sheet.TimeoutSec = def.Sheet.TimeoutSec
	}
	if c.Chart.DecayConstant <= 0 {
		c.Chart.DecayConstant = def.Chart.DecayConstant
	}
	if c.Chart.RankLookahead <= 0 {
		c.Chart.RankLookahead = def.Chart.RankLookahead
	}
	if c.Chart.WindowHours <= 0 {
		c.Chart.WindowHours = def.Chart.WindowHours
	}
	if c.Fetch.QuietMs <= 0 {
		c.Fetch.QuietMs = def.Fetch.QuietMs
	}
	if c.Fetch.MarginDays <= 0 {
		c.Fetch.MarginDays = def.Fetch.MarginDays
	}
}
