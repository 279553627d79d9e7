package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Database  DatabaseConfig  `toml:"database"`
	Detection DetectionConfig `toml:"detection"`
	Alerts    AlertsConfig    `toml:"alerts"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Server    ServerConfig    `toml:"server"`
	Email     EmailConfig     `toml:"email"`
}

type DatabaseConfig struct {
	// Path to the SQLite file. Empty means <data dir>/trendr.db.
	Path string `toml:"path"`
}

// DetectionConfig names every window, weight and threshold of the flow
// inference engine so the scoring policy is auditable in one place.
type DetectionConfig struct {
	PivotRecentDays     int     `toml:"pivot_recent_days"`
	PivotHistoricalDays int     `toml:"pivot_historical_days"`
	PivotRatio          float64 `toml:"pivot_ratio"`
	PivotWeightCap      float64 `toml:"pivot_weight_cap"`

	EdgeRecentDays      int     `toml:"edge_recent_days"`
	EdgeBaselineDays    int     `toml:"edge_baseline_days"`
	EdgeChangeThreshold float64 `toml:"edge_change_threshold"`
	EdgeWeightCap       float64 `toml:"edge_weight_cap"`

	MotivationFloor float64 `toml:"motivation_floor"`

	PivotClassWeight      float64 `toml:"pivot_class_weight"`
	EdgeClassWeight       float64 `toml:"edge_class_weight"`
	MotivationClassWeight float64 `toml:"motivation_class_weight"`
	TwoClassBonus         float64 `toml:"two_class_bonus"`
	ThreeClassBonus       float64 `toml:"three_class_bonus"`

	MinConfidence    float64 `toml:"min_confidence"`
	FlowValidityDays int     `toml:"flow_validity_days"`
	MaxTopicsPerItem int     `toml:"max_topics_per_item"`
}

type AlertsConfig struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	SharpPivotWeight    float64 `toml:"sharp_pivot_weight"`
	DedupWindowHours    int     `toml:"dedup_window_hours"`
}

type ScheduleConfig struct {
	DetectIntervalMinutes int    `toml:"detect_interval_minutes"`
	Timezone              string `toml:"timezone"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Detection: DetectionConfig{
			PivotRecentDays:     30,
			PivotHistoricalDays: 120,
			PivotRatio:          1.5,
			PivotWeightCap:      3.0,

			EdgeRecentDays:      7,
			EdgeBaselineDays:    30,
			EdgeChangeThreshold: 0.5,
			EdgeWeightCap:       2.0,

			MotivationFloor: 0.3,

			PivotClassWeight:      0.4,
			EdgeClassWeight:       0.35,
			MotivationClassWeight: 0.25,
			TwoClassBonus:         1.2,
			ThreeClassBonus:       1.3,

			MinConfidence:    0.4,
			FlowValidityDays: 30,
			MaxTopicsPerItem: 5,
		},
		Alerts: AlertsConfig{
			ConfidenceThreshold: 0.6,
			SharpPivotWeight:    0.8,
			DedupWindowHours:    24,
		},
		Schedule: ScheduleConfig{
			DetectIntervalMinutes: 30,
			Timezone:              "Local",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8321",
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
	}
}

// Validate checks the detection and alert policy for values the engine
// cannot run with. A failed validation aborts the detection cycle.
func (c *Config) Validate() error {
	d := c.Detection

	if d.PivotRecentDays <= 0 || d.PivotHistoricalDays <= d.PivotRecentDays {
		return fmt.Errorf("pivot windows must satisfy 0 < recent < historical (got %d/%d)",
			d.PivotRecentDays, d.PivotHistoricalDays)
	}
	if d.EdgeRecentDays <= 0 || d.EdgeBaselineDays <= d.EdgeRecentDays {
		return fmt.Errorf("edge windows must satisfy 0 < recent < baseline (got %d/%d)",
			d.EdgeRecentDays, d.EdgeBaselineDays)
	}
	if d.PivotRatio <= 0 || d.PivotWeightCap <= 0 || d.EdgeWeightCap <= 0 {
		return fmt.Errorf("pivot_ratio and weight caps must be positive")
	}
	for name, w := range map[string]float64{
		"pivot_class_weight":      d.PivotClassWeight,
		"edge_class_weight":       d.EdgeClassWeight,
		"motivation_class_weight": d.MotivationClassWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be in [0,1] (got %v)", name, w)
		}
	}
	if d.TwoClassBonus < 1 || d.ThreeClassBonus < d.TwoClassBonus {
		return fmt.Errorf("class bonuses must satisfy 1 <= two <= three (got %v/%v)",
			d.TwoClassBonus, d.ThreeClassBonus)
	}
	if d.MinConfidence < 0 || d.MinConfidence >= 1 {
		return fmt.Errorf("min_confidence must be in [0,1) (got %v)", d.MinConfidence)
	}
	if d.MotivationFloor < 0 || d.MotivationFloor > 1 {
		return fmt.Errorf("motivation_floor must be in [0,1] (got %v)", d.MotivationFloor)
	}
	if d.FlowValidityDays <= 0 {
		return fmt.Errorf("flow_validity_days must be positive (got %d)", d.FlowValidityDays)
	}
	if d.MaxTopicsPerItem < 2 {
		return fmt.Errorf("max_topics_per_item must be at least 2 (got %d)", d.MaxTopicsPerItem)
	}
	if c.Alerts.DedupWindowHours <= 0 {
		return fmt.Errorf("dedup_window_hours must be positive (got %d)", c.Alerts.DedupWindowHours)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "trendr"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the directory holding the database and cached cycle output
func DataDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "trendr"), nil
}

// DatabasePath resolves the configured database path, falling back to the
// default location under the data dir.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trendr.db"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
