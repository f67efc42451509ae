package config

import "time"

// Config holds runtime settings for the snipstash CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the backend HTTP API (snippets + crypto).
//   - SyncInterval: how often the live-sync poller checks for remote changes.
//   - DatabaseDSN: path of the local SQLite state file.
//
// Units: SyncInterval is a time.Duration (e.g., 5*time.Second).
type Config struct {
	ServerBaseURL string
	DatabaseDSN   string
	SyncInterval  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080/api"
	c.DatabaseDSN = "snipstash.db"
	c.SyncInterval = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
