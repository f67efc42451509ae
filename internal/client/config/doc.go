// Package config loads runtime configuration for the snipstash CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend HTTP API
//	-i int      live-sync poll interval (seconds)
//	-d string   path of the local SQLite state file
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080/api",
//	  "database_dsn": "snipstash.db",
//	  "sync_interval": "5s"
//	}
//
// Primary API
//
//   - type Config                     — holds ServerBaseURL, DatabaseDSN and SyncInterval
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
