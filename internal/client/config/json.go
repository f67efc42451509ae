package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkotlyar/snipstash/internal/flagx"
	"github.com/dkotlyar/snipstash/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerBaseURL string         `json:"server_base_url"`
	DatabaseDSN   string         `json:"database_dsn"`
	SyncInterval  timex.Duration `json:"sync_interval"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c/-config flags. When no file is given the Config is left
// untouched; read or unmarshal errors panic (caller may recover).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerBaseURL = jc.ServerBaseURL
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
}
