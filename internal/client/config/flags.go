package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkotlyar/snipstash/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend HTTP API (default from Config)
//	-i int      sync interval in seconds (default from Config)
//	-d string   path of the local SQLite state file (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the backend API")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path of the local state database")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
