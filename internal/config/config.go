// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/Hexer10/SourceServer/internal/logger"
	"github.com/Hexer10/SourceServer/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	Server    Server        `group:"Server Options" env-namespace:"SRCSRV"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"SRCSRV_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"SRCSRV_GEOIP"`
	Query     Query         `group:"Query Options" namespace:"query" env-namespace:"SRCSRV_QUERY"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"SRCSRV_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"SRCSRV_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	Address      string   `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken    string   `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token"`
	AllowedGames []string `short:"a" long:"allowed-game" env:"ALLOWED_GAMES" description:"Game folder names allowed to be tracked (empty allows all)" env-delim:","`
	TrustProxy   bool     `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds database configuration and maintenance flags.
type Storage struct {
	Path       string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"sourceserver.db"`
	PruneStale time.Duration `long:"prune-stale" description:"Delete servers not seen for this long, then exit" optional:"true" optional-value:"720h"`
	CheckDown  bool          `long:"check-down" description:"Re-query servers currently marked down. Update if UP, delete if still DOWN. Then exit."`
	CheckAll   bool          `long:"check-all" description:"Re-query ALL tracked servers. Update if UP, mark DOWN otherwise. Then exit."`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"sourceserver.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Query holds A2S client configuration.
type Query struct {
	Timeout time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"8"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
	SoftLimitDur   time.Duration `long:"soft" env:"SOFT" description:"Soft limit: skip persisting a server queried within duration" default:"5m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.Server.AuthToken == "" {
		fmt.Fprintln(os.Stderr,
			"Required flag `-t, --auth-token' or environment variable `SRCSRV_AUTH_TOKEN` was not specified!")
		os.Exit(1)
	}

	return &cfg
}
