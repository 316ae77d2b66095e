package config

import (
	"context"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// CredentialPolicy configures which credentials the identity service accepts.
type CredentialPolicy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// Config holds runtime settings for fxkeeper.
//
// RatesEndpoint must contain the "{base}" placeholder which is replaced with
// the requested base currency code. RatesMaxAge is the staleness threshold
// after which conversions refetch rates before using them.
type Config struct {
	DatabasePath     string
	RatesEndpoint    string
	RateFetchTimeout time.Duration
	RatesMaxAge      time.Duration
	LogLevel         string
	LogFormat        string
	Hasher           string
	Credential       CredentialPolicy
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "fxkeeper.db"
	c.RatesEndpoint = "https://open.er-api.com/v6/latest/{base}"
	c.RateFetchTimeout = 10 * time.Second
	c.RatesMaxAge = time.Hour
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.Hasher = "argon2"
	c.Credential = CredentialPolicy{
		MinLength:    8,
		MaxLength:    128,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// LoadConfig constructs a Config from defaults, then the JSON file named by
// -c/-config (if any), then FXKEEPER_* environment variables. Command-line
// flags are applied afterwards by RegisterFlags and the caller's flag.Parse.
func LoadConfig() *Config {
	return load(os.Args[1:], envconfig.OsLookuper())
}

func load(args []string, lookuper envconfig.Lookuper) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(context.Background(), cfg, lookuper)
	return cfg
}
