package config

import (
	"flag"
)

// RegisterFlags binds the global command-line flags to cfg on fs. The
// current cfg values become the flag defaults, so flags override defaults,
// JSON and environment once fs.Parse runs.
//
//	-d string     path to the SQLite database file
//	-r string     rate endpoint URL with a {base} placeholder
//	-t duration   rate fetch timeout
//	-m duration   maximum age of cached rates before a refetch
//	-l string     log level (debug, info, warn, error)
//	-f string     log format (text, json, console)
//	-c, -config   JSON config file (already consumed by LoadConfig)
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the SQLite database file")
	fs.StringVar(&cfg.RatesEndpoint, "r", cfg.RatesEndpoint, "rate endpoint URL with a {base} placeholder")
	fs.DurationVar(&cfg.RateFetchTimeout, "t", cfg.RateFetchTimeout, "rate fetch timeout")
	fs.DurationVar(&cfg.RatesMaxAge, "m", cfg.RatesMaxAge, "maximum age of cached rates")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format: text, json or console")

	// Accepted so the main flag set does not reject them.
	var ignored string
	fs.StringVar(&ignored, "c", "", "path to JSON config file")
	fs.StringVar(&ignored, "config", "", "path to JSON config file")
}
