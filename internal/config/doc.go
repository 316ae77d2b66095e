// Package config loads runtime configuration for fxkeeper.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. FXKEEPER_* environment variables.
//  4. Command-line flags bound with RegisterFlags.
//
// # JSON schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "database_path": "/home/me/.fxkeeper/fx.db",
//	  "rates_endpoint": "https://open.er-api.com/v6/latest/{base}",
//	  "rate_fetch_timeout": "10s",
//	  "rates_max_age": "1h",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "hasher": "argon2",
//	  "credential": {"min_length": 8, "require_digit": true}
//	}
package config
