package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// envConfig mirrors Config for environment variables. noinit keeps unset
// pointers nil so only variables that are present override earlier sources.
type envConfig struct {
	DatabasePath     *string        `env:"FXKEEPER_DB_PATH, noinit"`
	RatesEndpoint    *string        `env:"FXKEEPER_RATES_ENDPOINT, noinit"`
	RateFetchTimeout *time.Duration `env:"FXKEEPER_RATE_FETCH_TIMEOUT, noinit"`
	RatesMaxAge      *time.Duration `env:"FXKEEPER_RATES_MAX_AGE, noinit"`
	LogLevel         *string        `env:"FXKEEPER_LOG_LEVEL, noinit"`
	LogFormat        *string        `env:"FXKEEPER_LOG_FORMAT, noinit"`
	Hasher           *string        `env:"FXKEEPER_HASHER, noinit"`

	CredentialMinLength     *int  `env:"FXKEEPER_CREDENTIAL_MIN_LENGTH, noinit"`
	CredentialMaxLength     *int  `env:"FXKEEPER_CREDENTIAL_MAX_LENGTH, noinit"`
	CredentialRequireUpper  *bool `env:"FXKEEPER_CREDENTIAL_REQUIRE_UPPER, noinit"`
	CredentialRequireLower  *bool `env:"FXKEEPER_CREDENTIAL_REQUIRE_LOWER, noinit"`
	CredentialRequireDigit  *bool `env:"FXKEEPER_CREDENTIAL_REQUIRE_DIGIT, noinit"`
	CredentialRequireSymbol *bool `env:"FXKEEPER_CREDENTIAL_REQUIRE_SYMBOL, noinit"`
}

// parseEnv overlays cfg with FXKEEPER_* variables found by lookuper.
// It panics when a variable is present but cannot be parsed.
func parseEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) {
	var ec envConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &ec,
		Lookuper: lookuper,
	}); err != nil {
		panic(err)
	}

	setIf(&cfg.DatabasePath, ec.DatabasePath)
	setIf(&cfg.RatesEndpoint, ec.RatesEndpoint)
	setIf(&cfg.RateFetchTimeout, ec.RateFetchTimeout)
	setIf(&cfg.RatesMaxAge, ec.RatesMaxAge)
	setIf(&cfg.LogLevel, ec.LogLevel)
	setIf(&cfg.LogFormat, ec.LogFormat)
	setIf(&cfg.Hasher, ec.Hasher)
	setIf(&cfg.Credential.MinLength, ec.CredentialMinLength)
	setIf(&cfg.Credential.MaxLength, ec.CredentialMaxLength)
	setIf(&cfg.Credential.RequireUpper, ec.CredentialRequireUpper)
	setIf(&cfg.Credential.RequireLower, ec.CredentialRequireLower)
	setIf(&cfg.Credential.RequireDigit, ec.CredentialRequireDigit)
	setIf(&cfg.Credential.RequireSymbol, ec.CredentialRequireSymbol)
}
