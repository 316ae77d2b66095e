package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/fxkeeper/internal/flagx"
	"github.com/dmitrijs2005/fxkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it mentions.
type JsonConfig struct {
	DatabasePath     *string         `json:"database_path"`
	RatesEndpoint    *string         `json:"rates_endpoint"`
	RateFetchTimeout *timex.Duration `json:"rate_fetch_timeout"`
	RatesMaxAge      *timex.Duration `json:"rates_max_age"`
	LogLevel         *string         `json:"log_level"`
	LogFormat        *string         `json:"log_format"`
	Hasher           *string         `json:"hasher"`
	Credential       *struct {
		MinLength     *int  `json:"min_length"`
		MaxLength     *int  `json:"max_length"`
		RequireUpper  *bool `json:"require_upper"`
		RequireLower  *bool `json:"require_lower"`
		RequireDigit  *bool `json:"require_digit"`
		RequireSymbol *bool `json:"require_symbol"`
	} `json:"credential"`
}

// parseJson overlays cfg with values from the JSON file passed as
// -c/-config in args. It panics on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.DatabasePath, jc.DatabasePath)
	setIf(&cfg.RatesEndpoint, jc.RatesEndpoint)
	if jc.RateFetchTimeout != nil {
		cfg.RateFetchTimeout = jc.RateFetchTimeout.Duration
	}
	if jc.RatesMaxAge != nil {
		cfg.RatesMaxAge = jc.RatesMaxAge.Duration
	}
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	setIf(&cfg.Hasher, jc.Hasher)

	if p := jc.Credential; p != nil {
		setIf(&cfg.Credential.MinLength, p.MinLength)
		setIf(&cfg.Credential.MaxLength, p.MaxLength)
		setIf(&cfg.Credential.RequireUpper, p.RequireUpper)
		setIf(&cfg.Credential.RequireLower, p.RequireLower)
		setIf(&cfg.Credential.RequireDigit, p.RequireDigit)
		setIf(&cfg.Credential.RequireSymbol, p.RequireSymbol)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
