package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable is a set of conversion factors anchored to one base currency.
// Every rate is strictly positive.
type RateTable struct {
	BaseCode  string                     `json:"base_code"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Rate returns the factor for code. The base currency converts to itself at 1
// even when the provider omits it.
func (t *RateTable) Rate(code string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	if r, ok := t.Rates[code]; ok {
		return r, true
	}
	if code == t.BaseCode {
		return decimal.NewFromInt(1), true
	}
	return decimal.Zero, false
}

// IsStale reports whether the table is older than maxAge at now.
// A nil table is always stale.
func (t *RateTable) IsStale(now time.Time, maxAge time.Duration) bool {
	if t == nil {
		return true
	}
	return now.Sub(t.FetchedAt) > maxAge
}

// Clone returns a deep copy so callers cannot mutate cached state.
func (t *RateTable) Clone() *RateTable {
	if t == nil {
		return nil
	}
	rates := make(map[string]decimal.Decimal, len(t.Rates))
	for k, v := range t.Rates {
		rates[k] = v
	}
	return &RateTable{BaseCode: t.BaseCode, Rates: rates, FetchedAt: t.FetchedAt}
}
