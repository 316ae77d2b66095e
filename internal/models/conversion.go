package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionRecord is an immutable log entry of one completed conversion.
type ConversionRecord struct {
	AccountID int64
	FromCode  string
	ToCode    string
	Amount    decimal.Decimal
	Result    decimal.Decimal
	Timestamp time.Time
}
