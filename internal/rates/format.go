package rates

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Format renders amount in the natural precision of the ISO 4217 currency
// code (two digits for EUR, none for JPY). Unknown codes, and amounts whose
// minor units do not fit an int64, fall back to fixed digits followed by the
// code.
func Format(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	places := int32(cur.Fraction)
	minor := amount.Round(places).Shift(places)
	if !minor.IsInteger() || minor.Abs().GreaterThan(maxMinorUnits) {
		return amount.StringFixed(places) + " " + cur.Code
	}
	return cur.Formatter().Format(minor.IntPart())
}
