package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored with 2 decimal places; the maxima match the column precision.
const (
	amountPlaces      = 2
	maxAmountExponent = 12
	minAmountExponent = -12
)

var (
	maxPriceAmount   = decimal.RequireFromString("99999999.99")
	maxBalanceAmount = decimal.RequireFromString("9999999999.99")
	maxRatingAmount  = decimal.RequireFromString("9.99")
)

// amountProblem describes why d cannot be stored, or returns "".
// The exponent window is checked first: comparing or rescaling a value such as 1e99999999
// would allocate its full expansion.
func amountProblem(d, limit decimal.Decimal) string {
	if exp := d.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return "the amount is out of range"
	}
	if !d.Equal(d.Round(amountPlaces)) {
		return "the amount must have at most 2 decimal places"
	}
	if d.Abs().GreaterThan(limit) {
		return "the amount must be at most " + limit.StringFixed(amountPlaces)
	}
	return ""
}

// CheckAmount rejects values with more than 2 decimal places or above limit in magnitude.
func CheckAmount(field string, d, limit decimal.Decimal) error {
	if msg := amountProblem(d, limit); msg != "" {
		return NewValidationError(field, msg)
	}
	return nil
}

// ParseAmount parses raw as a decimal and applies CheckAmount.
func ParseAmount(field, raw string, limit decimal.Decimal) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, NewValidationError(field, "the amount must be a valid number")
	}
	if err := CheckAmount(field, d, limit); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
