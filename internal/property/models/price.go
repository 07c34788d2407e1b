package models

import "github.com/shopspring/decimal"

// Prices are stored as NUMERIC(18,2).
const (
	PriceScale         = 2
	PriceIntegerDigits = 16

	// maxPriceExponent bounds the exponent before any arithmetic, since
	// comparing decimals rescales to the smaller exponent.
	maxPriceExponent = 18
)

var maxPrice = decimal.New(1, PriceIntegerDigits)

// CheckPrice returns a message describing why d is not a storable price, or
// "" when it is one.
func CheckPrice(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < -maxPriceExponent || exp > maxPriceExponent {
		return "must have at most 2 decimal places and 16 integer digits"
	}
	if d.IsNegative() {
		return "must be at least 0"
	}
	if !d.Truncate(PriceScale).Equal(d) {
		return "must have at most 2 decimal places"
	}
	if d.Cmp(maxPrice) >= 0 {
		return "must have at most 16 integer digits"
	}
	return ""
}
