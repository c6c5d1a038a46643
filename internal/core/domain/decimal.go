package domain

import (
	"github.com/shopspring/decimal"
)

// Quantities (litres, price per litre) carry 3 decimal places; money amounts
// carry 2. Values cross the API as exact base-10 strings at these scales,
// never as binary floats. Rounding is half-up.
const (
	QuantityScale = 3
	MoneyScale    = 2
)

// ParseQuantity parses a litres/price string and normalizes it to scale 3.
func ParseQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Validationf("invalid decimal %q", s)
	}
	return d.Round(QuantityScale), nil
}

// Amount computes litres × price rounded to 2 decimal places, the exact value
// persisted on a sale.
func Amount(litres, price decimal.Decimal) decimal.Decimal {
	return litres.Mul(price).Round(MoneyScale)
}

// QuantityString renders a quantity at fixed scale 3 ("90" → "90.000").
func QuantityString(d decimal.Decimal) string {
	return d.StringFixed(QuantityScale)
}

// MoneyString renders a money amount at fixed scale 2.
func MoneyString(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
