package sanitizer

import "github.com/shopspring/decimal"

const MinQuantity = 1

// ParseDiscount strips everything but digits before parsing, so "1.000.000đ"
// becomes 1000000. Blank input is zero.
func ParseDiscount(raw string) decimal.Decimal {
	digits := DigitsOnly(raw)
	if digits == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func NormalizeQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	return q
}
