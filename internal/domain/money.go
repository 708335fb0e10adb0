package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CentsFromDecimal converts a major-unit amount (e.g. 10.99) into cents.
// Negative amounts and amounts with more than two fractional digits are rejected.
func CentsFromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	shifted := d.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: price supports at most two decimal places", ErrInvalidInput)
	}
	if shifted.GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, fmt.Errorf("%w: price out of range", ErrInvalidInput)
	}
	return shifted.IntPart(), nil
}

// FormatCents renders cents as a fixed two-digit decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// maxCents keeps price*quantity far away from int64 overflow.
const maxCents = 1_000_000_000_00
