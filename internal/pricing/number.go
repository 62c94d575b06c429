package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on accepted literals. Realistic operands fit easily; anything wider
// would make the exact arithmetic grow with the input.
const (
	maxExponent = 30
	maxDigits   = 30
	maxLength   = 64
)

// ErrOutOfRange marks a literal whose exponent or digit count is too large.
var ErrOutOfRange = errors.New("number out of range")

// ParseNumber parses a decimal literal for field, in plain or exponent
// notation. Non-numeric text and literals outside the exponent and digit
// bounds yield an *InputError.
func ParseNumber(field, text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxLength {
		return decimal.Zero, &InputError{Field: field, Value: text[:maxLength] + "...", Err: ErrOutOfRange}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, &InputError{Field: field, Value: text, Err: err}
	}

	exp := d.Exponent()
	digits := len(strings.TrimPrefix(d.Coefficient().String(), "-"))
	if exp < -maxExponent || exp > maxExponent || digits > maxDigits {
		return decimal.Zero, &InputError{Field: field, Value: text, Err: ErrOutOfRange}
	}
	return d, nil
}
