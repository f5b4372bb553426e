package gnc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric is an exact rational amount stored as a numerator/denominator pair.
// Monetary values are never held as floats; conversion to decimal happens only
// at the edges (balance queries, display).
type Numeric struct {
	Num   int64
	Denom int64
}

// NewNumeric creates a Numeric from a numerator and denominator.
func NewNumeric(num, denom int64) Numeric {
	return Numeric{Num: num, Denom: denom}
}

// NumericFromDecimal converts a decimal value to an exact rational.
// The denominator is the smallest power of ten that makes the numerator whole.
func NumericFromDecimal(d decimal.Decimal) Numeric {
	exp := int64(d.Exponent())
	if exp >= 0 {
		return Numeric{Num: d.IntPart(), Denom: 1}
	}
	denom := int64(1)
	for i := int64(0); i < -exp; i++ {
		denom *= 10
	}
	return Numeric{Num: d.Mul(decimal.NewFromInt(denom)).IntPart(), Denom: denom}
}

// ParseNumeric parses a "numerator/denominator" string such as "-5000/100".
func ParseNumeric(s string) (Numeric, error) {
	numText, denomText, found := strings.Cut(s, "/")
	if !found {
		return Numeric{}, fmt.Errorf("invalid numeric value %q: missing denominator", s)
	}
	num, err := strconv.ParseInt(strings.TrimSpace(numText), 10, 64)
	if err != nil {
		return Numeric{}, fmt.Errorf("invalid numerator in %q: %w", s, err)
	}
	denom, err := strconv.ParseInt(strings.TrimSpace(denomText), 10, 64)
	if err != nil {
		return Numeric{}, fmt.Errorf("invalid denominator in %q: %w", s, err)
	}
	if denom == 0 {
		return Numeric{}, fmt.Errorf("invalid numeric value %q: zero denominator", s)
	}
	return Numeric{Num: num, Denom: denom}, nil
}

// Decimal returns the value as a decimal. Exact for the power-of-ten
// denominators GnuCash uses; other denominators fall back to division at
// default precision.
func (n Numeric) Decimal() decimal.Decimal {
	if n.Denom == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(n.Num).Div(decimal.NewFromInt(n.Denom))
}

// String renders the value in "numerator/denominator" wire form.
func (n Numeric) String() string {
	return strconv.FormatInt(n.Num, 10) + "/" + strconv.FormatInt(n.Denom, 10)
}

// IsZero reports whether the value is zero or unset.
func (n Numeric) IsZero() bool {
	return n.Num == 0
}

// Neg returns the arithmetic negation of the value.
func (n Numeric) Neg() Numeric {
	return Numeric{Num: -n.Num, Denom: n.Denom}
}
