package convert

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// mantissaToBigInt interprets a 16-byte little-endian base-256 mantissa as
// an unsigned big.Int, the inverse of bigIntToMantissa.
func mantissaToBigInt(mantissa []byte) *big.Int {
	n := new(big.Int)
	base := big.NewInt(256)
	for i := len(mantissa) - 1; i >= 0; i-- {
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(mantissa[i])))
	}
	return n
}

// bigIntToMantissa packs an unsigned magnitude into a 16-byte little-endian
// base-256 mantissa by repeated division, setting overflow if it does not
// fit.
func bigIntToMantissa(mag *big.Int) (mantissa [16]byte, overflow bool) {
	base := big.NewInt(256)
	rem := new(big.Int)
	n := new(big.Int).Set(mag)
	for i := 0; i < 16; i++ {
		n.DivMod(n, base, rem)
		mantissa[i] = byte(rem.Int64())
	}
	overflow = n.Sign() != 0
	return mantissa, overflow
}

// Format implements the G-direction (C→server) NumericStruct formatting:
// the mantissa, sign and scale are turned into a decimal value (Decimal)
// and rendered with exactly Scale fractional digits, as the decimal text
// PostgreSQL's numeric input parser accepts. The digit count is not capped.
func (n Numeric) Format() string {
	d := n.Decimal()
	s := d.StringFixed(int32(n.Scale))
	if len(strings.TrimLeft(strings.TrimPrefix(s, "-"), "0.")) > 39 {
		// Leading-digit overflow is reported by the caller via Overflow;
		// here we still produce the best-effort text.
		return s
	}
	return s
}

// NumericFromDecimalText implements the F-direction (server→C) parse: the
// decimal literal is parsed with shopspring/decimal and its coefficient is
// packed into the 16-byte base-256 mantissa by bigIntToMantissa, with
// Overflow set when it does not fit.
func NumericFromDecimalText(text string) (Numeric, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Numeric{}, fmt.Errorf("convert: invalid numeric literal %q: %w", text, err)
	}

	positive := d.Sign() >= 0
	coeff := d.Coefficient()
	mag := new(big.Int).Abs(coeff)
	mantissa, overflow := bigIntToMantissa(mag)

	scale := int8(-d.Exponent())
	precision := int8(len(mag.String()))
	if scale < 0 {
		precision -= scale
	}

	return Numeric{
		Mantissa:  mantissa,
		Precision: precision,
		Scale:     scale,
		Positive:  positive,
		Overflow:  overflow,
	}, nil
}
