/*
 * Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * A copy of the License is located at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * or in the "license" file accompanying this file. This file is distributed
 * on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package ion

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// A DecimalParseError is returned when a string cannot be parsed as a Decimal.
type DecimalParseError struct {
	Num string
	Msg string
}

func (e *DecimalParseError) Error() string {
	return fmt.Sprintf("ion: ParseDecimal(%v): %v", e.Num, e.Msg)
}

// A Decimal is an arbitrary-precision decimal: an unscaled big.Int
// coefficient and a base-10 exponent. Unlike a float, it distinguishes
// 1, 1.0, and 1.00, and it can represent negative zero.
type Decimal struct {
	coef    *big.Int
	exp     int32
	negZero bool
}

// NewDecimal creates a decimal with value coef * 10^exp. negZero marks a
// zero coefficient as negative zero.
func NewDecimal(coef *big.Int, exp int32, negZero bool) *Decimal {
	return &Decimal{
		coef:    coef,
		exp:     exp,
		negZero: negZero && coef.Sign() == 0,
	}
}

// NewDecimalInt creates a decimal equal to the given integer.
func NewDecimalInt(n int64) *Decimal {
	return NewDecimal(big.NewInt(n), 0, false)
}

// MustParseDecimal parses the given string, panicking on failure.
func MustParseDecimal(in string) *Decimal {
	d, err := ParseDecimal(in)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal parses a decimal in Ion text form: an optionally-signed
// coefficient with an optional fraction and an optional d-exponent.
func ParseDecimal(in string) (*Decimal, error) {
	if len(in) == 0 {
		return nil, &DecimalParseError{in, "empty string"}
	}

	digits := in
	exp := int32(0)

	if i := strings.IndexAny(digits, "Dd"); i >= 0 {
		e := digits[i+1:]
		if len(e) == 0 {
			return nil, &DecimalParseError{in, "missing exponent"}
		}
		v, err := strconv.ParseInt(e, 10, 32)
		if err != nil {
			return nil, &DecimalParseError{in, err.Error()}
		}
		exp = int32(v)
		digits = digits[:i]
	}

	if i := strings.IndexByte(digits, '.'); i >= 0 {
		frac := digits[i+1:]
		exp -= int32(len(frac))
		digits = digits[:i] + frac
	}

	coef, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, &DecimalParseError{in, "cannot parse coefficient"}
	}

	negZero := coef.Sign() == 0 && len(digits) > 0 && digits[0] == '-'
	return NewDecimal(coef, exp, negZero), nil
}

// CoEx returns the coefficient and exponent.
func (d *Decimal) CoEx() (*big.Int, int32) {
	return d.coef, d.exp
}

// IsNegZero reports whether this decimal is negative zero.
func (d *Decimal) IsNegZero() bool {
	return d.negZero
}

// Sign returns -1, 0, or +1 according to the decimal's sign.
func (d *Decimal) Sign() int {
	return d.coef.Sign()
}

// Cmp compares two decimals numerically, ignoring precision.
func (d *Decimal) Cmp(o *Decimal) int {
	a, b := alignExponents(d, o)
	return a.Cmp(b)
}

// Equal reports whether two decimals have identical coefficient, exponent,
// and negative-zero flag; 1.0 and 1.00 are not Equal.
func (d *Decimal) Equal(o *Decimal) bool {
	return d.exp == o.exp && d.negZero == o.negZero && d.coef.Cmp(o.coef) == 0
}

// alignExponents rescales the larger-exponent coefficient down so both
// share the smaller exponent.
func alignExponents(d, o *Decimal) (*big.Int, *big.Int) {
	if d.exp == o.exp {
		return d.coef, o.coef
	}

	scaleTo := func(c *big.Int, by int32) *big.Int {
		m := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(by)), nil)
		return m.Mul(m, c)
	}

	if d.exp > o.exp {
		return scaleTo(d.coef, d.exp-o.exp), o.coef
	}
	return d.coef, scaleTo(o.coef, o.exp-d.exp)
}

// String formats the decimal in Ion text form.
func (d *Decimal) String() string {
	digits := d.coef.String()
	if d.negZero {
		digits = "-" + digits
	}

	switch {
	case d.exp == 0:
		return digits + "."

	case d.exp > 0:
		return digits + "d" + strconv.FormatInt(int64(d.exp), 10)

	default:
		sign := ""
		if digits[0] == '-' {
			sign = "-"
			digits = digits[1:]
		}

		frac := int(-d.exp)
		if len(digits) > frac {
			return sign + digits[:len(digits)-frac] + "." + digits[len(digits)-frac:]
		}

		// All digits are fractional; past a few leading zeros, print the
		// exponent explicitly instead.
		if frac-len(digits) > 6 {
			return sign + digits + "d" + strconv.FormatInt(int64(d.exp), 10)
		}
		return sign + "0." + strings.Repeat("0", frac-len(digits)) + digits
	}
}
