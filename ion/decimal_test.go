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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		coef string
		exp  int32
	}{
		{"0", "0", 0},
		{"42", "42", 0},
		{"-1", "-1", 0},
		{"1.5", "15", -1},
		{"0.00", "0", -2},
		{"12d3", "12", 3},
		{"1.2d-3", "12", -4},
		{"-0.5", "-5", -1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			coef, exp := d.CoEx()
			assert.Equal(t, tt.coef, coef.String())
			assert.Equal(t, tt.exp, exp)
		})
	}
}

func TestParseDecimalNegZero(t *testing.T) {
	d, err := ParseDecimal("-0.00")
	require.NoError(t, err)
	assert.True(t, d.IsNegZero())
	assert.Equal(t, 0, d.Sign())

	d, err = ParseDecimal("0.00")
	require.NoError(t, err)
	assert.False(t, d.IsNegZero())
}

func TestParseDecimalErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "1d", "1.5x"} {
		_, err := ParseDecimal(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDecimalString(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"42", "42."},
		{"-1", "-1."},
		{"1.5", "1.5"},
		{"-1.5", "-1.5"},
		{"12d3", "12d3"},
		{"0.00", "0.00"},
		{"-0.", "-0."},
		{"0.005", "0.005"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, MustParseDecimal(tt.in).String())
		})
	}
}

func TestDecimalCmpAndEqual(t *testing.T) {
	a := MustParseDecimal("1.0")
	b := MustParseDecimal("1.00")

	assert.Equal(t, 0, a.Cmp(b))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(MustParseDecimal("1.0")))

	assert.Equal(t, -1, MustParseDecimal("1.1").Cmp(MustParseDecimal("1.2")))
	assert.Equal(t, 1, MustParseDecimal("10").Cmp(MustParseDecimal("9.99")))
}
