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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendUint(t *testing.T) {
	tests := []struct {
		val      uint64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{0xFF, []byte{0xFF}},
		{0x100, []byte{0x01, 0x00}},
		{0x1234567890ABCDEF, []byte{0x12, 0x34, 0x56, 0x78, 0x90, 0xAB, 0xCD, 0xEF}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, appendUint(nil, tt.val), "val=%v", tt.val)
		assert.Equal(t, uint64(len(tt.expected)), uintSize(tt.val), "size of %v", tt.val)
	}
}

func TestAppendIntMag(t *testing.T) {
	tests := []struct {
		val      int64
		expected []byte
	}{
		{0, nil},
		{1, []byte{0x01}},
		{-1, []byte{0x81}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x00, 0x80}},
		{-0x80, []byte{0x80, 0x80}},
		{0x7FFF, []byte{0x7F, 0xFF}},
	}

	for _, tt := range tests {
		var exp []byte
		if tt.expected != nil {
			exp = tt.expected
		}
		assert.Equal(t, exp, appendIntMag(nil, tt.val), "val=%v", tt.val)
		assert.Equal(t, uint64(len(tt.expected)), intSize(tt.val), "size of %v", tt.val)
	}
}

func TestAppendVarUint(t *testing.T) {
	tests := []struct {
		val      uint64
		expected []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x81}},
		{0x7F, []byte{0xFF}},
		{0x80, []byte{0x01, 0x80}},
		{0x3FFF, []byte{0x7F, 0xFF}},
		{0x4000, []byte{0x01, 0x00, 0x80}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, appendVarUint(nil, tt.val), "val=%v", tt.val)
		assert.Equal(t, uint64(len(tt.expected)), varUintSize(tt.val), "size of %v", tt.val)
	}
}

func TestAppendVarInt(t *testing.T) {
	tests := []struct {
		val      int64
		expected []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x81}},
		{-1, []byte{0xC1}},
		{0x3F, []byte{0xBF}},
		{0x40, []byte{0x00, 0xC0}},
		{-0x40, []byte{0x40, 0xC0}},
		{0x1FFF, []byte{0x3F, 0xFF}},
		{-0x2000, []byte{0x40, 0x40, 0x80}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, appendVarInt(nil, tt.val), "val=%v", tt.val)
		assert.Equal(t, uint64(len(tt.expected)), varIntSize(tt.val), "size of %v", tt.val)
	}
}

func TestAppendBigInt(t *testing.T) {
	big255 := big.NewInt(255)
	neg255 := big.NewInt(-255)

	assert.Equal(t, []byte{0x00, 0xFF}, appendBigInt(nil, big255))
	assert.Equal(t, []byte{0x80, 0xFF}, appendBigInt(nil, neg255))
	assert.Equal(t, uint64(2), bigIntSize(big255))
	assert.Equal(t, uint64(0), bigIntSize(new(big.Int)))
	assert.Equal(t, []byte{0x01}, appendBigInt(nil, big.NewInt(1)))
}

func TestAppendTag(t *testing.T) {
	assert.Equal(t, []byte{0x2A}, appendTag(nil, 0x20, 10))
	assert.Equal(t, []byte{0xBE, 0x8E}, appendTag(nil, 0xB0, 14))
	assert.Equal(t, []byte{0xDE, 0x01, 0x80}, appendTag(nil, 0xD0, 128))
	assert.Equal(t, uint64(1), tagSize(13))
	assert.Equal(t, uint64(2), tagSize(14))
	assert.Equal(t, uint64(3), tagSize(128))
}

func TestVarIntNegZero(t *testing.T) {
	assert.Equal(t, []byte{0xC0}, appendVarIntNegZero(nil))
}
