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

import "math/big"

// Field codecs for the binary encoding. UInt and Int are fixed-width
// big-endian with the receiver expected to know the byte count; VarUInt and
// VarInt are big-endian base-128 with the high bit set on the final byte,
// and VarInt reserves bit 6 of the first byte for sign.

// uintSize returns the minimum number of bytes needed to encode v as a UInt.
func uintSize(v uint64) uint64 {
	n := uint64(1)
	for v >>= 8; v > 0; v >>= 8 {
		n++
	}
	return n
}

// appendUint appends v as a minimum-width big-endian UInt.
func appendUint(b []byte, v uint64) []byte {
	var tmp [8]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte(v)
		v >>= 8
		if v == 0 {
			break
		}
	}
	return append(b, tmp[i:]...)
}

// intSize returns the number of bytes needed to encode n as a sign-and-
// magnitude Int, including room for the sign bit. Zero takes no bytes.
func intSize(n int64) uint64 {
	if n == 0 {
		return 0
	}
	mag := uint64(n)
	if n < 0 {
		mag = uint64(-n)
	}
	size := uintSize(mag)
	if mag>>((size-1)*8)&0x80 != 0 {
		size++
	}
	return size
}

// appendIntMag appends n as a sign-and-magnitude Int.
func appendIntMag(b []byte, n int64) []byte {
	if n == 0 {
		return b
	}
	neg := false
	mag := uint64(n)
	if n < 0 {
		neg = true
		mag = uint64(-n)
	}

	var tmp [8]byte
	bits := appendUint(tmp[:0], mag)

	if bits[0]&0x80 == 0 {
		if neg {
			bits[0] |= 0x80
		}
	} else {
		lead := byte(0)
		if neg {
			lead = 0x80
		}
		b = append(b, lead)
	}
	return append(b, bits...)
}

// bigIntSize returns the number of bytes needed to encode v as a
// sign-and-magnitude Int.
func bigIntSize(v *big.Int) uint64 {
	if v.Sign() == 0 {
		return 0
	}
	// Room for the sign bit: a multiple-of-8 bit length needs a fresh byte,
	// anything else rounds up into one.
	return uint64(v.BitLen()/8) + 1
}

// appendBigInt appends v as a sign-and-magnitude Int.
func appendBigInt(b []byte, v *big.Int) []byte {
	sign := v.Sign()
	if sign == 0 {
		return b
	}
	bits := v.Bytes()
	if bits[0]&0x80 == 0 {
		if sign < 0 {
			bits[0] |= 0x80
		}
	} else {
		lead := byte(0)
		if sign < 0 {
			lead = 0x80
		}
		b = append(b, lead)
	}
	return append(b, bits...)
}

// varUintSize returns the number of bytes needed to encode v as a VarUInt.
func varUintSize(v uint64) uint64 {
	n := uint64(1)
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// appendVarUint appends v as a VarUInt.
func appendVarUint(b []byte, v uint64) []byte {
	var tmp [10]byte
	i := len(tmp) - 1
	tmp[i] = 0x80 | byte(v&0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v & 0x7F)
	}
	return append(b, tmp[i:]...)
}

// varIntSize returns the number of bytes needed to encode v as a VarInt.
func varIntSize(v int64) uint64 {
	mag := uint64(v)
	if v < 0 {
		mag = uint64(-v)
	}
	// The first byte holds six bits of magnitude plus the sign.
	n := uint64(1)
	for mag >>= 6; mag > 0; mag >>= 7 {
		n++
	}
	return n
}

// appendVarInt appends v as a VarInt.
func appendVarInt(b []byte, v int64) []byte {
	sign := byte(0)
	mag := uint64(v)
	if v < 0 {
		sign = 0x40
		mag = uint64(-v)
	}

	if mag < 0x40 {
		return append(b, 0x80|sign|byte(mag))
	}

	var tmp [10]byte
	i := len(tmp) - 1
	tmp[i] = 0x80 | byte(mag&0x7F)
	mag >>= 7
	for mag >= 0x40 {
		i--
		tmp[i] = byte(mag & 0x7F)
		mag >>= 7
	}
	i--
	tmp[i] = sign | byte(mag)
	return append(b, tmp[i:]...)
}

// appendVarIntNegZero appends the VarInt encoding of negative zero, used by
// timestamps with an unknown offset.
func appendVarIntNegZero(b []byte) []byte {
	return append(b, 0xC0)
}

// tagSize returns the encoded size of a type descriptor for a value of the
// given payload length.
func tagSize(length uint64) uint64 {
	if length < 0x0E {
		return 1
	}
	return 1 + varUintSize(length)
}

// appendTag appends a type descriptor: the low nibble holds the length when
// it fits, otherwise the 0xE marker followed by a VarUInt length.
func appendTag(b []byte, code byte, length uint64) []byte {
	if length < 0x0E {
		return append(b, code|byte(length))
	}
	b = append(b, code|0x0E)
	return appendVarUint(b, length)
}
