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
	"strings"
	"time"
)

// TimestampPrecision marks the last component of a timestamp that carries
// information; later components are unknown rather than zero.
type TimestampPrecision uint8

const (
	TimestampPrecisionYear TimestampPrecision = iota
	TimestampPrecisionMonth
	TimestampPrecisionDay
	TimestampPrecisionMinute
	TimestampPrecisionSecond
	TimestampPrecisionNanosecond
)

// TimezoneKind distinguishes a known offset from an unknown one.
type TimezoneKind uint8

const (
	// TimezoneUnspecified means the local offset is unknown; text form -00:00.
	TimezoneUnspecified TimezoneKind = iota
	// TimezoneUTC means the timestamp is in UTC; text form Z.
	TimezoneUTC
	// TimezoneLocal carries an explicit offset; text form ±hh:mm.
	TimezoneLocal
)

// A Timestamp is a point in time with an explicit precision and offset
// knowledge, as Ion models it. Two timestamps naming the same instant at
// different precisions are distinct values.
type Timestamp struct {
	dateTime      time.Time
	precision     TimestampPrecision
	kind          TimezoneKind
	fractionDigits uint8
}

// NewTimestamp creates a timestamp at the given precision. fractionDigits is
// only meaningful at nanosecond precision and gives the number of decimal
// digits of the second fraction that are significant.
func NewTimestamp(dateTime time.Time, precision TimestampPrecision, kind TimezoneKind, fractionDigits uint8) Timestamp {
	if precision < TimestampPrecisionNanosecond {
		fractionDigits = 0
	} else if fractionDigits > 9 {
		fractionDigits = 9
	}
	return Timestamp{
		dateTime:      dateTime,
		precision:     precision,
		kind:          kind,
		fractionDigits: fractionDigits,
	}
}

// NewDateTimestamp creates a day-precision timestamp with unknown offset.
func NewDateTimestamp(year int, month time.Month, day int) Timestamp {
	dt := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Timestamp{dateTime: dt, precision: TimestampPrecisionDay, kind: TimezoneUnspecified}
}

// DateTime returns the underlying time.Time.
func (ts Timestamp) DateTime() time.Time {
	return ts.dateTime
}

// Precision returns the timestamp's precision.
func (ts Timestamp) Precision() TimestampPrecision {
	return ts.precision
}

// Kind returns the timestamp's timezone knowledge.
func (ts Timestamp) Kind() TimezoneKind {
	return ts.kind
}

// FractionDigits returns the count of significant second-fraction digits.
func (ts Timestamp) FractionDigits() uint8 {
	return ts.fractionDigits
}

// truncatedNanoseconds returns the nanosecond field truncated to the
// timestamp's significant fraction digits.
func (ts Timestamp) truncatedNanoseconds() int {
	ns := ts.dateTime.Nanosecond()
	for i := uint8(0); i < 9-ts.fractionDigits; i++ {
		ns /= 10
	}
	return ns
}

// Equal reports whether two timestamps are the same Ion value: same instant,
// precision, offset knowledge, and fraction width.
func (ts Timestamp) Equal(o Timestamp) bool {
	return ts.precision == o.precision &&
		ts.kind == o.kind &&
		ts.fractionDigits == o.fractionDigits &&
		ts.dateTime.Equal(o.dateTime)
}

// String formats the timestamp in Ion text form, truncating at its
// precision and printing -00:00 for an unknown offset.
func (ts Timestamp) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%04d", ts.dateTime.Year())
	if ts.precision == TimestampPrecisionYear {
		b.WriteByte('T')
		return b.String()
	}

	fmt.Fprintf(&b, "-%02d", int(ts.dateTime.Month()))
	if ts.precision == TimestampPrecisionMonth {
		b.WriteByte('T')
		return b.String()
	}

	fmt.Fprintf(&b, "-%02d", ts.dateTime.Day())
	if ts.precision == TimestampPrecisionDay {
		b.WriteByte('T')
		return b.String()
	}

	fmt.Fprintf(&b, "T%02d:%02d", ts.dateTime.Hour(), ts.dateTime.Minute())

	if ts.precision >= TimestampPrecisionSecond {
		fmt.Fprintf(&b, ":%02d", ts.dateTime.Second())
	}

	if ts.precision == TimestampPrecisionNanosecond && ts.fractionDigits > 0 {
		fmt.Fprintf(&b, ".%0*d", ts.fractionDigits, ts.truncatedNanoseconds())
	}

	switch ts.kind {
	case TimezoneUTC:
		b.WriteByte('Z')
	case TimezoneUnspecified:
		b.WriteString("-00:00")
	default:
		_, secs := ts.dateTime.Zone()
		sign := '+'
		if secs < 0 {
			sign = '-'
			secs = -secs
		}
		fmt.Fprintf(&b, "%c%02d:%02d", sign, secs/3600, (secs/60)%60)
	}

	return b.String()
}

// timestampSize returns the binary payload size of ts given its offset in
// minutes.
func timestampSize(offset int, ts Timestamp) uint64 {
	var size uint64
	if ts.kind == TimezoneUnspecified {
		size = 1 // VarInt negative zero
	} else {
		size = varIntSize(int64(offset))
	}

	size += varUintSize(uint64(ts.dateTime.Year()))

	// Month through second are single VarUInt bytes.
	switch ts.precision {
	case TimestampPrecisionMonth:
		size++
	case TimestampPrecisionDay:
		size += 2
	case TimestampPrecisionMinute:
		size += 4
	case TimestampPrecisionSecond, TimestampPrecisionNanosecond:
		size += 5
	}

	if ts.precision == TimestampPrecisionNanosecond && ts.fractionDigits > 0 {
		size++ // fraction exponent
		if ns := ts.truncatedNanoseconds(); ns > 0 {
			size += intSize(int64(ns))
		}
	}

	return size
}

// appendTimestamp appends the binary payload of ts, which must already be
// normalized to UTC, with the original offset in minutes.
func appendTimestamp(b []byte, offset int, ts Timestamp) []byte {
	if ts.kind == TimezoneUnspecified {
		b = appendVarIntNegZero(b)
	} else {
		b = appendVarInt(b, int64(offset))
	}

	b = appendVarUint(b, uint64(ts.dateTime.Year()))

	if ts.precision >= TimestampPrecisionMonth {
		b = appendVarUint(b, uint64(ts.dateTime.Month()))
	}
	if ts.precision >= TimestampPrecisionDay {
		b = appendVarUint(b, uint64(ts.dateTime.Day()))
	}
	if ts.precision >= TimestampPrecisionMinute {
		b = appendVarUint(b, uint64(ts.dateTime.Hour()))
		b = appendVarUint(b, uint64(ts.dateTime.Minute()))
	}
	if ts.precision >= TimestampPrecisionSecond {
		b = appendVarUint(b, uint64(ts.dateTime.Second()))
	}

	if ts.precision == TimestampPrecisionNanosecond && ts.fractionDigits > 0 {
		// The fraction is a decimal: exponent -digits, coefficient ns.
		b = append(b, 0xC0|ts.fractionDigits)
		if ns := ts.truncatedNanoseconds(); ns > 0 {
			b = appendIntMag(b, int64(ns))
		}
	}

	return b
}
