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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"
)

var _ Reader = &binaryReader{}

// A binaryReader is a cursor over a binary Ion stream.
type binaryReader struct {
	in  *bufio.Reader
	cat Catalog
	pos uint64

	lst SymbolTable
	stack containerStack
	// ends holds, per open container, the stream offset one past its end.
	ends []uint64

	eof bool
	err error

	valueType   Type
	valueNull   bool
	value       interface{}
	fieldName   *SymbolToken
	annotations []SymbolToken

	// For a container value: payload bounds, pending until StepIn or the
	// next Next call skips it.
	containerLen uint64
	unskipped    bool
}

func newBinaryReader(in io.Reader, cat Catalog) *binaryReader {
	return &binaryReader{
		in:  bufio.NewReader(in),
		cat: cat,
	}
}

func (r *binaryReader) Err() error {
	return r.err
}

func (r *binaryReader) Type() Type {
	return r.valueType
}

func (r *binaryReader) IsNull() bool {
	return r.valueNull
}

func (r *binaryReader) Depth() int {
	return r.stack.depth()
}

func (r *binaryReader) Pos() uint64 {
	return r.pos
}

func (r *binaryReader) SymbolTable() SymbolTable {
	if r.lst == nil {
		return V1SystemSymbolTable
	}
	return r.lst
}

func (r *binaryReader) FieldName() (*SymbolToken, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.fieldName, nil
}

func (r *binaryReader) Annotations() ([]SymbolToken, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.annotations, nil
}

// clear drops the current-value state.
func (r *binaryReader) clear() {
	r.valueType = NoType
	r.valueNull = false
	r.value = nil
	r.fieldName = nil
	r.annotations = nil
}

func (r *binaryReader) Next() bool {
	if r.eof || r.err != nil {
		return false
	}

	// Skip over a container the caller chose not to enter.
	if r.unskipped {
		r.unskipped = false
		if r.err = r.skip(r.containerLen); r.err != nil {
			return false
		}
	}

	r.clear()

	for {
		done, err := r.next()
		if err != nil {
			r.err = err
			return false
		}
		if done {
			return !r.eof
		}
	}
}

// next consumes one raw entity; done is true when it is a user-facing value
// or the end of the current container.
func (r *binaryReader) next() (bool, error) {
	if d := r.stack.depth(); d > 0 && r.pos >= r.ends[d-1] {
		r.eof = true
		return true, nil
	}

	// A field SID precedes every entity inside a struct. A pending field
	// name means this iteration is the value under an annotation wrapper,
	// whose field SID was already consumed.
	if r.stack.top() == StructType && r.fieldName == nil {
		sid, err := r.readVarUint()
		if err != nil {
			if err == io.EOF {
				return false, &UnexpectedEOFError{r.pos}
			}
			return false, err
		}
		tok, err := NewSymbolTokenBySID(r.SymbolTable(), int64(sid))
		if err != nil {
			return false, err
		}
		r.fieldName = &tok
	}

	tag, err := r.in.ReadByte()
	if err == io.EOF {
		if r.stack.depth() > 0 {
			return false, &UnexpectedEOFError{r.pos}
		}
		r.eof = true
		return true, nil
	}
	if err != nil {
		return false, &IOError{err}
	}
	r.pos++

	code := tag >> 4
	low := tag & 0x0F

	switch code {
	case 0x0: // null / NOP padding
		if low == 0x0F {
			r.valueType = NullType
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		if err := r.skip(length); err != nil {
			return false, err
		}
		r.fieldName = nil
		return false, nil

	case 0x1: // bool
		r.valueType = BoolType
		switch low {
		case 0x0:
			r.value = false
		case 0x1:
			r.value = true
		case 0xF:
			r.valueNull = true
		default:
			return false, &InvalidTagByteError{tag, r.pos - 1}
		}
		return true, nil

	case 0x2, 0x3: // int
		r.valueType = IntType
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		if err := r.readInt(code == 0x3, length, tag); err != nil {
			return false, err
		}
		return true, nil

	case 0x4: // float
		r.valueType = FloatType
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		if err := r.readFloat(low, tag); err != nil {
			return false, err
		}
		return true, nil

	case 0x5: // decimal
		r.valueType = DecimalType
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		if err := r.readDecimal(length); err != nil {
			return false, err
		}
		return true, nil

	case 0x6: // timestamp
		r.valueType = TimestampType
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		if err := r.readTimestamp(length); err != nil {
			return false, err
		}
		return true, nil

	case 0x7: // symbol
		r.valueType = SymbolType
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		sid := uint64(0)
		if length > 0 {
			bs, err := r.readN(length)
			if err != nil {
				return false, err
			}
			if length > 8 {
				return false, &SyntaxError{"symbol ID too large", r.pos}
			}
			for _, b := range bs {
				sid = sid<<8 | uint64(b)
			}
		}
		tok, err := NewSymbolTokenBySID(r.SymbolTable(), int64(sid))
		if err != nil {
			return false, err
		}
		r.value = &tok
		return true, nil

	case 0x8: // string
		r.valueType = StringType
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		bs, err := r.readN(length)
		if err != nil {
			return false, err
		}
		r.value = string(bs)
		return true, nil

	case 0x9, 0xA: // clob, blob
		r.valueType = ClobType
		if code == 0xA {
			r.valueType = BlobType
		}
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		bs, err := r.readN(length)
		if err != nil {
			return false, err
		}
		r.value = bs
		return true, nil

	case 0xB, 0xC, 0xD: // list, sexp, struct
		switch code {
		case 0xB:
			r.valueType = ListType
		case 0xC:
			r.valueType = SexpType
		default:
			r.valueType = StructType
		}
		if low == 0xF {
			r.valueNull = true
			return true, nil
		}
		length, err := r.readLength(low)
		if err != nil {
			return false, err
		}
		r.containerLen = length
		r.unskipped = true

		// A top-level $ion_symbol_table struct configures the reader
		// rather than surfacing as a value.
		if r.valueType == StructType && r.stack.top() == NoType && isSymbolTableAnnotation(r.annotations) {
			st, err := readLocalSymbolTable(r, r.cat)
			if err != nil {
				return false, err
			}
			r.lst = st
			r.clear()
			return false, nil
		}
		return true, nil

	case 0xE: // version marker or annotation wrapper
		if r.stack.top() == NoType && low == 0x0 {
			return false, r.readBVM()
		}
		return false, r.readAnnotations(low, tag)

	default: // 0xF is reserved
		return false, &InvalidTagByteError{tag, r.pos - 1}
	}
}

// isSymbolTableAnnotation reports whether the first annotation is
// $ion_symbol_table.
func isSymbolTableAnnotation(as []SymbolToken) bool {
	if len(as) == 0 {
		return false
	}
	if as[0].Text != nil {
		return *as[0].Text == textSymbolTable
	}
	return as[0].LocalSID == SymbolIDSymbolTable
}

// readBVM validates the rest of a binary version marker and resets the
// symbol-table context.
func (r *binaryReader) readBVM() error {
	bs, err := r.readN(3)
	if err != nil {
		return err
	}
	if bs[2] != 0xEA {
		return &SyntaxError{"malformed version marker", r.pos - 4}
	}
	if bs[0] != 0x01 || bs[1] != 0x00 {
		return &UnsupportedVersionError{int(bs[0]), int(bs[1]), r.pos - 4}
	}
	r.lst = nil
	r.clear()
	return nil
}

// readAnnotations consumes an annotation wrapper's SIDs; the wrapped value
// is read by the caller's next iteration.
func (r *binaryReader) readAnnotations(low byte, tag byte) error {
	if _, err := r.readLength(low); err != nil {
		return err
	}
	annotLen, err := r.readVarUint()
	if err != nil {
		return err
	}
	if annotLen == 0 {
		return &InvalidTagByteError{tag, r.pos}
	}

	end := r.pos + annotLen
	var as []SymbolToken
	for r.pos < end {
		sid, err := r.readVarUint()
		if err != nil {
			return err
		}
		tok, err := NewSymbolTokenBySID(r.SymbolTable(), int64(sid))
		if err != nil {
			return err
		}
		as = append(as, tok)
	}
	r.annotations = as
	return nil
}

func (r *binaryReader) StepIn() error {
	if r.err != nil {
		return r.err
	}
	if !r.valueType.IsContainer() {
		return &UsageError{"Reader.StepIn", fmt.Sprintf("cannot step in to a %v", r.valueType)}
	}
	if r.valueNull {
		return &UsageError{"Reader.StepIn", "cannot step in to a null container"}
	}
	if !r.unskipped {
		return &UsageError{"Reader.StepIn", "value already passed"}
	}

	r.stack.push(r.valueType)
	r.ends = append(r.ends, r.pos+r.containerLen)
	r.unskipped = false
	r.clear()
	return nil
}

func (r *binaryReader) StepOut() error {
	if r.err != nil {
		return r.err
	}
	if r.stack.top() == NoType {
		return &UsageError{"Reader.StepOut", "cannot step out of the top level"}
	}

	if r.unskipped {
		r.unskipped = false
		if err := r.skip(r.containerLen); err != nil {
			r.err = err
			return err
		}
	}

	end := r.ends[len(r.ends)-1]
	if end < r.pos {
		return &SyntaxError{"container contents overran the declared length", r.pos}
	}
	if err := r.skip(end - r.pos); err != nil {
		r.err = err
		return err
	}

	r.ends = r.ends[:len(r.ends)-1]
	r.stack.pop()
	r.clear()
	r.eof = false
	return nil
}

// Value accessors.

func (r *binaryReader) BoolValue() (*bool, error) {
	if err := r.wantType("Reader.BoolValue", BoolType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	v := r.value.(bool)
	return &v, nil
}

func (r *binaryReader) Int64Value() (*int64, error) {
	if err := r.wantType("Reader.Int64Value", IntType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	switch v := r.value.(type) {
	case int64:
		return &v, nil
	case *big.Int:
		if v.IsInt64() {
			i := v.Int64()
			return &i, nil
		}
		return nil, &NumericOverflowError{"Reader.Int64Value"}
	}
	return nil, &UsageError{"Reader.Int64Value", "unexpected value representation"}
}

func (r *binaryReader) BigIntValue() (*big.Int, error) {
	if err := r.wantType("Reader.BigIntValue", IntType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	switch v := r.value.(type) {
	case int64:
		return big.NewInt(v), nil
	case *big.Int:
		return v, nil
	}
	return nil, &UsageError{"Reader.BigIntValue", "unexpected value representation"}
}

func (r *binaryReader) FloatValue() (*float64, error) {
	if err := r.wantType("Reader.FloatValue", FloatType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	v := r.value.(float64)
	return &v, nil
}

func (r *binaryReader) DecimalValue() (*Decimal, error) {
	if err := r.wantType("Reader.DecimalValue", DecimalType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	return r.value.(*Decimal), nil
}

func (r *binaryReader) TimestampValue() (*Timestamp, error) {
	if err := r.wantType("Reader.TimestampValue", TimestampType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	v := r.value.(Timestamp)
	return &v, nil
}

func (r *binaryReader) StringValue() (*string, error) {
	if err := r.wantType("Reader.StringValue", StringType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	v := r.value.(string)
	return &v, nil
}

func (r *binaryReader) SymbolValue() (*SymbolToken, error) {
	if err := r.wantType("Reader.SymbolValue", SymbolType); err != nil {
		return nil, err
	}
	if r.valueNull {
		return nil, nil
	}
	return r.value.(*SymbolToken), nil
}

func (r *binaryReader) ByteValue() ([]byte, error) {
	if r.valueType != ClobType && r.valueType != BlobType {
		return nil, &UsageError{"Reader.ByteValue", fmt.Sprintf("value is a %v", r.valueType)}
	}
	if r.valueNull {
		return nil, nil
	}
	return r.value.([]byte), nil
}

func (r *binaryReader) wantType(api string, t Type) (err error) {
	if r.err != nil {
		return r.err
	}
	if r.valueType != t {
		return &UsageError{api, fmt.Sprintf("value is a %v, not a %v", r.valueType, t)}
	}
	return nil
}

// Low-level input.

func (r *binaryReader) readN(n uint64) ([]byte, error) {
	bs := make([]byte, n)
	if _, err := io.ReadFull(r.in, bs); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &UnexpectedEOFError{r.pos}
		}
		return nil, &IOError{err}
	}
	r.pos += n
	return bs, nil
}

func (r *binaryReader) skip(n uint64) error {
	if _, err := io.CopyN(io.Discard, r.in, int64(n)); err != nil {
		if err == io.EOF {
			return &UnexpectedEOFError{r.pos}
		}
		return &IOError{err}
	}
	r.pos += n
	return nil
}

// readLength resolves a tag's low nibble into a payload length.
func (r *binaryReader) readLength(low byte) (uint64, error) {
	if low < 0x0E {
		return uint64(low), nil
	}
	return r.readVarUint()
}

func (r *binaryReader) readVarUint() (uint64, error) {
	v := uint64(0)
	for i := 0; ; i++ {
		b, err := r.in.ReadByte()
		if err != nil {
			if err == io.EOF && i == 0 && r.stack.depth() == 0 {
				return 0, io.EOF
			}
			if err == io.EOF {
				return 0, &UnexpectedEOFError{r.pos}
			}
			return 0, &IOError{err}
		}
		r.pos++

		if i >= 10 {
			return 0, &NumericOverflowError{"VarUInt"}
		}
		v = v<<7 | uint64(b&0x7F)
		if b&0x80 != 0 {
			return v, nil
		}
	}
}

// readVarInt returns the value and whether it was negative zero.
func (r *binaryReader) readVarInt() (int64, bool, error) {
	b, err := r.in.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, false, &UnexpectedEOFError{r.pos}
		}
		return 0, false, &IOError{err}
	}
	r.pos++

	neg := b&0x40 != 0
	v := int64(b & 0x3F)
	for b&0x80 == 0 {
		b, err = r.in.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, false, &UnexpectedEOFError{r.pos}
			}
			return 0, false, &IOError{err}
		}
		r.pos++
		v = v<<7 | int64(b&0x7F)
	}

	if neg {
		if v == 0 {
			return 0, true, nil
		}
		v = -v
	}
	return v, false, nil
}

// readInt reads a fixed-width magnitude int payload.
func (r *binaryReader) readInt(neg bool, length uint64, tag byte) error {
	if length == 0 {
		if neg {
			return &InvalidTagByteError{tag, r.pos - 1}
		}
		r.value = int64(0)
		return nil
	}

	bs, err := r.readN(length)
	if err != nil {
		return err
	}

	if length < 8 || length == 8 && bs[0]&0x80 == 0 {
		v := int64(0)
		for _, b := range bs {
			v = v<<8 | int64(b)
		}
		if neg {
			if v == 0 {
				return &SyntaxError{"int zero may not be negative", r.pos}
			}
			v = -v
		}
		r.value = v
		return nil
	}

	v := new(big.Int).SetBytes(bs)
	if neg {
		if v.Sign() == 0 {
			return &SyntaxError{"int zero may not be negative", r.pos}
		}
		v.Neg(v)
	}
	r.value = v
	return nil
}

func (r *binaryReader) readFloat(low byte, tag byte) error {
	switch low {
	case 0:
		r.value = float64(0)
	case 4:
		bs, err := r.readN(4)
		if err != nil {
			return err
		}
		r.value = float64(math.Float32frombits(binary.BigEndian.Uint32(bs)))
	case 8:
		bs, err := r.readN(8)
		if err != nil {
			return err
		}
		r.value = math.Float64frombits(binary.BigEndian.Uint64(bs))
	default:
		return &InvalidTagByteError{tag, r.pos - 1}
	}
	return nil
}

func (r *binaryReader) readDecimal(length uint64) error {
	end := r.pos + length

	exp := int64(0)
	if length > 0 {
		v, _, err := r.readVarInt()
		if err != nil {
			return err
		}
		exp = v
	}

	coef := new(big.Int)
	negZero := false
	if r.pos < end {
		bs, err := r.readN(end - r.pos)
		if err != nil {
			return err
		}
		neg := bs[0]&0x80 != 0
		bs[0] &= 0x7F
		coef.SetBytes(bs)
		if neg {
			if coef.Sign() == 0 {
				negZero = true
			} else {
				coef.Neg(coef)
			}
		}
	}

	if exp > math.MaxInt32 || exp < math.MinInt32 {
		return &NumericOverflowError{"Reader.DecimalValue"}
	}
	r.value = NewDecimal(coef, int32(exp), negZero)
	return nil
}

func (r *binaryReader) readTimestamp(length uint64) error {
	end := r.pos + length

	offset, offsetUnknown, err := r.readVarInt()
	if err != nil {
		return err
	}

	read := func() (uint64, error) {
		if r.pos >= end {
			return 0, nil
		}
		return r.readVarUint()
	}

	year, err := r.readVarUint()
	if err != nil {
		return err
	}
	precision := TimestampPrecisionYear

	month := uint64(1)
	if r.pos < end {
		if month, err = read(); err != nil {
			return err
		}
		precision = TimestampPrecisionMonth
	}
	day := uint64(1)
	if r.pos < end {
		if day, err = read(); err != nil {
			return err
		}
		precision = TimestampPrecisionDay
	}
	var hour, minute, sec uint64
	if r.pos < end {
		if hour, err = read(); err != nil {
			return err
		}
		if minute, err = read(); err != nil {
			return err
		}
		precision = TimestampPrecisionMinute
	}
	if r.pos < end {
		if sec, err = read(); err != nil {
			return err
		}
		precision = TimestampPrecisionSecond
	}

	ns := 0
	fractionDigits := uint8(0)
	if r.pos < end {
		fexp, _, err := r.readVarInt()
		if err != nil {
			return err
		}
		if fexp < -9 || fexp > 0 {
			return &SyntaxError{"unsupported timestamp fraction exponent", r.pos}
		}
		fractionDigits = uint8(-fexp)
		precision = TimestampPrecisionNanosecond

		coef := int64(0)
		if r.pos < end {
			bs, err := r.readN(end - r.pos)
			if err != nil {
				return err
			}
			if len(bs) > 8 {
				return &NumericOverflowError{"Reader.TimestampValue"}
			}
			for _, b := range bs {
				coef = coef<<8 | int64(b&0xFF)
			}
			coef &^= int64(1) << (uint(len(bs))*8 - 1) // clear sign bit
		}
		for i := uint8(0); i < 9-fractionDigits; i++ {
			coef *= 10
		}
		ns = int(coef)
	}

	kind := TimezoneLocal
	loc := time.UTC
	switch {
	case offsetUnknown:
		kind = TimezoneUnspecified
	case offset == 0:
		kind = TimezoneUTC
	default:
		loc = time.FixedZone(fmt.Sprintf("%+03d:%02d", offset/60, abs(offset)%60), int(offset)*60)
	}

	dt := time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), int(sec), ns, time.UTC)
	if kind == TimezoneLocal {
		dt = dt.In(loc)
	}

	r.value = NewTimestamp(dt, precision, kind, fractionDigits)
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
