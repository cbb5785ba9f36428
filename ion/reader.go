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
	"bytes"
	"io"
	"math/big"
)

// A Reader reads a stream of Ion values.
//
// The Reader has a cursor-like API: Next advances it to the next value at
// the current depth and returns false at the end of the current container
// (or stream). StepIn enters the container the cursor is on; StepOut leaves
// it, regardless of how much of it has been consumed.
//
//	r := ion.NewReaderBytes(data)
//	for r.Next() {
//		// inspect r.Type() and read the value
//	}
//	if err := r.Err(); err != nil {
//		return err
//	}
//
// Local symbol tables in the stream are consumed and installed
// transparently; they never surface as values.
type Reader interface {
	// Next advances to the next value, reporting false at the end of the
	// current container or stream, or on error.
	Next() bool

	// Err returns the error that stopped Next, if any.
	Err() error

	// Type returns the type of the current value.
	Type() Type

	// IsNull reports whether the current value is null.
	IsNull() bool

	// FieldName returns the current value's field name, or nil outside a
	// struct.
	FieldName() (*SymbolToken, error)

	// Annotations returns the current value's annotations.
	Annotations() ([]SymbolToken, error)

	// StepIn enters the container the cursor is positioned on.
	StepIn() error

	// StepOut leaves the current container, skipping unread values.
	StepOut() error

	// Depth returns the current container-nesting depth.
	Depth() int

	// Pos returns the stream offset of the read cursor.
	Pos() uint64

	// SymbolTable returns the reader's active symbol-table context.
	SymbolTable() SymbolTable

	// BoolValue returns the current bool value; nil if null.bool.
	BoolValue() (*bool, error)

	// Int64Value returns the current int value; nil if null.int.
	Int64Value() (*int64, error)

	// BigIntValue returns the current int value at arbitrary size.
	BigIntValue() (*big.Int, error)

	// FloatValue returns the current float value; nil if null.float.
	FloatValue() (*float64, error)

	// DecimalValue returns the current decimal value; nil if null.decimal.
	DecimalValue() (*Decimal, error)

	// TimestampValue returns the current timestamp; nil if null.timestamp.
	TimestampValue() (*Timestamp, error)

	// StringValue returns the current string; nil if null.string.
	StringValue() (*string, error)

	// SymbolValue returns the current symbol value; nil if null.symbol.
	SymbolValue() (*SymbolToken, error)

	// ByteValue returns the current clob or blob contents; nil if null.
	ByteValue() ([]byte, error)
}

// NewReader creates a Reader over binary Ion input.
func NewReader(in io.Reader) Reader {
	return NewReaderCat(in, nil)
}

// NewReaderBytes creates a Reader over binary Ion bytes.
func NewReaderBytes(in []byte) Reader {
	return NewReader(bytes.NewReader(in))
}

// NewReaderCat creates a Reader that resolves shared-symbol-table imports
// against the given catalog.
func NewReaderCat(in io.Reader, cat Catalog) Reader {
	return newBinaryReader(in, cat)
}
