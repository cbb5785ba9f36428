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
	"io"
	"math/big"
)

// A Writer writes a stream of Ion values to an output stream.
//
// The Write methods write scalars; the Begin/End pairs bracket containers.
// Inside a struct, FieldName must be called before each value. Annotation
// may be called any number of times (up to the configured limit) before any
// value.
//
// Writers remember the first error they hit, no-op every later call, and
// keep returning it, so straight-line writing code only needs to check the
// final Finish or Close:
//
//	w := ion.NewBinaryWriter(out)
//	w.BeginStruct()
//	w.FieldNameString("id")
//	w.WriteInt(7)
//	w.EndStruct()
//	if err := w.Finish(); err != nil {
//		return err
//	}
//
// Writing a top-level struct annotated $ion_symbol_table is intercepted: it
// is not emitted literally but becomes the writer's symbol-table context,
// exactly as if a reader had encountered it.
type Writer interface {
	// FieldName sets the field name for the next value written.
	FieldName(val SymbolToken) error

	// FieldNameString sets the field name for the next value from a string.
	FieldNameString(val string) error

	// Annotation adds an annotation to the next value written.
	Annotation(val SymbolToken) error

	// Annotations adds several annotations to the next value written.
	Annotations(vals ...SymbolToken) error

	// WriteNull writes an untyped null.
	WriteNull() error

	// WriteNullType writes a null with a type qualifier, e.g. null.bool.
	WriteNullType(t Type) error

	// WriteBool writes a boolean value.
	WriteBool(val bool) error

	// WriteInt writes an integer value.
	WriteInt(val int64) error

	// WriteUint writes an unsigned integer value.
	WriteUint(val uint64) error

	// WriteBigInt writes an arbitrary-size integer value.
	WriteBigInt(val *big.Int) error

	// WriteFloat writes a floating-point value.
	WriteFloat(val float64) error

	// WriteDecimal writes an arbitrary-precision decimal value.
	WriteDecimal(val *Decimal) error

	// WriteTimestamp writes a timestamp value.
	WriteTimestamp(val Timestamp) error

	// WriteSymbol writes a symbol value from a token.
	WriteSymbol(val SymbolToken) error

	// WriteSymbolFromString writes a symbol value from its text.
	WriteSymbolFromString(val string) error

	// WriteString writes a string value.
	WriteString(val string) error

	// WriteClob writes a clob value.
	WriteClob(val []byte) error

	// WriteBlob writes a blob value.
	WriteBlob(val []byte) error

	// BeginLob starts a streaming clob or blob; t must be ClobType or
	// BlobType. The lob is emitted as one value at FinishLob.
	BeginLob(t Type) error

	// AppendLob adds bytes to the lob started by BeginLob.
	AppendLob(val []byte) error

	// FinishLob emits the accumulated lob value.
	FinishLob() error

	// BeginList begins writing a list value.
	BeginList() error

	// EndList finishes writing a list value.
	EndList() error

	// BeginSexp begins writing an s-expression value.
	BeginSexp() error

	// EndSexp finishes writing an s-expression value.
	EndSexp() error

	// BeginStruct begins writing a struct value.
	BeginStruct() error

	// EndStruct finishes writing a struct value.
	EndStruct() error

	// WriteAllValues copies every remaining value from the reader into
	// this writer. Symbols with known text are re-interned into the
	// writer's context, so their symbol IDs are not carried over.
	WriteAllValues(r Reader) error

	// IsInStruct reports whether the writer is currently inside a struct.
	IsInStruct() bool

	// Depth returns the current container-nesting depth.
	Depth() int

	// SymbolTable returns the writer's active symbol-table context.
	SymbolTable() SymbolTable

	// Flush commits buffered bytes to the output. Symbols added since the
	// last flush are announced with a symbol-table append, so SIDs issued
	// before the flush remain valid after it. The text writer buffers
	// nothing; its Flush only checks the writer state and announces no
	// symbols.
	Flush() error

	// Finish flushes and then resets the writer to a fresh system
	// context. The binary writer precedes the next value with a version
	// marker; the text writer writes none.
	Finish() error

	// Close finishes the writer and releases its resources. Closing with
	// an open container or lob reports an error but still releases.
	Close() error
}

// writer holds the state shared by the binary and text writers.
type writer struct {
	out  io.Writer
	opts WriterOpts
	stack containerStack
	err  error

	fieldName   *SymbolToken
	annotations []SymbolToken

	lobType Type
	lobBuf  []byte

	icept lstIntercept
}

func (w *writer) FieldName(val SymbolToken) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		return w.icept.fieldName(val)
	}
	if !w.IsInStruct() {
		w.err = &UsageError{"Writer.FieldName", "called when not writing a struct"}
		return w.err
	}
	if w.lobType != NoType {
		w.err = &UsageError{"Writer.FieldName", "called with a lob in progress"}
		return w.err
	}

	w.fieldName = &val
	return nil
}

func (w *writer) FieldNameString(val string) error {
	return w.FieldName(NewSymbolTokenString(val))
}

func (w *writer) Annotation(val SymbolToken) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		// Annotations inside an intercepted symbol table are open content.
		return nil
	}
	if len(w.annotations) >= w.opts.MaxAnnotationCount {
		w.err = &TooManyAnnotationsError{w.opts.MaxAnnotationCount}
		return w.err
	}

	w.annotations = append(w.annotations, val)
	return nil
}

func (w *writer) Annotations(vals ...SymbolToken) error {
	for _, val := range vals {
		if err := w.Annotation(val); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) IsInStruct() bool {
	return w.stack.top() == StructType
}

func (w *writer) Depth() int {
	return w.stack.depth()
}

// clear resets the pending field name and annotations after a value is
// written or abandoned.
func (w *writer) clear() {
	w.fieldName = nil
	w.annotations = nil
}

// beginLob stages a streaming lob.
func (w *writer) beginLob(t Type) error {
	if w.err != nil {
		return w.err
	}
	if t != ClobType && t != BlobType {
		w.err = &UsageError{"Writer.BeginLob", "type must be clob or blob"}
		return w.err
	}
	if w.lobType != NoType {
		w.err = &UsageError{"Writer.BeginLob", "lob already in progress"}
		return w.err
	}

	w.lobType = t
	w.lobBuf = w.lobBuf[:0]
	return nil
}

// appendLob adds bytes to the staged lob.
func (w *writer) appendLob(val []byte) error {
	if w.err != nil {
		return w.err
	}
	if w.lobType == NoType {
		w.err = &UsageError{"Writer.AppendLob", "no lob in progress"}
		return w.err
	}

	w.lobBuf = append(w.lobBuf, val...)
	return nil
}

// takeLob returns the staged lob's type and bytes and clears the staging.
func (w *writer) takeLob() (Type, []byte, error) {
	if w.err != nil {
		return NoType, nil, w.err
	}
	if w.lobType == NoType {
		w.err = &UsageError{"Writer.FinishLob", "no lob in progress"}
		return NoType, nil, w.err
	}

	t := w.lobType
	w.lobType = NoType
	return t, w.lobBuf, nil
}

// checkFlushable verifies the state guards common to Flush and Finish.
func (w *writer) checkFlushable(api string) error {
	if w.stack.top() != NoType || w.icept.active() {
		return &UnexpectedEOFError{}
	}
	if w.lobType != NoType {
		return &UnexpectedEOFError{}
	}
	if w.fieldName != nil || len(w.annotations) > 0 {
		return &UsageError{api, "field name or annotations pending"}
	}
	return nil
}

// annotationIsSymbolTable reports whether the token resolves to
// $ion_symbol_table by text or SID.
func annotationIsSymbolTable(tok SymbolToken) bool {
	if tok.Text != nil {
		return *tok.Text == textSymbolTable
	}
	return tok.LocalSID == SymbolIDSymbolTable
}
