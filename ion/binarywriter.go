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
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"
)

// ivm is the Ion 1.0 binary version marker.
var ivm = []byte{0xE0, 0x01, 0x00, 0xEA}

// binaryNulls maps a type to its typed-null descriptor.
var binaryNulls = [...]byte{
	NullType:      0x0F,
	BoolType:      0x1F,
	IntType:       0x2F,
	FloatType:     0x4F,
	DecimalType:   0x5F,
	TimestampType: 0x6F,
	SymbolType:    0x7F,
	StringType:    0x8F,
	ClobType:      0x9F,
	BlobType:      0xAF,
	ListType:      0xBF,
	SexpType:      0xCF,
	StructType:    0xDF,
}

var _ Writer = &binaryWriter{}

// A binaryWriter writes binary Ion into a scratch stream, back-patching
// container headers at flush time.
type binaryWriter struct {
	writer
	scratch *scratchStream

	lstb SymbolTableBuilder

	// contextEmitted is true once the IVM and initial symbol table of the
	// current context have reached the output.
	contextEmitted bool
	// flushedSymbols counts the local symbols already announced, so a
	// mid-stream flush only appends the new ones.
	flushedSymbols int

	// annotated tracks, per open container, whether an annotation wrapper
	// patch encloses it.
	annotated []bool

	// raw disables symbol-table management and interception; used for the
	// writer that serializes the symbol table itself.
	raw bool
}

func newBinaryWriter(out io.Writer, opts WriterOpts) *binaryWriter {
	opts = opts.withDefaults()
	return &binaryWriter{
		writer:  writer{out: out, opts: opts},
		scratch: newScratchStream(opts.TempBufferSize),
		lstb:    NewSymbolTableBuilder(opts.Imports...),
	}
}

// newRawBinaryWriter returns a writer that emits exactly what it is given:
// no IVM, no symbol-table tracking, no interception.
func newRawBinaryWriter(out io.Writer, opts WriterOpts) *binaryWriter {
	w := newBinaryWriter(out, opts)
	w.raw = true
	return w
}

func (w *binaryWriter) SymbolTable() SymbolTable {
	return w.lstb
}

func (w *binaryWriter) WriteNull() error {
	return w.writeValue("Writer.WriteNull", NullType, nil, []byte{0x0F})
}

func (w *binaryWriter) WriteNullType(t Type) error {
	if t == NoType || int(t) >= len(binaryNulls) {
		if w.err == nil {
			w.err = &UsageError{"Writer.WriteNullType", fmt.Sprintf("cannot write a null of type %v", t)}
		}
		return w.err
	}
	return w.writeValue("Writer.WriteNullType", t, nil, []byte{binaryNulls[t]})
}

func (w *binaryWriter) WriteBool(val bool) error {
	b := byte(0x10)
	if val {
		b = 0x11
	}
	return w.writeValue("Writer.WriteBool", BoolType, val, []byte{b})
}

func (w *binaryWriter) WriteInt(val int64) error {
	if val == 0 {
		return w.writeValue("Writer.WriteInt", IntType, val, []byte{0x20})
	}

	code := byte(0x20)
	mag := uint64(val)
	if val < 0 {
		code = 0x30
		mag = uint64(-val)
	}

	size := uintSize(mag)
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, code, size)
	buf = appendUint(buf, mag)

	return w.writeValue("Writer.WriteInt", IntType, val, buf)
}

func (w *binaryWriter) WriteUint(val uint64) error {
	if val == 0 {
		return w.writeValue("Writer.WriteUint", IntType, int64(0), []byte{0x20})
	}

	size := uintSize(val)
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, 0x20, size)
	buf = appendUint(buf, val)

	var iv interface{}
	if val <= math.MaxInt64 {
		iv = int64(val)
	}
	return w.writeValue("Writer.WriteUint", IntType, iv, buf)
}

func (w *binaryWriter) WriteBigInt(val *big.Int) error {
	sign := val.Sign()
	if sign == 0 {
		return w.writeValue("Writer.WriteBigInt", IntType, nil, []byte{0x20})
	}

	code := byte(0x20)
	if sign < 0 {
		code = 0x30
	}

	mag := val.Bytes()
	size := uint64(len(mag))
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, code, size)
	buf = append(buf, mag...)

	return w.writeValue("Writer.WriteBigInt", IntType, nil, buf)
}

func (w *binaryWriter) WriteFloat(val float64) error {
	if val == 0 && !math.Signbit(val) {
		return w.writeValue("Writer.WriteFloat", FloatType, val, []byte{0x40})
	}

	// A 32-bit encoding is used only when it loses nothing.
	if w.opts.CompactFloats && (float64(float32(val)) == val || math.IsNaN(val)) {
		buf := make([]byte, 5)
		buf[0] = 0x44
		binary.BigEndian.PutUint32(buf[1:], math.Float32bits(float32(val)))
		return w.writeValue("Writer.WriteFloat", FloatType, val, buf)
	}

	buf := make([]byte, 9)
	buf[0] = 0x48
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(val))
	return w.writeValue("Writer.WriteFloat", FloatType, val, buf)
}

func (w *binaryWriter) WriteDecimal(val *Decimal) error {
	coef, exp := val.CoEx()

	// Positive 0d0 is the single descriptor byte.
	if coef.Sign() == 0 && exp == 0 && !val.IsNegZero() {
		return w.writeValue("Writer.WriteDecimal", DecimalType, nil, []byte{0x50})
	}

	size := varIntSize(int64(exp))
	if val.IsNegZero() {
		size++ // coefficient is Int negative zero: a lone sign byte
	} else {
		size += bigIntSize(coef)
	}

	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, 0x50, size)
	buf = appendVarInt(buf, int64(exp))
	if val.IsNegZero() {
		buf = append(buf, 0x80)
	} else {
		buf = appendBigInt(buf, coef)
	}

	return w.writeValue("Writer.WriteDecimal", DecimalType, nil, buf)
}

func (w *binaryWriter) WriteTimestamp(val Timestamp) error {
	if y := val.dateTime.Year(); y < 1 || y > 9999 {
		if w.err == nil {
			w.err = &InvalidTimestampError{fmt.Sprintf("year %v out of range", y)}
		}
		return w.err
	}

	_, offset := val.dateTime.Zone()
	offset /= 60
	val.dateTime = val.dateTime.In(time.UTC)

	size := timestampSize(offset, val)
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, 0x60, size)
	buf = appendTimestamp(buf, offset, val)

	return w.writeValue("Writer.WriteTimestamp", TimestampType, nil, buf)
}

func (w *binaryWriter) WriteSymbol(val SymbolToken) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		w.err = w.icept.scalar(SymbolType, val)
		return w.err
	}

	// A lone $ion_1_0 at the top level would read back as a version
	// marker, so writing one emits nothing.
	if !w.raw && w.stack.top() == NoType && w.fieldName == nil && len(w.annotations) == 0 {
		if val.Text != nil && *val.Text == textIon10 ||
			val.Text == nil && val.LocalSID == SymbolIDIon10 {
			return nil
		}
	}

	sid, err := w.resolveSID("Writer.WriteSymbol", val)
	if err != nil {
		w.err = err
		return w.err
	}
	return w.writeSymbolSID("Writer.WriteSymbol", sid)
}

func (w *binaryWriter) WriteSymbolFromString(val string) error {
	return w.WriteSymbol(NewSymbolTokenString(val))
}

func (w *binaryWriter) writeSymbolSID(api string, sid uint64) error {
	if sid == 0 {
		return w.writeValueRaw(api, []byte{0x70})
	}
	size := uintSize(sid)
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, 0x70, size)
	buf = appendUint(buf, sid)
	return w.writeValueRaw(api, buf)
}

func (w *binaryWriter) WriteString(val string) error {
	if len(val) == 0 {
		return w.writeValue("Writer.WriteString", StringType, val, []byte{0x80})
	}

	size := uint64(len(val))
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, 0x80, size)
	buf = append(buf, val...)

	return w.writeValue("Writer.WriteString", StringType, val, buf)
}

func (w *binaryWriter) WriteClob(val []byte) error {
	return w.writeLob("Writer.WriteClob", 0x90, val)
}

func (w *binaryWriter) WriteBlob(val []byte) error {
	return w.writeLob("Writer.WriteBlob", 0xA0, val)
}

func (w *binaryWriter) writeLob(api string, code byte, val []byte) error {
	size := uint64(len(val))
	buf := make([]byte, 0, size+tagSize(size))
	buf = appendTag(buf, code, size)
	buf = append(buf, val...)

	t := ClobType
	if code == 0xA0 {
		t = BlobType
	}
	return w.writeValue(api, t, nil, buf)
}

func (w *binaryWriter) BeginLob(t Type) error {
	return w.beginLob(t)
}

func (w *binaryWriter) AppendLob(val []byte) error {
	return w.appendLob(val)
}

func (w *binaryWriter) FinishLob() error {
	t, bs, err := w.takeLob()
	if err != nil {
		return err
	}
	if t == ClobType {
		return w.WriteClob(bs)
	}
	return w.WriteBlob(bs)
}

func (w *binaryWriter) BeginList() error {
	return w.begin("Writer.BeginList", ListType, 0xB0)
}

func (w *binaryWriter) EndList() error {
	return w.end("Writer.EndList", ListType)
}

func (w *binaryWriter) BeginSexp() error {
	return w.begin("Writer.BeginSexp", SexpType, 0xC0)
}

func (w *binaryWriter) EndSexp() error {
	return w.end("Writer.EndSexp", SexpType)
}

func (w *binaryWriter) BeginStruct() error {
	if w.err != nil {
		return w.err
	}
	if !w.raw && !w.icept.active() && w.stack.top() == NoType &&
		len(w.annotations) > 0 && annotationIsSymbolTable(w.annotations[0]) {
		w.clear()
		w.icept.begin(w.opts.Catalog, w.lstb)
		return nil
	}
	return w.begin("Writer.BeginStruct", StructType, 0xD0)
}

func (w *binaryWriter) EndStruct() error {
	return w.end("Writer.EndStruct", StructType)
}

func (w *binaryWriter) WriteAllValues(r Reader) error {
	return writeAllValues(w, r)
}

func (w *binaryWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.checkFlushable("Writer.Flush"); err != nil {
		w.err = err
		return w.err
	}
	w.err = w.flush()
	return w.err
}

func (w *binaryWriter) Finish() error {
	if err := w.Flush(); err != nil {
		return err
	}

	w.lstb = NewSymbolTableBuilder(w.opts.Imports...)
	w.contextEmitted = false
	w.flushedSymbols = 0
	return nil
}

func (w *binaryWriter) Close() error {
	if w.err == nil {
		if w.stack.top() != NoType || w.lobType != NoType || w.icept.active() {
			w.err = &UnexpectedEOFError{}
		} else {
			w.Finish()
		}
	}

	w.scratch = nil
	w.annotated = nil
	w.lobBuf = nil
	return w.err
}

// writeValue routes a scalar through interception or emits its
// pre-encoded bytes.
func (w *binaryWriter) writeValue(api string, t Type, iv interface{}, bs []byte) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		w.err = w.icept.scalar(t, iv)
		return w.err
	}
	return w.writeValueRaw(api, bs)
}

// writeValueRaw emits pre-encoded value bytes with field-name and
// annotation bookkeeping.
func (w *binaryWriter) writeValueRaw(api string, bs []byte) error {
	annotated, err := w.beginValue(api)
	if err != nil {
		w.err = err
		return w.err
	}

	w.scratch.append(bs)

	w.err = w.endValue(annotated)
	return w.err
}

// beginValue writes the pending field name and opens the annotation
// wrapper, if any. It reports whether a wrapper was opened.
func (w *binaryWriter) beginValue(api string) (bool, error) {
	if w.lobType != NoType {
		return false, &UsageError{api, "lob in progress"}
	}

	name := w.fieldName
	as := w.annotations
	w.clear()

	if w.IsInStruct() {
		if name == nil {
			return false, &UsageError{api, "field name not set"}
		}
		sid, err := w.resolveSID(api, *name)
		if err != nil {
			return false, err
		}
		var buf [10]byte
		w.scratch.append(appendVarUint(buf[:0], sid))
	}

	if len(as) == 0 {
		return false, nil
	}

	sids := make([]uint64, len(as))
	sidLen := uint64(0)
	for i, a := range as {
		sid, err := w.resolveSID(api, a)
		if err != nil {
			return false, err
		}
		sids[i] = sid
		sidLen += varUintSize(sid)
	}

	w.scratch.beginPatch(0xE0)
	buf := make([]byte, 0, sidLen+varUintSize(sidLen))
	buf = appendVarUint(buf, sidLen)
	for _, sid := range sids {
		buf = appendVarUint(buf, sid)
	}
	w.scratch.append(buf)

	return true, nil
}

// endValue closes a scalar's annotation wrapper and honours
// FlushEveryValue at the top level.
func (w *binaryWriter) endValue(annotated bool) error {
	if annotated {
		w.scratch.endPatch()
	}
	if w.stack.top() == NoType && w.opts.FlushEveryValue && !w.raw {
		return w.flush()
	}
	return nil
}

// begin opens a container.
func (w *binaryWriter) begin(api string, t Type, code byte) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		w.err = w.icept.beginContainer(t)
		return w.err
	}
	if w.stack.depth() >= w.opts.MaxContainerDepth {
		w.err = &UsageError{api, "maximum container depth exceeded"}
		return w.err
	}

	annotated, err := w.beginValue(api)
	if err != nil {
		w.err = err
		return w.err
	}

	w.stack.push(t)
	w.annotated = append(w.annotated, annotated)
	w.scratch.beginPatch(code)
	return nil
}

// end closes a container.
func (w *binaryWriter) end(api string, t Type) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		finished, err := w.icept.endContainer(t)
		if err != nil {
			w.err = err
			return w.err
		}
		if finished {
			w.err = w.installPending()
		}
		return w.err
	}
	if w.stack.top() != t {
		w.err = &UsageError{api, "not in that kind of container"}
		return w.err
	}

	w.scratch.endPatch()

	annotated := w.annotated[len(w.annotated)-1]
	w.annotated = w.annotated[:len(w.annotated)-1]

	w.clear()
	w.stack.pop()

	w.err = w.endValue(annotated)
	return w.err
}

// installPending makes the intercepted symbol table the active context.
func (w *binaryWriter) installPending() error {
	appendMode, imports, symbols := w.icept.result()
	w.icept.reset()

	if appendMode {
		// Extend the live context; already-issued SIDs keep their values
		// and the next flush announces only the additions.
		for _, sym := range symbols {
			w.lstb.AppendSymbol(sym)
		}
		return nil
	}

	// A replacement context: everything buffered so far belongs to the old
	// one and must leave with it.
	if err := w.flush(); err != nil {
		return err
	}

	w.lstb = NewSymbolTableBuilder(imports...)
	for _, sym := range symbols {
		w.lstb.AppendSymbol(sym)
	}
	w.contextEmitted = false
	w.flushedSymbols = 0
	return nil
}

// flush drains the scratch stream, preceded by whatever symbol-table
// bookkeeping the output needs to stay self-describing.
func (w *binaryWriter) flush() error {
	if w.raw {
		return w.scratch.flushTo(w.out)
	}

	local := w.lstb.Symbols()
	fresh := local[w.flushedSymbols:]

	if w.scratch.empty() && (w.contextEmitted || len(fresh) == 0) {
		// Nothing new: flushing twice in a row emits zero bytes.
		return nil
	}

	if !w.contextEmitted {
		if _, err := w.out.Write(ivm); err != nil {
			return &IOError{err}
		}
		if err := w.serializeTable(w.lstb.Build()); err != nil {
			return err
		}
		w.contextEmitted = true
	} else if len(fresh) > 0 {
		if err := w.serializeAppend(fresh); err != nil {
			return err
		}
	}
	w.flushedSymbols = len(local)

	return w.scratch.flushTo(w.out)
}

// serializeTable writes a symbol table to the output through a raw writer.
func (w *binaryWriter) serializeTable(st SymbolTable) error {
	sub := newRawBinaryWriter(w.out, WriterOpts{})
	if err := st.WriteTo(sub); err != nil {
		return err
	}
	return sub.flush()
}

// serializeAppend writes an appending symbol table declaring only the
// symbols added since the last flush.
func (w *binaryWriter) serializeAppend(fresh []string) error {
	sub := newRawBinaryWriter(w.out, WriterOpts{})
	if err := sub.Annotation(sysToken(textSymbolTable, SymbolIDSymbolTable)); err != nil {
		return err
	}
	if err := sub.BeginStruct(); err != nil {
		return err
	}
	if err := sub.FieldName(sysToken("imports", SymbolIDImports)); err != nil {
		return err
	}
	if err := sub.WriteSymbol(sysToken(textSymbolTable, SymbolIDSymbolTable)); err != nil {
		return err
	}
	if err := writeSymbolsField(sub, fresh); err != nil {
		return err
	}
	if err := sub.EndStruct(); err != nil {
		return err
	}
	return sub.flush()
}

// resolveSID turns a symbol token into a symbol ID in the writer's
// context, interning new text as needed. Carriers are consulted text
// first, so tokens resolved in some other reader's context re-intern
// rather than smuggling that context's IDs through.
func (w *binaryWriter) resolveSID(api string, tok SymbolToken) (uint64, error) {
	if tok.Text != nil {
		if sid, ok := symbolIdentifier(*tok.Text); ok {
			if sid < 0 || uint64(sid) > w.lstb.MaxID() {
				return 0, &SymbolError{api, fmt.Sprintf("symbol ID %v out of range", sid)}
			}
			return uint64(sid), nil
		}
		sid, _ := w.lstb.Add(*tok.Text)
		return sid, nil
	}

	if tok.Source != nil {
		if lt, ok := w.lstb.(interface {
			sidForSource(src *ImportSource) (uint64, bool)
		}); ok {
			if sid, ok := lt.sidForSource(tok.Source); ok {
				return sid, nil
			}
		}
		return 0, &SymbolError{api, fmt.Sprintf("import %v#%v is not covered by the writer's imports", tok.Source.Table, tok.Source.SID)}
	}

	if tok.LocalSID != SymbolIDUnknown {
		if tok.LocalSID < 0 || uint64(tok.LocalSID) > w.lstb.MaxID() {
			return 0, &SymbolError{api, fmt.Sprintf("symbol ID %v out of range", tok.LocalSID)}
		}
		return uint64(tok.LocalSID), nil
	}

	return 0, &SymbolError{api, "symbol token has no text, ID, or import source"}
}
