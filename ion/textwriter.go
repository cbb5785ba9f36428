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
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var _ Writer = &textWriter{}

// A textWriter writes human-readable Ion (or, downconverted, JSON).
type textWriter struct {
	writer

	needsSeparator bool
	emptyContainer bool
	emptyStream    bool
	indent         int

	lstb     SymbolTableBuilder
	wroteLST bool

	// emittingLST guards against intercepting our own symbol table.
	emittingLST bool
}

func newTextWriter(out io.Writer, opts WriterOpts) *textWriter {
	opts = opts.withDefaults()
	return &textWriter{
		writer:      writer{out: out, opts: opts},
		emptyStream: true,
		lstb:        NewSymbolTableBuilder(opts.Imports...),
	}
}

func (w *textWriter) SymbolTable() SymbolTable {
	return w.lstb
}

func (w *textWriter) json() bool {
	return w.opts.JSONDownconvert
}

func (w *textWriter) pretty() bool {
	return w.opts.PrettyPrint
}

func (w *textWriter) WriteNull() error {
	return w.writeText("Writer.WriteNull", NullType, nil, "null")
}

func (w *textWriter) WriteNullType(t Type) error {
	if t == NoType || t > StructType {
		if w.err == nil {
			w.err = &UsageError{"Writer.WriteNullType", fmt.Sprintf("cannot write a null of type %v", t)}
		}
		return w.err
	}
	text := "null." + t.String()
	if t == NullType || w.json() {
		text = "null"
	}
	return w.writeText("Writer.WriteNullType", t, nil, text)
}

func (w *textWriter) WriteBool(val bool) error {
	text := "false"
	if val {
		text = "true"
	}
	return w.writeText("Writer.WriteBool", BoolType, val, text)
}

func (w *textWriter) WriteInt(val int64) error {
	return w.writeText("Writer.WriteInt", IntType, val, strconv.FormatInt(val, 10))
}

func (w *textWriter) WriteUint(val uint64) error {
	var iv interface{}
	if val <= math.MaxInt64 {
		iv = int64(val)
	}
	return w.writeText("Writer.WriteUint", IntType, iv, strconv.FormatUint(val, 10))
}

func (w *textWriter) WriteBigInt(val *big.Int) error {
	return w.writeText("Writer.WriteBigInt", IntType, nil, val.String())
}

func (w *textWriter) WriteFloat(val float64) error {
	text := formatFloat(val)
	if w.json() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			text = "null"
		} else {
			text = strconv.FormatFloat(val, 'g', -1, 64)
		}
	}
	return w.writeText("Writer.WriteFloat", FloatType, val, text)
}

func (w *textWriter) WriteDecimal(val *Decimal) error {
	text := val.String()
	if w.json() {
		text = jsonDecimal(text)
	}
	return w.writeText("Writer.WriteDecimal", DecimalType, nil, text)
}

// jsonDecimal rewrites Ion decimal text into a JSON number.
func jsonDecimal(text string) string {
	text = strings.Replace(text, "d", "e", 1)
	text = strings.Replace(text, "D", "e", 1)
	if strings.HasSuffix(text, ".") {
		text = text[:len(text)-1]
	}
	return text
}

func (w *textWriter) WriteTimestamp(val Timestamp) error {
	if y := val.DateTime().Year(); y < 1 || y > 9999 {
		if w.err == nil {
			w.err = &InvalidTimestampError{fmt.Sprintf("year %v out of range", y)}
		}
		return w.err
	}

	text := val.String()
	if w.json() {
		text = `"` + text + `"`
	}
	return w.writeText("Writer.WriteTimestamp", TimestampType, nil, text)
}

func (w *textWriter) WriteSymbol(val SymbolToken) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		w.err = w.icept.scalar(SymbolType, val)
		return w.err
	}

	text, sidForm, ok := w.symbolText(val)
	if !ok {
		w.err = &SymbolError{"Writer.WriteSymbol", "symbol token has no text, ID, or import source"}
		return w.err
	}

	return w.writeValue("Writer.WriteSymbol", func() error {
		if w.json() {
			if err := writeChar('"', w.out); err != nil {
				return err
			}
			if err := writeJSONEscapedText(text, w.out); err != nil {
				return err
			}
			return writeChar('"', w.out)
		}
		if sidForm {
			// A synthesized $n is a symbol ID reference; quoting it would
			// turn it into the literal text "$n".
			return writeText(text, w.out)
		}
		return writeSymbolText(text, w.out, w.opts.EscapeAllNonASCII)
	})
}

func (w *textWriter) WriteSymbolFromString(val string) error {
	return w.WriteSymbol(NewSymbolTokenString(val))
}

// symbolText projects a token to text, interning new text into the
// writer-level table. Unknown-text tokens come back as a synthesized $n
// with sidForm set.
func (w *textWriter) symbolText(tok SymbolToken) (text string, sidForm bool, ok bool) {
	if tok.Text != nil {
		if !w.emittingLST {
			w.lstb.Add(*tok.Text)
		}
		return *tok.Text, false, true
	}
	if tok.Source != nil {
		if sid, found := w.lstb.(*tableBuilder).sidForSource(tok.Source); found {
			if text, found := w.lstb.FindByID(sid); found {
				return text, false, true
			}
			return fmt.Sprintf("$%v", sid), true, true
		}
	}
	if tok.LocalSID != SymbolIDUnknown {
		if text, found := w.lstb.FindByID(uint64(tok.LocalSID)); found {
			return text, false, true
		}
		return fmt.Sprintf("$%v", tok.LocalSID), true, true
	}
	return "", false, false
}

func (w *textWriter) WriteString(val string) error {
	return w.writeValueIntercepted("Writer.WriteString", StringType, val, func() error {
		if w.json() {
			if err := writeChar('"', w.out); err != nil {
				return err
			}
			if err := writeJSONEscapedText(val, w.out); err != nil {
				return err
			}
			return writeChar('"', w.out)
		}
		return writeStringText(val, w.out, w.opts.EscapeAllNonASCII)
	})
}

func (w *textWriter) WriteClob(val []byte) error {
	return w.writeValueIntercepted("Writer.WriteClob", ClobType, nil, func() error {
		if w.json() {
			if err := writeChar('"', w.out); err != nil {
				return err
			}
			if err := writeJSONEscapedText(string(val), w.out); err != nil {
				return err
			}
			return writeChar('"', w.out)
		}

		if err := writeText("{{\"", w.out); err != nil {
			return err
		}
		for _, c := range val {
			var err error
			if c < 0x20 || c == '\\' || c == '"' || c > 0x7F {
				err = writeEscapedChar(c, w.out)
			} else {
				err = writeChar(c, w.out)
			}
			if err != nil {
				return err
			}
		}
		return writeText("\"}}", w.out)
	})
}

func (w *textWriter) WriteBlob(val []byte) error {
	return w.writeValueIntercepted("Writer.WriteBlob", BlobType, nil, func() error {
		open, close := "{{", "}}"
		if w.json() {
			open, close = `"`, `"`
		}

		if err := writeText(open, w.out); err != nil {
			return err
		}
		enc := base64.NewEncoder(base64.StdEncoding, w.out)
		if _, err := enc.Write(val); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		return writeText(close, w.out)
	})
}

func (w *textWriter) BeginLob(t Type) error {
	return w.beginLob(t)
}

func (w *textWriter) AppendLob(val []byte) error {
	return w.appendLob(val)
}

func (w *textWriter) FinishLob() error {
	t, bs, err := w.takeLob()
	if err != nil {
		return err
	}
	if t == ClobType {
		return w.WriteClob(bs)
	}
	return w.WriteBlob(bs)
}

func (w *textWriter) BeginList() error {
	return w.begin("Writer.BeginList", ListType, '[')
}

func (w *textWriter) EndList() error {
	return w.end("Writer.EndList", ListType, ']')
}

func (w *textWriter) BeginSexp() error {
	if w.json() {
		return w.begin("Writer.BeginSexp", SexpType, '[')
	}
	return w.begin("Writer.BeginSexp", SexpType, '(')
}

func (w *textWriter) EndSexp() error {
	if w.json() {
		return w.end("Writer.EndSexp", SexpType, ']')
	}
	return w.end("Writer.EndSexp", SexpType, ')')
}

func (w *textWriter) BeginStruct() error {
	if w.err != nil {
		return w.err
	}
	if !w.emittingLST && !w.icept.active() && w.stack.top() == NoType &&
		len(w.annotations) > 0 && annotationIsSymbolTable(w.annotations[0]) {
		w.clear()
		w.icept.begin(w.opts.Catalog, w.lstb)
		return nil
	}
	return w.begin("Writer.BeginStruct", StructType, '{')
}

func (w *textWriter) EndStruct() error {
	return w.end("Writer.EndStruct", StructType, '}')
}

func (w *textWriter) WriteAllValues(r Reader) error {
	return writeAllValues(w, r)
}

func (w *textWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.checkFlushable("Writer.Flush"); err != nil {
		w.err = err
		return w.err
	}
	// Text output is unbuffered; there is nothing to commit, and the
	// symbol-table decision for values already written cannot be revisited.
	return nil
}

func (w *textWriter) Finish() error {
	if err := w.Flush(); err != nil {
		return err
	}

	if !w.emptyStream {
		if err := writeChar('\n', w.out); err != nil {
			w.err = &IOError{err}
			return w.err
		}
		w.needsSeparator = false
		w.emptyStream = true
	}

	w.lstb = NewSymbolTableBuilder(w.opts.Imports...)
	w.wroteLST = false
	w.clear()
	return nil
}

func (w *textWriter) Close() error {
	if w.err == nil {
		if w.stack.top() != NoType || w.lobType != NoType || w.icept.active() {
			w.err = &UnexpectedEOFError{}
		} else {
			w.Finish()
		}
	}
	w.lobBuf = nil
	return w.err
}

// writeText emits a pre-formatted value, honouring interception.
func (w *textWriter) writeText(api string, t Type, iv interface{}, text string) error {
	return w.writeValueIntercepted(api, t, iv, func() error {
		return writeText(text, w.out)
	})
}

// writeValueIntercepted routes a value through interception or writes it.
func (w *textWriter) writeValueIntercepted(api string, t Type, iv interface{}, write func() error) error {
	if w.err != nil {
		return w.err
	}
	if w.icept.active() {
		w.err = w.icept.scalar(t, iv)
		return w.err
	}
	return w.writeValue(api, write)
}

// writeValue writes a value body with its surrounding separator, field
// name, and annotations.
func (w *textWriter) writeValue(api string, write func() error) error {
	if err := w.beginValue(api); err != nil {
		w.err = err
		return w.err
	}

	if err := write(); err != nil {
		w.err = &IOError{err}
		return w.err
	}

	w.endValue()
	return nil
}

// beginValue emits everything that precedes a value's body.
func (w *textWriter) beginValue(api string) error {
	if w.lobType != NoType {
		return &UsageError{api, "lob in progress"}
	}

	name := w.fieldName
	as := w.annotations
	w.clear()

	// The symbol-table context is announced once, ahead of the first value.
	if !w.wroteLST && !w.emittingLST && !w.json() {
		w.wroteLST = true
		w.emittingLST = true
		lst := w.lstb.Build()
		err := lst.WriteTo(w)
		w.emittingLST = false
		if err != nil {
			return err
		}
	}

	if w.needsSeparator {
		if err := w.writeSeparator(); err != nil {
			return err
		}
	} else if w.emptyContainer && w.pretty() {
		if err := writeChar('\n', w.out); err != nil {
			return err
		}
	}

	if w.pretty() {
		if err := w.writeIndent(); err != nil {
			return err
		}
	}

	if w.IsInStruct() {
		if name == nil {
			return &UsageError{api, "field name not set"}
		}
		if err := w.writeFieldName(*name); err != nil {
			return err
		}
	}

	if len(as) > 0 && !w.json() {
		for _, a := range as {
			text, sidForm, ok := w.symbolText(a)
			if !ok {
				return &SymbolError{api, "invalid annotation symbol token"}
			}
			var err error
			if sidForm {
				err = writeText(text, w.out)
			} else {
				err = writeSymbolText(text, w.out, w.opts.EscapeAllNonASCII)
			}
			if err != nil {
				return err
			}
			if err := writeText("::", w.out); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *textWriter) writeSeparator() error {
	var sep string
	switch w.stack.top() {
	case StructType, ListType:
		sep = ","
		if w.pretty() {
			sep = ",\n"
		}
	case SexpType:
		switch {
		case w.json() && w.pretty():
			sep = ",\n"
		case w.json():
			sep = ","
		case w.pretty():
			sep = "\n"
		default:
			sep = " "
		}
	default:
		sep = "\n"
	}
	return writeText(sep, w.out)
}

func (w *textWriter) writeFieldName(name SymbolToken) error {
	text, sidForm, ok := w.symbolText(name)
	if !ok {
		return &SymbolError{"Writer.FieldName", "field name token has no text, ID, or import source"}
	}

	switch {
	case w.json():
		if err := writeChar('"', w.out); err != nil {
			return err
		}
		if err := writeJSONEscapedText(text, w.out); err != nil {
			return err
		}
		if err := writeChar('"', w.out); err != nil {
			return err
		}
	case sidForm:
		if err := writeText(text, w.out); err != nil {
			return err
		}
	default:
		if err := writeSymbolText(text, w.out, w.opts.EscapeAllNonASCII); err != nil {
			return err
		}
	}

	sep := ":"
	if w.pretty() {
		sep = ": "
	}
	return writeText(sep, w.out)
}

func (w *textWriter) endValue() {
	w.needsSeparator = true
	w.emptyContainer = false
	w.emptyStream = false
}

func (w *textWriter) begin(api string, t Type, open byte) error {
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

	if err := w.beginValue(api); err != nil {
		w.err = err
		return w.err
	}

	w.stack.push(t)
	w.indent++
	w.needsSeparator = false
	w.emptyContainer = true

	if err := writeChar(open, w.out); err != nil {
		w.err = &IOError{err}
	}
	return w.err
}

func (w *textWriter) end(api string, t Type, close byte) error {
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

	w.indent--

	if !w.emptyContainer && w.pretty() {
		if err := writeChar('\n', w.out); err != nil {
			w.err = &IOError{err}
			return w.err
		}
		if err := w.writeIndent(); err != nil {
			w.err = err
			return w.err
		}
	}

	if err := writeChar(close, w.out); err != nil {
		w.err = &IOError{err}
		return w.err
	}

	w.clear()
	w.stack.pop()
	w.endValue()
	return nil
}

// installPending makes an intercepted symbol table the active context.
func (w *textWriter) installPending() error {
	appendMode, imports, symbols := w.icept.result()
	w.icept.reset()

	if appendMode {
		for _, sym := range symbols {
			w.lstb.AppendSymbol(sym)
		}
		return nil
	}

	w.lstb = NewSymbolTableBuilder(imports...)
	for _, sym := range symbols {
		w.lstb.AppendSymbol(sym)
	}
	w.wroteLST = false
	return nil
}

func (w *textWriter) writeIndent() error {
	pad := w.indent * w.opts.IndentSize
	for i := 0; i < pad; i++ {
		if err := writeChar(' ', w.out); err != nil {
			return err
		}
	}
	return nil
}
