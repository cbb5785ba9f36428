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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTextIon runs f against a fresh text writer and returns the output
// without the trailing newline Finish adds.
func writeTextIon(t *testing.T, opts WriterOpts, f func(w Writer)) string {
	t.Helper()

	buf := strings.Builder{}
	w := NewWriter(&buf, opts)

	f(w)

	require.NoError(t, w.Finish())
	return strings.TrimSuffix(buf.String(), "\n")
}

func TestWriteTextScalars(t *testing.T) {
	tests := []struct {
		name     string
		f        func(w Writer)
		expected string
	}{
		{"null", func(w Writer) { w.WriteNull() }, "null"},
		{"null.symbol", func(w Writer) { w.WriteNullType(SymbolType) }, "null.symbol"},
		{"true", func(w Writer) { w.WriteBool(true) }, "true"},
		{"int", func(w Writer) { w.WriteInt(-42) }, "-42"},
		{"float", func(w Writer) { w.WriteFloat(3.5) }, "3.5e0"},
		{"float.nan", func(w Writer) { w.WriteFloat(nan()) }, "nan"},
		{"decimal", func(w Writer) { w.WriteDecimal(MustParseDecimal("1.5")) }, "1.5"},
		{"decimal.int", func(w Writer) { w.WriteDecimal(MustParseDecimal("5d0")) }, "5."},
		{"string", func(w Writer) { w.WriteString("hello") }, `"hello"`},
		{"string.escapes", func(w Writer) { w.WriteString("a\nb\"c") }, `"a\nb\"c"`},
		{"symbol", func(w Writer) { w.WriteSymbolFromString("sym") }, "sym"},
		{"symbol.quoted", func(w Writer) { w.WriteSymbolFromString("two words") }, "'two words'"},
		{"symbol.keyword", func(w Writer) { w.WriteSymbolFromString("null") }, "'null'"},
		{"symbol.sidform", func(w Writer) { w.WriteSymbolFromString("$10") }, "'$10'"},
		{"symbol.ivm", func(w Writer) { w.WriteSymbolFromString("$ion_1_0") }, "'$ion_1_0'"},
		{"blob", func(w Writer) { w.WriteBlob([]byte("hi")) }, "{{aGk=}}"},
		{"clob", func(w Writer) { w.WriteClob([]byte("hi")) }, `{{"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, writeTextIon(t, WriterOpts{}, tt.f))
		})
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestWriteTextTimestamp(t *testing.T) {
	ts := NewTimestamp(time.Date(2000, 8, 7, 0, 0, 0, 15_000_000, time.UTC),
		TimestampPrecisionNanosecond, TimezoneUTC, 3)
	out := writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.WriteTimestamp(ts))
	})
	assert.Equal(t, "2000-08-07T00:00:00.015Z", out)
}

func TestWriteTextContainers(t *testing.T) {
	out := writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("a"))
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.FieldNameString("b"))
		require.NoError(t, w.BeginSexp())
		require.NoError(t, w.WriteSymbolFromString("+"))
		require.NoError(t, w.WriteInt(2))
		require.NoError(t, w.EndSexp())
		require.NoError(t, w.EndStruct())
	})
	assert.Equal(t, "{a:1,b:('+' 2)}", out)
}

func TestWriteTextAnnotations(t *testing.T) {
	out := writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.Annotation(NewSymbolTokenString("ann")))
		require.NoError(t, w.Annotation(NewSymbolTokenString("other")))
		require.NoError(t, w.WriteInt(5))
	})
	assert.Equal(t, "ann::other::5", out)
}

func TestWriteTextTopLevelSeparator(t *testing.T) {
	out := writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.WriteInt(2))
	})
	assert.Equal(t, "1\n2", out)
}

func TestWriteTextPretty(t *testing.T) {
	out := writeTextIon(t, WriterOpts{PrettyPrint: true}, func(w Writer) {
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("a"))
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.FieldNameString("b"))
		require.NoError(t, w.BeginList())
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.WriteInt(2))
		require.NoError(t, w.EndList())
		require.NoError(t, w.EndStruct())
	})

	assert.Equal(t, strings.Join([]string{
		"{",
		"  a: 1,",
		"  b: [",
		"    1,",
		"    2",
		"  ]",
		"}",
	}, "\n"), out)
}

func TestWriteTextPrettyIndentSize(t *testing.T) {
	out := writeTextIon(t, WriterOpts{PrettyPrint: true, IndentSize: 4}, func(w Writer) {
		require.NoError(t, w.BeginList())
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.EndList())
	})
	assert.Equal(t, "[\n    1\n]", out)
}

func TestWriteTextEscapeAllNonASCII(t *testing.T) {
	out := writeTextIon(t, WriterOpts{EscapeAllNonASCII: true}, func(w Writer) {
		require.NoError(t, w.WriteString("café \U0001F600"))
	})
	assert.Equal(t, `"caf\u00e9 \U0001f600"`, out)

	// Without the option, UTF-8 passes through.
	out = writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.WriteString("café"))
	})
	assert.Equal(t, "\"café\"", out)
}

func TestWriteTextSymbolBySID(t *testing.T) {
	// Unknown SIDs render as $n.
	out := writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(11)))
	})
	assert.Equal(t, "$11", out)

	// Known SIDs resolve to their text.
	out = writeTextIon(t, WriterOpts{}, func(w Writer) {
		require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(SymbolIDName)))
	})
	assert.Equal(t, "name", out)
}

func TestWriteTextInterceptedLST(t *testing.T) {
	out := writeTextIon(t, WriterOpts{}, func(w Writer) {
		writeManualLST(t, w, "sym1", "sym2")
		require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(10)))
	})

	// The installed context resolves $10 and is announced before the value.
	assert.Equal(t,
		"$ion_symbol_table::{symbols:[\"sym1\",\"sym2\"]}\nsym1",
		out)
}

func TestWriteTextImportsAnnounced(t *testing.T) {
	sst := NewSharedSymbolTable("T", 1, []string{"a", "b"})

	out := writeTextIon(t, WriterOpts{Imports: []SharedSymbolTable{sst}}, func(w Writer) {
		require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(10)))
	})

	assert.Equal(t,
		"$ion_symbol_table::{imports:[{name:\"T\",version:1,max_id:2}]}\na",
		out)
}

func TestWriteTextJSONDownconvert(t *testing.T) {
	out := writeTextIon(t, WriterOpts{JSONDownconvert: true}, func(w Writer) {
		require.NoError(t, w.Annotation(NewSymbolTokenString("dropped")))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("a"))
		require.NoError(t, w.WriteNullType(StringType))
		require.NoError(t, w.FieldNameString("b"))
		require.NoError(t, w.WriteSymbolFromString("sym"))
		require.NoError(t, w.FieldNameString("c"))
		require.NoError(t, w.WriteDecimal(MustParseDecimal("1.5")))
		require.NoError(t, w.FieldNameString("d"))
		require.NoError(t, w.BeginSexp())
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.EndSexp())
		require.NoError(t, w.EndStruct())
	})

	assert.Equal(t, `{"a":null,"b":"sym","c":1.5,"d":[1]}`, out)
}

func TestWriteTextFinishResets(t *testing.T) {
	buf := strings.Builder{}
	w := NewTextWriter(&buf)

	require.NoError(t, w.WriteInt(1))
	require.NoError(t, w.Finish())
	require.NoError(t, w.WriteInt(2))
	require.NoError(t, w.Finish())

	assert.Equal(t, "1\n2\n", buf.String())
}
