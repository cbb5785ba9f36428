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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManualLST writes $ion_symbol_table::{symbols:[...]} by hand.
func writeManualLST(t *testing.T, w Writer, symbols ...string) {
	t.Helper()
	require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("symbols"))
	require.NoError(t, w.BeginList())
	for _, sym := range symbols {
		require.NoError(t, w.WriteString(sym))
	}
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())
}

func TestInterceptManualLST(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	writeManualLST(t, w, "sym1", "sym2")
	require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(10)))
	require.NoError(t, w.Finish())

	r := NewReaderBytes(buf.Bytes())
	require.True(t, r.Next())
	tok, err := r.SymbolValue()
	require.NoError(t, err)
	require.NotNil(t, tok.Text)
	assert.Equal(t, "sym1", *tok.Text)
}

func TestInterceptBySID(t *testing.T) {
	// The annotation may name the table by SID 3 instead of text.
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	require.NoError(t, w.Annotation(NewSymbolTokenSID(SymbolIDSymbolTable)))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("symbols"))
	require.NoError(t, w.BeginList())
	require.NoError(t, w.WriteString("zig"))
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())
	require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(10)))
	require.NoError(t, w.Finish())

	r := NewReaderBytes(buf.Bytes())
	require.True(t, r.Next())
	tok, err := r.SymbolValue()
	require.NoError(t, err)
	require.NotNil(t, tok.Text)
	assert.Equal(t, "zig", *tok.Text)
}

func TestInterceptAppendMode(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	require.NoError(t, w.WriteSymbolFromString("first"))

	// imports:$ion_symbol_table keeps the context; "extra" lands at $11.
	require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("imports"))
	require.NoError(t, w.WriteSymbolFromString("$ion_symbol_table"))
	require.NoError(t, w.FieldNameString("symbols"))
	require.NoError(t, w.BeginList())
	require.NoError(t, w.WriteString("extra"))
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())

	require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(11)))
	require.NoError(t, w.Finish())

	r := NewReaderBytes(buf.Bytes())
	var texts []string
	for r.Next() {
		tok, err := r.SymbolValue()
		require.NoError(t, err)
		require.NotNil(t, tok.Text)
		texts = append(texts, *tok.Text)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"first", "extra"}, texts)
}

func TestInterceptReplaceFlushesPriorContext(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	require.NoError(t, w.WriteSymbolFromString("old"))
	writeManualLST(t, w, "new")
	require.NoError(t, w.WriteSymbol(NewSymbolTokenSID(10)))
	require.NoError(t, w.Finish())

	// Both values survive, each under its own context.
	r := NewReaderBytes(buf.Bytes())
	var texts []string
	for r.Next() {
		tok, err := r.SymbolValue()
		require.NoError(t, err)
		require.NotNil(t, tok.Text)
		texts = append(texts, *tok.Text)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"old", "new"}, texts)

	// The replacement context begins with a fresh version marker.
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), ivm))
}

func TestInterceptImports(t *testing.T) {
	cat := NewCatalog(NewSharedSymbolTable("T", 1, []string{"a", "b"}))

	buf := bytes.Buffer{}
	w := NewWriter(&buf, WriterOpts{OutputAsBinary: true, Catalog: cat})

	require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("imports"))
	require.NoError(t, w.BeginList())
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("name"))
	require.NoError(t, w.WriteString("T"))
	require.NoError(t, w.FieldNameString("version"))
	require.NoError(t, w.WriteInt(1))
	require.NoError(t, w.FieldNameString("max_id"))
	require.NoError(t, w.WriteInt(4))
	require.NoError(t, w.EndStruct())
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())

	// Declared max_id 4 pads past T's two symbols; locals start at 14.
	st := w.SymbolTable()
	assert.Equal(t, uint64(13), st.MaxID())

	sid, ok := st.FindByName("a")
	require.True(t, ok)
	assert.Equal(t, uint64(10), sid)

	_, ok = st.FindByID(13)
	assert.False(t, ok)
	require.NotNil(t, st.SourceOf(13))
	assert.Equal(t, "T", st.SourceOf(13).Table)

	require.NoError(t, w.WriteSymbolFromString("local"))
	sid, ok = w.SymbolTable().FindByName("local")
	require.True(t, ok)
	assert.Equal(t, uint64(14), sid)

	require.NoError(t, w.Finish())
}

func TestInterceptIgnoresOpenContent(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("whatever"))
	require.NoError(t, w.BeginList())
	require.NoError(t, w.WriteInt(1))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("nested"))
	require.NoError(t, w.WriteString("junk"))
	require.NoError(t, w.EndStruct())
	require.NoError(t, w.EndList())
	require.NoError(t, w.FieldNameString("symbols"))
	require.NoError(t, w.BeginList())
	require.NoError(t, w.WriteString("kept"))
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())

	sid, ok := w.SymbolTable().FindByName("kept")
	require.True(t, ok)
	assert.Equal(t, uint64(10), sid)
	_, ok = w.SymbolTable().FindByName("junk")
	assert.False(t, ok)
}

func TestInterceptIgnoredImports(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("imports"))
	require.NoError(t, w.BeginList())
	// No name: ignored.
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("version"))
	require.NoError(t, w.WriteInt(1))
	require.NoError(t, w.EndStruct())
	// The system table may not be imported explicitly: ignored.
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("name"))
	require.NoError(t, w.WriteString("$ion"))
	require.NoError(t, w.EndStruct())
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())

	assert.Equal(t, uint64(9), w.SymbolTable().MaxID())
}

func TestInterceptNonStringSymbolSlots(t *testing.T) {
	buf := bytes.Buffer{}
	w := NewBinaryWriter(&buf)

	require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
	require.NoError(t, w.BeginStruct())
	require.NoError(t, w.FieldNameString("symbols"))
	require.NoError(t, w.BeginList())
	require.NoError(t, w.WriteString("good"))
	require.NoError(t, w.WriteInt(42))
	require.NoError(t, w.WriteNullType(StringType))
	require.NoError(t, w.WriteString("after"))
	require.NoError(t, w.EndList())
	require.NoError(t, w.EndStruct())

	st := w.SymbolTable()
	assert.Equal(t, uint64(13), st.MaxID())

	text, ok := st.FindByID(10)
	require.True(t, ok)
	assert.Equal(t, "good", text)

	_, ok = st.FindByID(11)
	assert.False(t, ok)
	_, ok = st.FindByID(12)
	assert.False(t, ok)

	text, ok = st.FindByID(13)
	require.True(t, ok)
	assert.Equal(t, "after", text)
}

func TestInterceptDuplicateFieldsFail(t *testing.T) {
	t.Run("duplicate symbols", func(t *testing.T) {
		w := NewBinaryWriter(&bytes.Buffer{})
		require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("symbols"))
		require.NoError(t, w.BeginList())
		require.NoError(t, w.EndList())
		require.NoError(t, w.FieldNameString("symbols"))
		err := w.BeginList()
		assert.IsType(t, &SymbolTableError{}, err)
	})

	t.Run("duplicate imports", func(t *testing.T) {
		w := NewBinaryWriter(&bytes.Buffer{})
		require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("imports"))
		require.NoError(t, w.WriteSymbolFromString("$ion_symbol_table"))
		require.NoError(t, w.FieldNameString("imports"))
		err := w.BeginList()
		assert.IsType(t, &SymbolTableError{}, err)
	})

	t.Run("duplicate import name", func(t *testing.T) {
		w := NewBinaryWriter(&bytes.Buffer{})
		require.NoError(t, w.Annotation(NewSymbolTokenString("$ion_symbol_table")))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("imports"))
		require.NoError(t, w.BeginList())
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("name"))
		require.NoError(t, w.WriteString("T"))
		require.NoError(t, w.FieldNameString("name"))
		err := w.WriteString("U")
		assert.IsType(t, &SymbolTableError{}, err)
	})
}
