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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSymbolTable(t *testing.T) {
	st := V1SystemSymbolTable

	assert.Equal(t, uint64(9), st.MaxID())
	assert.True(t, st.IsLocked())

	sid, ok := st.FindByName("$ion_symbol_table")
	require.True(t, ok)
	assert.Equal(t, uint64(SymbolIDSymbolTable), sid)

	text, ok := st.FindByID(SymbolIDMaxID)
	require.True(t, ok)
	assert.Equal(t, "max_id", text)

	_, ok = st.FindByID(10)
	assert.False(t, ok)
	_, ok = st.FindByID(0)
	assert.False(t, ok)
}

func TestSharedSymbolTableAdjust(t *testing.T) {
	sst := NewSharedSymbolTable("test", 2, []string{"a", "b", "c"})

	padded := sst.Adjust(5)
	assert.Equal(t, uint64(5), padded.MaxID())
	text, ok := padded.FindByID(2)
	require.True(t, ok)
	assert.Equal(t, "b", text)
	_, ok = padded.FindByID(5)
	assert.False(t, ok)
	assert.NotNil(t, padded.SourceOf(5))
	assert.Equal(t, "test", padded.SourceOf(5).Table)
	assert.Equal(t, int64(5), padded.SourceOf(5).SID)

	truncated := sst.Adjust(2)
	assert.Equal(t, uint64(2), truncated.MaxID())
	_, ok = truncated.FindByName("c")
	assert.False(t, ok)
	_, ok = truncated.FindByName("b")
	assert.True(t, ok)
}

func TestLocalTableImportSpans(t *testing.T) {
	a := NewSharedSymbolTable("a", 1, []string{"a1", "a2"})
	b := NewSharedSymbolTable("b", 1, []string{"b1", "b2", "b3"})

	lst := NewLocalSymbolTable([]SharedSymbolTable{a, b}, []string{"l1", "l2"})

	// System is 1..9, a is 10..11, b is 12..14, locals start at 15.
	assert.Equal(t, uint64(16), lst.MaxID())

	sid, ok := lst.FindByName("a2")
	require.True(t, ok)
	assert.Equal(t, uint64(11), sid)

	sid, ok = lst.FindByName("b1")
	require.True(t, ok)
	assert.Equal(t, uint64(12), sid)

	sid, ok = lst.FindByName("l1")
	require.True(t, ok)
	assert.Equal(t, uint64(15), sid)

	text, ok := lst.FindByID(14)
	require.True(t, ok)
	assert.Equal(t, "b3", text)

	text, ok = lst.FindByID(16)
	require.True(t, ok)
	assert.Equal(t, "l2", text)

	_, ok = lst.FindByID(17)
	assert.False(t, ok)
}

func TestLocalTableUnresolvedImport(t *testing.T) {
	missing := &unresolvedSST{name: "missing", version: 1, maxID: 4}
	lst := NewLocalSymbolTable([]SharedSymbolTable{missing}, []string{"local"})

	// The unresolved block still occupies 10..13.
	sid, ok := lst.FindByName("local")
	require.True(t, ok)
	assert.Equal(t, uint64(14), sid)

	_, ok = lst.FindByID(12)
	assert.False(t, ok)

	src := lst.SourceOf(12)
	require.NotNil(t, src)
	assert.Equal(t, "missing", src.Table)
	assert.Equal(t, int64(3), src.SID)

	assert.Nil(t, lst.SourceOf(14))
}

func TestBuilderAddIsIdempotent(t *testing.T) {
	b := NewSymbolTableBuilder()

	sid1, added := b.Add("abc")
	assert.True(t, added)
	assert.Equal(t, uint64(10), sid1)

	sid2, added := b.Add("abc")
	assert.False(t, added)
	assert.Equal(t, sid1, sid2)

	// System symbols resolve without being re-added.
	sid, added := b.Add("name")
	assert.False(t, added)
	assert.Equal(t, uint64(SymbolIDName), sid)
}

func TestBuilderAppendSymbolKeepsDuplicates(t *testing.T) {
	b := NewSymbolTableBuilder()

	first := b.AppendSymbol("dup")
	second := b.AppendSymbol("dup")
	assert.Equal(t, uint64(10), first)
	assert.Equal(t, uint64(11), second)

	// Lookup returns the lowest SID.
	sid, ok := b.FindByName("dup")
	require.True(t, ok)
	assert.Equal(t, first, sid)

	text, ok := b.FindByID(second)
	require.True(t, ok)
	assert.Equal(t, "dup", text)
}

func TestBuilderUnknownSlots(t *testing.T) {
	b := NewSymbolTableBuilder()

	sid := b.AppendSymbol("")
	assert.Equal(t, uint64(10), sid)

	_, ok := b.FindByID(sid)
	assert.False(t, ok)

	// An unknown local slot has no import source either.
	assert.Nil(t, b.SourceOf(sid))
}

func TestBuildLocksTheTable(t *testing.T) {
	b := NewSymbolTableBuilder()
	b.Add("abc")

	built := b.Build()
	assert.True(t, built.IsLocked())
	assert.False(t, b.IsLocked())

	// Additions to the builder do not leak into the snapshot.
	b.Add("def")
	_, ok := built.FindByName("def")
	assert.False(t, ok)
	assert.Equal(t, uint64(10), built.MaxID())
}

func TestLocalTableSymbols(t *testing.T) {
	lst := NewLocalSymbolTable(nil, []string{"x", "", "y"})

	if diff := cmp.Diff([]string{"x", "", "y"}, lst.Symbols()); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}

	_, ok := lst.FindByID(11)
	assert.False(t, ok)
	text, ok := lst.FindByID(12)
	require.True(t, ok)
	assert.Equal(t, "y", text)
}
