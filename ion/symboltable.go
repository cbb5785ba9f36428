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
)

// Well-known symbols of the system symbol table. SIDs 1 through 9 are fixed
// by the Ion 1.0 specification.
const (
	SymbolIDIon               = 1
	SymbolIDIon10             = 2
	SymbolIDSymbolTable       = 3
	SymbolIDName              = 4
	SymbolIDVersion           = 5
	SymbolIDImports           = 6
	SymbolIDSymbols           = 7
	SymbolIDMaxID             = 8
	SymbolIDSharedSymbolTable = 9
)

const (
	textIon               = "$ion"
	textIon10             = "$ion_1_0"
	textSymbolTable       = "$ion_symbol_table"
	textSharedSymbolTable = "$ion_shared_symbol_table"
)

// A SymbolTable maps symbol IDs to text and back. SIDs are dense in
// 1..MaxID; the system symbols occupy 1..9, imports occupy contiguous blocks
// in declaration order, and locally-defined symbols occupy the final block.
type SymbolTable interface {
	// Imports returns the shared symbol tables this table imports,
	// including the implicit system table at index zero.
	Imports() []SharedSymbolTable
	// Symbols returns the locally-defined symbol texts; unknown-text
	// slots are empty strings.
	Symbols() []string
	// MaxID returns the largest symbol ID this table defines.
	MaxID() uint64
	// Find returns a token for the given text, or nil if absent.
	Find(text string) *SymbolToken
	// FindByName returns the lowest SID mapped to the given text.
	FindByName(text string) (uint64, bool)
	// FindByID returns the text for the given SID. Unknown-text slots
	// report ok == false; callers decide whether to surface $n.
	FindByID(sid uint64) (string, bool)
	// SourceOf returns the import location of an unknown-text SID, or nil
	// if the SID's text is known or the SID is local.
	SourceOf(sid uint64) *ImportSource
	// IsLocked reports whether the table rejects further additions.
	IsLocked() bool
	// WriteTo serializes the table to a Writer.
	WriteTo(w Writer) error
	// String returns the table in Ion text form.
	String() string
}

// A SharedSymbolTable is named, versioned, and distributed out-of-band; a
// local table references it by name to keep streams compact.
type SharedSymbolTable interface {
	SymbolTable

	// Name returns the table's name.
	Name() string
	// Version returns the table's version, >= 1.
	Version() int
	// Adjust returns a view of this table truncated or padded with
	// unknown-text slots to the given max ID.
	Adjust(maxID uint64) SharedSymbolTable
}

type sst struct {
	name    string
	version int
	symbols []string
	index   map[string]uint64
	maxID   uint64
}

// NewSharedSymbolTable creates a shared symbol table from a list of symbol
// texts. Empty strings denote unknown-text slots.
func NewSharedSymbolTable(name string, version int, symbols []string) SharedSymbolTable {
	syms := make([]string, len(symbols))
	copy(syms, symbols)

	return &sst{
		name:    name,
		version: version,
		symbols: syms,
		index:   indexSymbols(syms, 1),
		maxID:   uint64(len(syms)),
	}
}

func (s *sst) Name() string                  { return s.name }
func (s *sst) Version() int                  { return s.version }
func (s *sst) Imports() []SharedSymbolTable  { return nil }
func (s *sst) MaxID() uint64                 { return s.maxID }
func (s *sst) IsLocked() bool                { return true }

func (s *sst) Symbols() []string {
	syms := make([]string, s.maxID)
	copy(syms, s.symbols)
	return syms
}

func (s *sst) Adjust(maxID uint64) SharedSymbolTable {
	if maxID == s.maxID {
		return s
	}

	if maxID > uint64(len(s.symbols)) {
		// Padding slots have no text; the existing index still holds.
		return &sst{
			name:    s.name,
			version: s.version,
			symbols: s.symbols,
			index:   s.index,
			maxID:   maxID,
		}
	}

	symbols := s.symbols[:maxID]
	return &sst{
		name:    s.name,
		version: s.version,
		symbols: symbols,
		index:   indexSymbols(symbols, 1),
		maxID:   maxID,
	}
}

func (s *sst) Find(text string) *SymbolToken {
	sid, ok := s.FindByName(text)
	if !ok {
		return nil
	}
	return &SymbolToken{Text: &text, LocalSID: int64(sid)}
}

func (s *sst) FindByName(text string) (uint64, bool) {
	sid, ok := s.index[text]
	return sid, ok
}

func (s *sst) FindByID(sid uint64) (string, bool) {
	if sid < 1 || sid > uint64(len(s.symbols)) {
		return "", false
	}
	text := s.symbols[sid-1]
	if text == "" {
		return "", false
	}
	return text, true
}

func (s *sst) SourceOf(sid uint64) *ImportSource {
	if sid < 1 || sid > s.maxID {
		return nil
	}
	if _, ok := s.FindByID(sid); ok {
		return nil
	}
	return &ImportSource{Table: s.name, SID: int64(sid)}
}

func (s *sst) WriteTo(w Writer) error {
	if err := w.Annotation(sysToken(textSharedSymbolTable, SymbolIDSharedSymbolTable)); err != nil {
		return err
	}
	if err := w.BeginStruct(); err != nil {
		return err
	}
	if err := w.FieldName(sysToken("name", SymbolIDName)); err != nil {
		return err
	}
	if err := w.WriteString(s.name); err != nil {
		return err
	}
	if err := w.FieldName(sysToken("version", SymbolIDVersion)); err != nil {
		return err
	}
	if err := w.WriteInt(int64(s.version)); err != nil {
		return err
	}
	if err := w.FieldName(sysToken("max_id", SymbolIDMaxID)); err != nil {
		return err
	}
	if err := w.WriteUint(s.maxID); err != nil {
		return err
	}
	if err := writeSymbolsField(w, s.symbols); err != nil {
		return err
	}
	return w.EndStruct()
}

func (s *sst) String() string {
	buf := strings.Builder{}
	w := NewTextWriter(&buf)
	_ = s.WriteTo(w)
	return buf.String()
}

// V1SystemSymbolTable is the implied system symbol table for Ion 1.0.
var V1SystemSymbolTable = NewSharedSymbolTable(textIon, 1, []string{
	textIon,
	textIon10,
	textSymbolTable,
	"name",
	"version",
	"imports",
	"symbols",
	"max_id",
	textSharedSymbolTable,
})

// An unresolvedSST stands in for an import the catalog could not satisfy.
// It reserves the declared span of the symbol ID space so later blocks keep
// their IDs; every slot has unknown text.
type unresolvedSST struct {
	name    string
	version int
	maxID   uint64
}

var _ SharedSymbolTable = &unresolvedSST{}

func (s *unresolvedSST) Name() string                 { return s.name }
func (s *unresolvedSST) Version() int                 { return s.version }
func (s *unresolvedSST) Imports() []SharedSymbolTable { return nil }
func (s *unresolvedSST) Symbols() []string            { return nil }
func (s *unresolvedSST) MaxID() uint64                { return s.maxID }
func (s *unresolvedSST) IsLocked() bool               { return true }

func (s *unresolvedSST) Adjust(maxID uint64) SharedSymbolTable {
	return &unresolvedSST{name: s.name, version: s.version, maxID: maxID}
}

func (s *unresolvedSST) Find(string) *SymbolToken { return nil }

func (s *unresolvedSST) FindByName(string) (uint64, bool) { return 0, false }

func (s *unresolvedSST) FindByID(uint64) (string, bool) { return "", false }

func (s *unresolvedSST) SourceOf(sid uint64) *ImportSource {
	if sid < 1 || sid > s.maxID {
		return nil
	}
	return &ImportSource{Table: s.name, SID: int64(sid)}
}

func (s *unresolvedSST) WriteTo(Writer) error {
	return &SymbolTableError{"unresolved symbol table cannot be serialized"}
}

func (s *unresolvedSST) String() string {
	buf := strings.Builder{}
	w := NewTextWriter(&buf)
	_ = w.Annotation(sysToken(textSharedSymbolTable, SymbolIDSharedSymbolTable))
	_ = writeImportStruct(w, s.name, s.version, s.maxID)
	return buf.String()
}

// A localTable is the in-band table describing the values that follow it in
// a stream: the system block, then one block per import, then local symbols.
type localTable struct {
	imports     []SharedSymbolTable
	offsets     []uint64
	maxImportID uint64

	symbols []string
	index   map[string]uint64
	locked  bool
}

// NewLocalSymbolTable creates a locked local symbol table with the given
// imports and local symbol texts.
func NewLocalSymbolTable(imports []SharedSymbolTable, symbols []string) SymbolTable {
	imps, offsets, maxID := spanImports(imports)
	syms := make([]string, len(symbols))
	copy(syms, symbols)

	return &localTable{
		imports:     imps,
		offsets:     offsets,
		maxImportID: maxID,
		symbols:     syms,
		index:       indexSymbols(syms, maxID+1),
		locked:      true,
	}
}

func (t *localTable) Imports() []SharedSymbolTable {
	imps := make([]SharedSymbolTable, len(t.imports))
	copy(imps, t.imports)
	return imps
}

func (t *localTable) Symbols() []string {
	syms := make([]string, len(t.symbols))
	copy(syms, t.symbols)
	return syms
}

func (t *localTable) MaxID() uint64 {
	return t.maxImportID + uint64(len(t.symbols))
}

func (t *localTable) IsLocked() bool { return t.locked }

func (t *localTable) Find(text string) *SymbolToken {
	if sid, ok := t.FindByName(text); ok {
		return &SymbolToken{Text: &text, LocalSID: int64(sid)}
	}
	return nil
}

func (t *localTable) FindByName(text string) (uint64, bool) {
	for i, imp := range t.imports {
		if sid, ok := imp.FindByName(text); ok {
			return t.offsets[i] + sid, true
		}
	}
	sid, ok := t.index[text]
	return sid, ok
}

func (t *localTable) FindByID(sid uint64) (string, bool) {
	if sid < 1 {
		return "", false
	}
	if sid <= t.maxImportID {
		i := t.importAt(sid)
		return t.imports[i].FindByID(sid - t.offsets[i])
	}

	idx := sid - t.maxImportID - 1
	if idx >= uint64(len(t.symbols)) {
		return "", false
	}
	text := t.symbols[idx]
	if text == "" {
		return "", false
	}
	return text, true
}

func (t *localTable) SourceOf(sid uint64) *ImportSource {
	if sid < 1 || sid > t.maxImportID {
		return nil
	}
	i := t.importAt(sid)
	return t.imports[i].SourceOf(sid - t.offsets[i])
}

// sidForSource maps an import location onto this table's SID space.
func (t *localTable) sidForSource(src *ImportSource) (uint64, bool) {
	if src == nil || src.SID < 1 {
		return 0, false
	}
	for i, imp := range t.imports {
		if imp.Name() == src.Table && uint64(src.SID) <= imp.MaxID() {
			return t.offsets[i] + uint64(src.SID), true
		}
	}
	return 0, false
}

// importAt returns the index of the import whose block contains sid.
func (t *localTable) importAt(sid uint64) int {
	i := 1
	for ; i < len(t.imports); i++ {
		if sid <= t.offsets[i] {
			break
		}
	}
	return i - 1
}

func (t *localTable) WriteTo(w Writer) error {
	declared := t.imports[1:] // the system table is never declared
	if len(declared) == 0 && len(t.symbols) == 0 {
		// Nothing beyond the system table; the IVM says it all.
		return nil
	}

	err := w.Annotation(sysToken(textSymbolTable, SymbolIDSymbolTable))
	if err == nil {
		err = w.BeginStruct()
	}
	if err == nil && len(declared) > 0 {
		err = writeImportsField(w, declared)
	}
	if err == nil && len(t.symbols) > 0 {
		err = writeSymbolsField(w, t.symbols)
	}
	if err != nil {
		return err
	}
	return w.EndStruct()
}

// writeImportsField writes imports:[{name, version, max_id}, ...].
func writeImportsField(w Writer, imps []SharedSymbolTable) error {
	if err := w.FieldName(sysToken("imports", SymbolIDImports)); err != nil {
		return err
	}
	if err := w.BeginList(); err != nil {
		return err
	}
	for _, imp := range imps {
		if err := writeImportStruct(w, imp.Name(), imp.Version(), imp.MaxID()); err != nil {
			return err
		}
	}
	return w.EndList()
}

// writeSymbolsField writes symbols:[...], with null slots standing in for
// unknown text.
func writeSymbolsField(w Writer, symbols []string) error {
	if err := w.FieldName(sysToken("symbols", SymbolIDSymbols)); err != nil {
		return err
	}
	if err := w.BeginList(); err != nil {
		return err
	}
	for _, sym := range symbols {
		var err error
		if sym == "" {
			err = w.WriteNullType(StringType)
		} else {
			err = w.WriteString(sym)
		}
		if err != nil {
			return err
		}
	}
	return w.EndList()
}

// writeImportStruct writes one {name, version, max_id} import descriptor.
func writeImportStruct(w Writer, name string, version int, maxID uint64) error {
	if err := w.BeginStruct(); err != nil {
		return err
	}
	if err := w.FieldName(sysToken("name", SymbolIDName)); err != nil {
		return err
	}
	if err := w.WriteString(name); err != nil {
		return err
	}
	if err := w.FieldName(sysToken("version", SymbolIDVersion)); err != nil {
		return err
	}
	if err := w.WriteInt(int64(version)); err != nil {
		return err
	}
	if err := w.FieldName(sysToken("max_id", SymbolIDMaxID)); err != nil {
		return err
	}
	if err := w.WriteUint(maxID); err != nil {
		return err
	}
	return w.EndStruct()
}

func (t *localTable) String() string {
	buf := strings.Builder{}
	// The writer's own interception must not swallow the struct.
	w := newTextWriter(&buf, WriterOpts{})
	w.emittingLST = true
	_ = t.WriteTo(w)
	return buf.String()
}

// A SymbolTableBuilder accumulates a local symbol table one symbol at a
// time. Builders are unlocked; Build returns a locked snapshot.
type SymbolTableBuilder interface {
	SymbolTable

	// Add interns text, returning its SID and whether it was newly added.
	Add(text string) (uint64, bool)
	// AppendSymbol appends a slot unconditionally, duplicate text or not;
	// an empty string appends an unknown-text slot. Returns the new SID.
	AppendSymbol(text string) uint64
	// Build returns a locked snapshot of the table built so far.
	Build() SymbolTable
}

type tableBuilder struct {
	localTable
}

// NewSymbolTableBuilder creates a builder over the given imports.
func NewSymbolTableBuilder(imports ...SharedSymbolTable) SymbolTableBuilder {
	imps, offsets, maxID := spanImports(imports)
	return &tableBuilder{
		localTable{
			imports:     imps,
			offsets:     offsets,
			maxImportID: maxID,
			index:       make(map[string]uint64),
		},
	}
}

func (b *tableBuilder) Add(text string) (uint64, bool) {
	if sid, ok := b.FindByName(text); ok {
		return sid, false
	}

	b.symbols = append(b.symbols, text)
	sid := b.maxImportID + uint64(len(b.symbols))
	if text != "" {
		b.index[text] = sid
	}
	return sid, true
}

func (b *tableBuilder) AppendSymbol(text string) uint64 {
	b.symbols = append(b.symbols, text)
	sid := b.maxImportID + uint64(len(b.symbols))
	if text != "" {
		if _, ok := b.index[text]; !ok {
			b.index[text] = sid
		}
	}
	return sid
}

func (b *tableBuilder) Build() SymbolTable {
	symbols := append([]string{}, b.symbols...)
	index := make(map[string]uint64, len(b.index))
	for text, sid := range b.index {
		index[text] = sid
	}

	return &localTable{
		imports:     b.imports,
		offsets:     b.offsets,
		maxImportID: b.maxImportID,
		symbols:     symbols,
		index:       index,
		locked:      true,
	}
}

// spanImports lays the imports out as contiguous SID blocks: the system
// table first (supplied implicitly unless the caller already leads with
// it), then each import in declaration order. It returns the import list,
// the SID preceding each block, and the last imported SID.
func spanImports(imports []SharedSymbolTable) ([]SharedSymbolTable, []uint64, uint64) {
	imps := make([]SharedSymbolTable, 0, len(imports)+1)
	if len(imports) == 0 || imports[0].Name() != textIon {
		imps = append(imps, V1SystemSymbolTable)
	}
	imps = append(imps, imports...)

	offsets := make([]uint64, len(imps))
	next := uint64(0)
	for i, imp := range imps {
		offsets[i] = next
		// Unresolved imports span their declared width all the same.
		next += imp.MaxID()
	}

	return imps, offsets, next
}

// indexSymbols maps each known text to the first SID carrying it, walking
// the slots from the given starting SID. Unknown-text slots take up a SID
// but are never indexed.
func indexSymbols(symbols []string, first uint64) map[string]uint64 {
	index := make(map[string]uint64, len(symbols))
	sid := first
	for _, sym := range symbols {
		_, taken := index[sym]
		if sym != "" && !taken {
			index[sym] = sid
		}
		sid++
	}
	return index
}

// sysToken builds a token for one of the well-known system symbols.
func sysToken(text string, sid int64) SymbolToken {
	return SymbolToken{Text: &text, LocalSID: sid}
}

func strptr(s string) *string {
	return &s
}
