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

import "fmt"

// When a writer is handed a top-level struct annotated $ion_symbol_table,
// the struct is not emitted: its events are fed to this state machine,
// which accumulates a pending local symbol table. When the struct closes
// the pending table becomes the writer's context. Fields other than
// imports and symbols, and values of unexpected types, are open content
// and are discarded; duplicate fields are rejected.

type lstState uint8

const (
	lstNone lstState = iota
	lstInStruct
	lstInImportsList
	lstInImportStruct
	lstInSymbolsList
)

// lstIntercept tracks one intercepted symbol-table struct.
type lstIntercept struct {
	state lstState
	cat   Catalog
	prev  SymbolTable

	// containers mirrors the intercepted container nesting, the
	// intercepted struct itself at the bottom.
	containers []Type
	// skipDepth counts open-content containers being discarded.
	skipDepth int

	pendingField string
	haveField    bool

	seenImports bool
	seenSymbols bool
	appendMode  bool

	imports []SharedSymbolTable
	symbols []string

	impName    *string
	impVersion *int64
	impMaxID   *int64
	impSeen    map[string]bool
}

func (x *lstIntercept) active() bool {
	return x.state != lstNone
}

// begin starts intercepting; prev is the writer's active table, used to
// resolve SID-only tokens inside the struct.
func (x *lstIntercept) begin(cat Catalog, prev SymbolTable) {
	*x = lstIntercept{
		state:      lstInStruct,
		cat:        cat,
		prev:       prev,
		containers: []Type{StructType},
	}
}

// result returns the accumulated table parts; only valid after the
// intercepted struct has closed.
func (x *lstIntercept) result() (appendMode bool, imports []SharedSymbolTable, symbols []string) {
	return x.appendMode, x.imports, x.symbols
}

// reset clears the machine back to inactive.
func (x *lstIntercept) reset() {
	*x = lstIntercept{}
}

// resolveText returns a token's text, consulting the previous context for
// SID-only tokens.
func (x *lstIntercept) resolveText(tok SymbolToken) string {
	if tok.Text != nil {
		return *tok.Text
	}
	if tok.LocalSID != SymbolIDUnknown && x.prev != nil {
		if text, ok := x.prev.FindByID(uint64(tok.LocalSID)); ok {
			return text
		}
	}
	return ""
}

func (x *lstIntercept) fieldName(tok SymbolToken) error {
	if x.skipDepth > 0 {
		return nil
	}
	if x.containers[len(x.containers)-1] != StructType {
		return &UsageError{"Writer.FieldName", "called when not writing a struct"}
	}

	x.pendingField = x.resolveText(tok)
	x.haveField = true
	return nil
}

// takeField consumes the pending field name.
func (x *lstIntercept) takeField(api string) (string, error) {
	if x.containers[len(x.containers)-1] != StructType {
		return "", nil
	}
	if !x.haveField {
		return "", &UsageError{api, "field name not set"}
	}
	name := x.pendingField
	x.pendingField = ""
	x.haveField = false
	return name, nil
}

// markStructField performs duplicate detection on the intercepted struct's
// imports and symbols fields.
func (x *lstIntercept) markStructField(name string) error {
	switch name {
	case "imports":
		if x.seenImports {
			return &SymbolTableError{"duplicate imports field"}
		}
		x.seenImports = true
	case "symbols":
		if x.seenSymbols {
			return &SymbolTableError{"duplicate symbols field"}
		}
		x.seenSymbols = true
	}
	return nil
}

// scalar feeds one scalar (or null) value; v is the value for the types the
// machine cares about: string for strings, int64 for ints, SymbolToken for
// symbols, nil otherwise.
func (x *lstIntercept) scalar(t Type, v interface{}) error {
	if x.skipDepth > 0 {
		return nil
	}

	switch x.state {
	case lstInStruct:
		name, err := x.takeField("Writer.Write")
		if err != nil {
			return err
		}
		if err := x.markStructField(name); err != nil {
			return err
		}
		if name == "imports" && t == SymbolType {
			if tok, ok := v.(SymbolToken); ok {
				if x.resolveText(tok) == textSymbolTable || tok.LocalSID == SymbolIDSymbolTable {
					x.appendMode = true
				}
			}
		}
		return nil

	case lstInImportsList:
		// Non-struct entries in the imports list are ignored.
		return nil

	case lstInImportStruct:
		return x.importField(t, v)

	case lstInSymbolsList:
		if t == StringType {
			if text, ok := v.(string); ok {
				x.symbols = append(x.symbols, text)
				return nil
			}
		}
		// Anything that is not a non-null string is an unknown-text slot.
		x.symbols = append(x.symbols, "")
		return nil
	}

	return &UsageError{"Writer.Write", "invalid symbol-table interception state"}
}

// importField records one field of an import struct.
func (x *lstIntercept) importField(t Type, v interface{}) error {
	name, err := x.takeField("Writer.Write")
	if err != nil {
		return err
	}

	switch name {
	case "name", "version", "max_id":
		if x.impSeen[name] {
			return &SymbolTableError{fmt.Sprintf("duplicate %v field in import", name)}
		}
		x.impSeen[name] = true
	default:
		return nil
	}

	switch name {
	case "name":
		if t == StringType {
			if text, ok := v.(string); ok {
				x.impName = &text
			}
		}
	case "version":
		if t == IntType {
			if n, ok := v.(int64); ok {
				x.impVersion = &n
			}
		}
	case "max_id":
		if t == IntType {
			if n, ok := v.(int64); ok {
				x.impMaxID = &n
			}
		}
	}
	return nil
}

func (x *lstIntercept) beginContainer(t Type) error {
	if x.skipDepth > 0 {
		x.skipDepth++
		x.containers = append(x.containers, t)
		return nil
	}

	switch x.state {
	case lstInStruct:
		name, err := x.takeField("Writer.Begin")
		if err != nil {
			return err
		}
		if err := x.markStructField(name); err != nil {
			return err
		}
		switch {
		case name == "imports" && t == ListType:
			x.state = lstInImportsList
		case name == "symbols" && t == ListType:
			x.state = lstInSymbolsList
		default:
			x.skipDepth = 1
		}

	case lstInImportsList:
		if t == StructType {
			x.state = lstInImportStruct
			x.impName = nil
			x.impVersion = nil
			x.impMaxID = nil
			x.impSeen = make(map[string]bool)
		} else {
			x.skipDepth = 1
		}

	case lstInImportStruct:
		// A container is never a valid import field value.
		if _, err := x.takeField("Writer.Begin"); err != nil {
			return err
		}
		x.skipDepth = 1

	case lstInSymbolsList:
		x.symbols = append(x.symbols, "")
		x.skipDepth = 1
	}

	x.containers = append(x.containers, t)
	return nil
}

// endContainer feeds a container close; finished is true when the
// intercepted struct itself has closed.
func (x *lstIntercept) endContainer(t Type) (finished bool, err error) {
	top := x.containers[len(x.containers)-1]
	if top != t {
		return false, &UsageError{"Writer.End", "not in that kind of container"}
	}
	x.containers = x.containers[:len(x.containers)-1]

	if x.skipDepth > 0 {
		x.skipDepth--
		return false, nil
	}

	switch x.state {
	case lstInStruct:
		return true, nil

	case lstInImportsList, lstInSymbolsList:
		x.state = lstInStruct

	case lstInImportStruct:
		if err := x.finishImport(); err != nil {
			return false, err
		}
		x.state = lstInImportsList
	}
	return false, nil
}

// finishImport resolves the just-closed import struct against the catalog.
func (x *lstIntercept) finishImport() error {
	if x.impName == nil || *x.impName == "" || *x.impName == textIon {
		return nil
	}

	version := 1
	if x.impVersion != nil && *x.impVersion > 0 {
		version = int(*x.impVersion)
	}

	maxID := int64(-1)
	if x.impMaxID != nil {
		if *x.impMaxID < 0 {
			return &SymbolTableError{"import max_id is negative"}
		}
		maxID = *x.impMaxID
	}

	sst, err := findBestMatch(x.cat, *x.impName, version, maxID)
	if err != nil {
		return err
	}
	x.imports = append(x.imports, sst)
	return nil
}
