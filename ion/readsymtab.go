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

// readLocalSymbolTable reads the $ion_symbol_table struct the reader is
// positioned on and returns the table it describes. An imports field of
// $ion_symbol_table appends to the reader's current context instead of
// replacing it.
func readLocalSymbolTable(r Reader, cat Catalog) (SymbolTable, error) {
	if err := r.StepIn(); err != nil {
		return nil, err
	}

	var imps []SharedSymbolTable
	var syms []string

	seenImports := false
	seenSymbols := false

	for r.Next() {
		name, err := r.FieldName()
		if err != nil {
			return nil, err
		}
		if name == nil || name.Text == nil {
			continue
		}

		switch *name.Text {
		case "imports":
			if seenImports {
				return nil, &SymbolTableError{"duplicate imports field"}
			}
			seenImports = true
			imps, err = readImports(r, cat)
		case "symbols":
			if seenSymbols {
				return nil, &SymbolTableError{"duplicate symbols field"}
			}
			seenSymbols = true
			syms, err = readSymbolsList(r)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := r.StepOut(); err != nil {
		return nil, err
	}

	return NewLocalSymbolTable(imps, syms), nil
}

// readImports reads the imports field of a local symbol table.
func readImports(r Reader, cat Catalog) ([]SharedSymbolTable, error) {
	if r.Type() == SymbolType && !r.IsNull() {
		val, err := r.SymbolValue()
		if err != nil {
			return nil, err
		}

		isAppend := val != nil &&
			(val.Text != nil && *val.Text == textSymbolTable ||
				val.Text == nil && val.LocalSID == SymbolIDSymbolTable)
		if !isAppend {
			return nil, nil
		}

		// Append: the current context's blocks carry over, its local
		// symbols packaged as one more (anonymous) import.
		cur := r.SymbolTable()
		if cur == nil || cur == V1SystemSymbolTable {
			return nil, nil
		}
		imps := cur.Imports()
		return append(imps, NewSharedSymbolTable("", 0, cur.Symbols())), nil
	}

	if r.Type() != ListType || r.IsNull() {
		return nil, nil
	}
	if err := r.StepIn(); err != nil {
		return nil, err
	}

	var imps []SharedSymbolTable
	for r.Next() {
		imp, err := readImport(r, cat)
		if err != nil {
			return nil, err
		}
		if imp != nil {
			imps = append(imps, imp)
		}
	}

	err := r.StepOut()
	return imps, err
}

// readImport reads one {name, version, max_id} import descriptor and
// resolves it against the catalog.
func readImport(r Reader, cat Catalog) (SharedSymbolTable, error) {
	if r.Type() != StructType || r.IsNull() {
		return nil, nil
	}
	if err := r.StepIn(); err != nil {
		return nil, err
	}

	name := ""
	version := 0
	maxID := int64(-1)
	seen := map[string]bool{}

	for r.Next() {
		field, err := r.FieldName()
		if err != nil {
			return nil, err
		}
		if field == nil || field.Text == nil {
			continue
		}

		switch *field.Text {
		case "name", "version", "max_id":
			if seen[*field.Text] {
				return nil, &SymbolTableError{"duplicate " + *field.Text + " field in import"}
			}
			seen[*field.Text] = true
		default:
			continue
		}

		switch *field.Text {
		case "name":
			if r.Type() == StringType && !r.IsNull() {
				val, err := r.StringValue()
				if err != nil {
					return nil, err
				}
				name = *val
			}
		case "version":
			if r.Type() == IntType && !r.IsNull() {
				val, err := r.Int64Value()
				if err != nil {
					return nil, err
				}
				version = int(*val)
			}
		case "max_id":
			if r.Type() == IntType {
				if r.IsNull() {
					return nil, &SymbolTableError{"import max_id is null"}
				}
				val, err := r.Int64Value()
				if err != nil {
					return nil, err
				}
				maxID = *val
			}
		}
	}

	if err := r.StepOut(); err != nil {
		return nil, err
	}

	if name == "" || name == textIon {
		return nil, nil
	}
	if version < 1 {
		version = 1
	}
	return findBestMatch(cat, name, version, maxID)
}

// readSymbolsList reads a symbols list; every slot that is not a non-null
// string becomes an unknown-text slot.
func readSymbolsList(r Reader) ([]string, error) {
	if r.Type() != ListType || r.IsNull() {
		return nil, nil
	}
	if err := r.StepIn(); err != nil {
		return nil, err
	}

	var syms []string
	for r.Next() {
		if r.Type() == StringType && !r.IsNull() {
			sym, err := r.StringValue()
			if err != nil {
				return nil, err
			}
			syms = append(syms, *sym)
		} else {
			syms = append(syms, "")
		}
	}

	err := r.StepOut()
	return syms, err
}

// ReadSharedSymbolTable reads the $ion_shared_symbol_table struct the
// reader is positioned on.
func ReadSharedSymbolTable(r Reader) (SharedSymbolTable, error) {
	if r.Type() != StructType || r.IsNull() {
		return nil, &SymbolTableError{"shared symbol table is not a struct"}
	}
	if err := r.StepIn(); err != nil {
		return nil, err
	}

	name := ""
	version := 0
	maxID := int64(-1)
	var syms []string

	seen := map[string]bool{}

	for r.Next() {
		field, err := r.FieldName()
		if err != nil {
			return nil, err
		}
		if field == nil || field.Text == nil {
			continue
		}

		switch *field.Text {
		case "name", "version", "max_id", "symbols":
			if seen[*field.Text] {
				return nil, &SymbolTableError{"duplicate " + *field.Text + " field"}
			}
			seen[*field.Text] = true
		default:
			continue
		}

		switch *field.Text {
		case "name":
			if r.Type() == StringType && !r.IsNull() {
				val, err := r.StringValue()
				if err != nil {
					return nil, err
				}
				name = *val
			}
		case "version":
			if r.Type() == IntType && !r.IsNull() {
				val, err := r.Int64Value()
				if err != nil {
					return nil, err
				}
				version = int(*val)
			}
		case "max_id":
			if r.Type() == IntType && !r.IsNull() {
				val, err := r.Int64Value()
				if err != nil {
					return nil, err
				}
				maxID = *val
			}
		case "symbols":
			if syms, err = readSymbolsList(r); err != nil {
				return nil, err
			}
		}
	}

	if err := r.StepOut(); err != nil {
		return nil, err
	}

	if name == "" {
		return nil, &SymbolTableError{"shared symbol table has no name"}
	}
	if version < 1 {
		version = 1
	}

	sst := NewSharedSymbolTable(name, version, syms)
	if maxID >= 0 && uint64(maxID) != sst.MaxID() {
		sst = sst.Adjust(uint64(maxID))
	}
	return sst, nil
}
