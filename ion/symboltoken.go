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
	"fmt"
	"strconv"
)

// SymbolIDUnknown marks a SymbolToken with no assigned symbol ID.
const SymbolIDUnknown = -1

// An ImportSource names the shared symbol table a symbol was imported from,
// along with its ID within that table. It lets a symbol keep its identity
// even when the local context never learned its text.
type ImportSource struct {
	// Table is the name of the shared symbol table.
	Table string
	// SID is the symbol's ID within that table.
	SID int64
}

// Equal reports whether two import sources name the same slot.
func (is *ImportSource) Equal(o *ImportSource) bool {
	if is == nil || o == nil {
		return is == o
	}
	return is.Table == o.Table && is.SID == o.SID
}

// A SymbolToken is a symbol as it appears in a stream: known text, a symbol
// ID local to the current symbol-table context, an import source, or some
// combination. At least one of the three carriers is meaningful; accessors
// consult them in the order text, import source, SID.
type SymbolToken struct {
	// Text is the symbol's text, or nil if the text is unknown.
	Text *string
	// LocalSID is the symbol's ID in the current context, or SymbolIDUnknown.
	LocalSID int64
	// Source identifies the shared-table slot this symbol came from, if any.
	Source *ImportSource
}

// NewSymbolTokenString builds a token carrying only text.
func NewSymbolTokenString(text string) SymbolToken {
	return SymbolToken{Text: &text, LocalSID: SymbolIDUnknown}
}

// NewSymbolTokenSID builds a token carrying only a local symbol ID.
func NewSymbolTokenSID(sid int64) SymbolToken {
	return SymbolToken{LocalSID: sid}
}

// NewSymbolTokenFromTable resolves text against st and returns a token
// carrying both text and the table's SID for it.
func NewSymbolTokenFromTable(st SymbolTable, text string) (SymbolToken, error) {
	sid, ok := st.FindByName(text)
	if !ok {
		return SymbolToken{LocalSID: SymbolIDUnknown},
			&SymbolError{"NewSymbolTokenFromTable", fmt.Sprintf("symbol %q not found", text)}
	}
	return SymbolToken{Text: &text, LocalSID: int64(sid)}, nil
}

// NewSymbolTokenBySID resolves sid against st. If the table does not know the
// slot's text the token's Text is nil and, when the slot belongs to an
// unresolved import, Source carries the import location.
func NewSymbolTokenBySID(st SymbolTable, sid int64) (SymbolToken, error) {
	if sid < 0 || (st != nil && uint64(sid) > st.MaxID()) {
		return SymbolToken{LocalSID: SymbolIDUnknown},
			&SymbolError{"NewSymbolTokenBySID", fmt.Sprintf("symbol ID %v out of range", sid)}
	}

	tok := SymbolToken{LocalSID: sid}
	if st == nil || sid == 0 {
		return tok, nil
	}

	if text, ok := st.FindByID(uint64(sid)); ok {
		tok.Text = &text
	} else if src := st.SourceOf(uint64(sid)); src != nil {
		tok.Source = src
	}
	return tok, nil
}

// IsZero reports whether the token carries none of its three components.
func (st SymbolToken) IsZero() bool {
	return st.Text == nil && st.LocalSID == SymbolIDUnknown && st.Source == nil
}

// Equal reports whether two tokens denote the same symbol: by text when both
// texts are known, else by import source, else by local SID.
func (st *SymbolToken) Equal(o *SymbolToken) bool {
	if st.Text != nil && o.Text != nil {
		return *st.Text == *o.Text
	}
	if st.Text == nil && o.Text == nil {
		if st.Source != nil || o.Source != nil {
			return st.Source.Equal(o.Source)
		}
		return st.LocalSID == o.LocalSID
	}
	return false
}

// String implements fmt.Stringer for SymbolToken.
func (st SymbolToken) String() string {
	if st.Text != nil {
		return *st.Text
	}
	if st.Source != nil {
		return fmt.Sprintf("%v#%v", st.Source.Table, st.Source.SID)
	}
	if st.LocalSID != SymbolIDUnknown {
		return fmt.Sprintf("$%v", st.LocalSID)
	}
	return "$0"
}

// symbolIdentifier recognises text of the form $<digits>, which denotes a
// raw symbol ID rather than symbol text.
func symbolIdentifier(text string) (int64, bool) {
	if len(text) < 2 || text[0] != '$' {
		return 0, false
	}
	for i := 1; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, false
		}
	}
	sid, err := strconv.ParseInt(text[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return sid, true
}
