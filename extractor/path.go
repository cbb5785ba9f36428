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

package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ionworks/ion-go/ion"
)

// fieldAnnotation marks a path component that matches the literal field
// name "*" rather than acting as a wildcard.
const fieldAnnotation = "$ion_extractor_field"

type componentKind uint8

const (
	componentField componentKind = iota
	componentOrdinal
	componentWildcard
)

// A component is one step of a path: a field name, a sibling ordinal, or a
// wildcard. terminal is precomputed so the matcher's inner loop does not
// chase the path's length.
type component struct {
	kind     componentKind
	text     string
	ordinal  int64
	terminal bool
}

// A Path is a compiled pattern of components plus the callback it fires.
// Paths are created through an Extractor and carry a dense ID assigned at
// creation.
type Path struct {
	x       *Extractor
	id      int
	length  int
	current int

	callback Callback
	userCtx  interface{}
}

// ID returns the path's dense identifier.
func (p *Path) ID() int {
	return p.id
}

// Length returns the path's declared component count.
func (p *Path) Length() int {
	return p.length
}

// UserContext returns the opaque value registered with the path.
func (p *Path) UserContext() interface{} {
	return p.userCtx
}

// AppendField appends a field-name component.
func (p *Path) AppendField(text string) error {
	return p.append(component{kind: componentField, text: text})
}

// AppendOrdinal appends a sibling-position component; positions count from
// zero and include every value, matched or not.
func (p *Path) AppendOrdinal(ordinal int64) error {
	if ordinal < 0 {
		return &ion.UsageError{API: "Path.AppendOrdinal", Msg: "ordinal must be non-negative"}
	}
	return p.append(component{kind: componentOrdinal, ordinal: ordinal})
}

// AppendWildcard appends a component that matches any value.
func (p *Path) AppendWildcard() error {
	return p.append(component{kind: componentWildcard})
}

func (p *Path) append(c component) error {
	if p.current >= p.length {
		return &ion.UsageError{API: "Path.Append", Msg: "path is already complete"}
	}

	c.terminal = p.current == p.length-1
	p.x.components[p.current*p.x.opts.MaxNumPaths+p.id] = c
	p.current++

	if p.current == p.length {
		p.x.inProgress.clear(p.id)
	}
	return nil
}

// readPathComponents collects the components of the path value (a sexp or
// list) the reader is positioned on.
func readPathComponents(r ion.Reader) ([]pathToken, error) {
	if r.Type() != ion.SexpType && r.Type() != ion.ListType || r.IsNull() {
		return nil, &ion.UsageError{API: "Extractor.NewPathFromIon", Msg: "path must be a sexp or list"}
	}
	if err := r.StepIn(); err != nil {
		return nil, err
	}

	var toks []pathToken
	for r.Next() {
		switch r.Type() {
		case ion.IntType:
			v, err := r.Int64Value()
			if err != nil {
				return nil, err
			}
			toks = append(toks, pathToken{kind: componentOrdinal, ordinal: *v})

		case ion.StringType:
			v, err := r.StringValue()
			if err != nil {
				return nil, err
			}
			toks = append(toks, pathToken{kind: componentField, text: *v})

		case ion.SymbolType:
			v, err := r.SymbolValue()
			if err != nil {
				return nil, err
			}
			if v == nil || v.Text == nil {
				return nil, &ion.UsageError{API: "Extractor.NewPathFromIon", Msg: "path component symbol has no text"}
			}
			literal := false
			as, err := r.Annotations()
			if err != nil {
				return nil, err
			}
			if len(as) > 0 && as[0].Text != nil && *as[0].Text == fieldAnnotation {
				literal = true
			}
			if *v.Text == "*" && !literal {
				toks = append(toks, pathToken{kind: componentWildcard})
			} else {
				toks = append(toks, pathToken{kind: componentField, text: *v.Text})
			}

		default:
			return nil, &ion.UsageError{API: "Extractor.NewPathFromIon",
				Msg: fmt.Sprintf("a %v is not a path component", r.Type())}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	return toks, r.StepOut()
}

// pathExpr is a scanner over the text form of a path expression, e.g.
// (foo 2 *) or ['foo', "bar"]. The full text reader is not needed for this
// six-token grammar.
type pathExpr struct {
	in  string
	pos int
}

type pathToken struct {
	kind      componentKind
	text      string
	ordinal   int64
	annotated bool
}

// parsePathText tokenizes a path expression into components.
func parsePathText(expr string) ([]pathToken, error) {
	s := &pathExpr{in: expr}

	s.skipSpace()
	open := s.next()
	var close byte
	switch open {
	case '(':
		close = ')'
	case '[':
		close = ']'
	default:
		return nil, &ion.UsageError{API: "Extractor.NewPathFromText", Msg: "path must be a sexp or list"}
	}

	var toks []pathToken
	for {
		s.skipSpace()
		c := s.peek()
		if c == 0 {
			return nil, &ion.UsageError{API: "Extractor.NewPathFromText", Msg: "unterminated path"}
		}
		if c == close {
			s.next()
			break
		}

		tok, err := s.component()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}

	s.skipSpace()
	if s.pos != len(s.in) {
		return nil, &ion.UsageError{API: "Extractor.NewPathFromText", Msg: "trailing input after path"}
	}
	return toks, nil
}

func (s *pathExpr) peek() byte {
	if s.pos >= len(s.in) {
		return 0
	}
	return s.in[s.pos]
}

func (s *pathExpr) next() byte {
	c := s.peek()
	if c != 0 {
		s.pos++
	}
	return c
}

func (s *pathExpr) skipSpace() {
	for {
		switch s.peek() {
		case ' ', '\t', '\n', '\r', ',':
			s.pos++
		default:
			return
		}
	}
}

// component scans one component, honouring a $ion_extractor_field
// annotation on a symbol.
func (s *pathExpr) component() (pathToken, error) {
	text, quoted, err := s.token()
	if err != nil {
		return pathToken{}, err
	}

	// A token followed by :: is an annotation on the next one.
	annotated := false
	if strings.HasPrefix(s.in[s.pos:], "::") {
		s.pos += 2
		s.skipSpace()
		if text != fieldAnnotation {
			return pathToken{}, &ion.UsageError{API: "Extractor.NewPathFromText",
				Msg: fmt.Sprintf("unexpected annotation %q in path", text)}
		}
		annotated = true
		if text, quoted, err = s.token(); err != nil {
			return pathToken{}, err
		}
	}

	if !quoted {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			if annotated {
				return pathToken{}, &ion.UsageError{API: "Extractor.NewPathFromText",
					Msg: "an ordinal cannot carry " + fieldAnnotation}
			}
			return pathToken{kind: componentOrdinal, ordinal: n}, nil
		}
		if text == "*" && !annotated {
			return pathToken{kind: componentWildcard}, nil
		}
	}

	return pathToken{kind: componentField, text: text, annotated: annotated}, nil
}

// token scans an identifier, number, *, or quoted text.
func (s *pathExpr) token() (text string, quoted bool, err error) {
	c := s.peek()
	switch {
	case c == '\'' || c == '"':
		quote := s.next()
		var b strings.Builder
		for {
			c := s.next()
			switch c {
			case 0:
				return "", false, &ion.UsageError{API: "Extractor.NewPathFromText", Msg: "unterminated quote"}
			case quote:
				return b.String(), true, nil
			case '\\':
				e := s.next()
				switch e {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case '\\', '\'', '"':
					b.WriteByte(e)
				default:
					return "", false, &ion.UsageError{API: "Extractor.NewPathFromText",
						Msg: fmt.Sprintf("unsupported escape \\%c", e)}
				}
			default:
				b.WriteByte(c)
			}
		}

	case c == '*':
		s.next()
		return "*", false, nil

	default:
		start := s.pos
		for {
			c := s.peek()
			if c == 0 || c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
				c == ',' || c == ')' || c == ']' || c == ':' {
				break
			}
			s.pos++
		}
		if s.pos == start {
			return "", false, &ion.UsageError{API: "Extractor.NewPathFromText",
				Msg: fmt.Sprintf("unexpected character %q", c)}
		}
		return s.in[start:s.pos], false, nil
	}
}
