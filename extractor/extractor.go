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

// Package extractor streams an ion.Reader past a set of registered path
// patterns, firing a callback for every value whose structural path
// matches one. Matching is a single forward pass: containers are only
// entered while at least one partial match is still alive inside them.
package extractor

import (
	"fmt"
	"strings"

	"github.com/ionworks/ion-go/ion"
)

const (
	defaultMaxNumPaths   = 64
	defaultMaxPathLength = 16
)

// A Control is a callback's instruction to the matcher: Next to keep
// going, or StepOut(k) to finish the current value and leave k enclosing
// containers before resuming.
type Control int

// Next continues matching with the next value.
func Next() Control {
	return 0
}

// StepOut finishes the current value, then steps out of k containers.
// Asking to step past the matcher's scope fails the match.
func StepOut(k int) Control {
	return Control(k)
}

// A Callback is fired when a registered path matches the reader's current
// value. It must return with the reader at the depth it was given.
type Callback func(r ion.Reader, p *Path, userCtx interface{}) (Control, error)

// Options fixes an Extractor's capacity and matching behaviour.
type Options struct {
	// MaxNumPaths caps the registered paths; default 64.
	MaxNumPaths int
	// MaxPathLength caps a path's component count; default 16.
	MaxPathLength int
	// MatchRelativePaths scopes matching to the reader's depth at the
	// time Match is called instead of requiring the top level.
	MatchRelativePaths bool
	// MatchCaseInsensitive makes field components ignore ASCII case.
	MatchCaseInsensitive bool
}

// An Extractor owns registered paths, their components, and the active-path
// bitmaps. All storage is sized by the Options at creation.
type Extractor struct {
	opts  Options
	paths []*Path

	// components is column-major, [maxPathLength x maxNumPaths], so the
	// matcher's sweep over "component at depth d of every path" touches a
	// contiguous row.
	components []component

	// inProgress marks paths still being built; matching is blocked while
	// any bit is set.
	inProgress bitmap
	// depthZero marks zero-length paths, which fire on every top-level
	// value.
	depthZero bitmap
}

// New creates an Extractor with the given options.
func New(opts Options) (*Extractor, error) {
	if opts.MaxNumPaths == 0 {
		opts.MaxNumPaths = defaultMaxNumPaths
	}
	if opts.MaxPathLength == 0 {
		opts.MaxPathLength = defaultMaxPathLength
	}
	if opts.MaxNumPaths < 0 || opts.MaxPathLength < 0 {
		return nil, &ion.UsageError{API: "extractor.New", Msg: "negative capacity"}
	}

	return &Extractor{
		opts:       opts,
		components: make([]component, opts.MaxPathLength*opts.MaxNumPaths),
		inProgress: newBitmap(opts.MaxNumPaths),
		depthZero:  newBitmap(opts.MaxNumPaths),
	}, nil
}

// NewPath registers an empty path of the given length. The path must be
// completed with Append calls before matching; a zero-length path matches
// every value at the matcher's scope.
func (x *Extractor) NewPath(length int, cb Callback, userCtx interface{}) (*Path, error) {
	if cb == nil {
		return nil, &ion.UsageError{API: "Extractor.NewPath", Msg: "callback is nil"}
	}
	if length < 0 || length > x.opts.MaxPathLength {
		return nil, &ion.UsageError{API: "Extractor.NewPath",
			Msg: fmt.Sprintf("length %v exceeds the maximum of %v", length, x.opts.MaxPathLength)}
	}
	if len(x.paths) >= x.opts.MaxNumPaths {
		return nil, &ion.UsageError{API: "Extractor.NewPath",
			Msg: fmt.Sprintf("at most %v paths may be registered", x.opts.MaxNumPaths)}
	}

	p := &Path{
		x:        x,
		id:       len(x.paths),
		length:   length,
		callback: cb,
		userCtx:  userCtx,
	}
	x.paths = append(x.paths, p)

	if length == 0 {
		x.depthZero.set(p.id)
	} else {
		x.inProgress.set(p.id)
	}
	return p, nil
}

// NewPathFromIon registers a path compiled from the Ion value the reader
// is positioned on: a sexp or list whose elements are ordinals (ints),
// fields (text), or the wildcard symbol *. A * annotated with
// $ion_extractor_field is the literal field "*".
func (x *Extractor) NewPathFromIon(r ion.Reader, cb Callback, userCtx interface{}) (*Path, error) {
	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, &ion.UsageError{API: "Extractor.NewPathFromIon", Msg: "no path value"}
	}

	// The reader gives us one pass, so the components are collected before
	// the path (whose length must be declared up front) is registered.
	toks, err := readPathComponents(r)
	if err != nil {
		return nil, err
	}
	if r.Next() {
		return nil, &ion.UsageError{API: "Extractor.NewPathFromIon", Msg: "more than one top-level value"}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	return x.newPathFromTokens(toks, cb, userCtx)
}

// newPathFromTokens registers and completes a path in one step.
func (x *Extractor) newPathFromTokens(toks []pathToken, cb Callback, userCtx interface{}) (*Path, error) {
	p, err := x.NewPath(len(toks), cb, userCtx)
	if err != nil {
		return nil, err
	}
	for _, tok := range toks {
		switch tok.kind {
		case componentOrdinal:
			err = p.AppendOrdinal(tok.ordinal)
		case componentWildcard:
			err = p.AppendWildcard()
		default:
			err = p.AppendField(tok.text)
		}
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewPathFromText registers a path compiled from a path expression in text
// form, e.g. "(foo bar 2)" or "(abc * def)".
func (x *Extractor) NewPathFromText(expr string, cb Callback, userCtx interface{}) (*Path, error) {
	toks, err := parsePathText(expr)
	if err != nil {
		return nil, err
	}

	return x.newPathFromTokens(toks, cb, userCtx)
}

// Match drives the reader to the end of its current scope, firing
// callbacks as registered paths match. Without MatchRelativePaths the
// reader must be at the top level.
func (x *Extractor) Match(r ion.Reader) error {
	if x.inProgress.any() {
		return &ion.UsageError{API: "Extractor.Match", Msg: "cannot match with a path still in progress"}
	}
	if !x.opts.MatchRelativePaths && r.Depth() != 0 {
		return &ion.UsageError{API: "Extractor.Match", Msg: "reader must be at the top level"}
	}
	if len(x.paths) == 0 {
		return nil
	}

	_, err := x.matchAt(r, 0, x.depthZero)
	return err
}

// matchAt consumes the values at one depth. previous holds the paths whose
// depth-1 component matched the enclosing value; the return value is the
// number of further step-outs a callback has requested.
func (x *Extractor) matchAt(r ion.Reader, depth int, previous bitmap) (int, error) {
	ordinal := int64(0)
	current := newBitmap(x.opts.MaxNumPaths)

	for r.Next() {
		if depth == 0 {
			// Everything is live at the scope root.
			current.setFirst(len(x.paths))
		} else {
			current.clearAll()
		}

		control, err := x.evaluate(r, depth, ordinal, previous, current)
		if err != nil {
			return 0, err
		}
		if control > 0 {
			return control - 1, nil
		}
		ordinal++

		if r.Type().IsContainer() && !r.IsNull() && current.any() {
			if err := r.StepIn(); err != nil {
				return 0, err
			}
			control, err := x.matchAt(r, depth+1, current)
			if err != nil {
				return 0, err
			}
			if err := r.StepOut(); err != nil {
				return 0, err
			}
			if control > 0 {
				return control - 1, nil
			}
		}
	}

	return 0, r.Err()
}

// evaluate tests every path active at the previous depth against the
// current value, dispatching terminal matches in path-ID order and marking
// partial matches in current.
func (x *Extractor) evaluate(r ion.Reader, depth int, ordinal int64, previous, current bitmap) (int, error) {
	for i := range x.paths {
		if !previous.test(i) {
			continue
		}

		var comp *component
		if depth > 0 {
			comp = &x.components[(depth-1)*x.opts.MaxNumPaths+i]
			matches, err := x.predicate(r, comp, ordinal)
			if err != nil {
				return 0, err
			}
			if !matches {
				continue
			}
		}

		if comp == nil || comp.terminal {
			// Zero-length paths land here with no component at all.
			control, err := x.dispatch(r, i)
			if err != nil {
				return 0, err
			}
			if control > 0 {
				if control > depth {
					return 0, &ion.UsageError{API: "Extractor.Match",
						Msg: "callback requested a step out past the matcher's scope"}
				}
				return control, nil
			}
		}

		if comp != nil && !comp.terminal {
			current.set(i)
		}
	}

	return 0, nil
}

// predicate evaluates one component against the current value.
func (x *Extractor) predicate(r ion.Reader, comp *component, ordinal int64) (bool, error) {
	switch comp.kind {
	case componentField:
		name, err := r.FieldName()
		if err != nil {
			return false, err
		}
		if name == nil || name.Text == nil {
			return false, nil
		}
		if x.opts.MatchCaseInsensitive {
			return strings.EqualFold(*name.Text, comp.text), nil
		}
		return *name.Text == comp.text, nil

	case componentOrdinal:
		return ordinal == comp.ordinal, nil

	default:
		return true, nil
	}
}

// dispatch fires one path's callback and validates its behaviour.
func (x *Extractor) dispatch(r ion.Reader, i int) (int, error) {
	p := x.paths[i]

	before := r.Depth()
	control, err := p.callback(r, p, p.userCtx)
	if err != nil {
		return 0, err
	}
	if r.Depth() != before {
		return 0, &ion.UsageError{API: "Extractor.Match",
			Msg: "callback returned with the reader at a different depth"}
	}
	if control < 0 {
		return 0, &ion.UsageError{API: "Extractor.Match", Msg: "invalid control instruction"}
	}

	return int(control), nil
}
