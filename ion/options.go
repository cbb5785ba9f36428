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

import "io"

const (
	defaultMaxAnnotations    = 10
	defaultMaxContainerDepth = 32
	defaultIndentSize        = 2
	defaultScratchSize       = 4096
)

// WriterOpts configures a Writer. The zero value is a plain text writer.
type WriterOpts struct {
	// OutputAsBinary selects the binary encoding.
	OutputAsBinary bool

	// PrettyPrint makes the text encoding multi-line and indented.
	PrettyPrint bool

	// IndentSize is the pretty-print indent width in spaces; default 2.
	IndentSize int

	// EscapeAllNonASCII escapes every non-ASCII character in strings and
	// symbols as \uXXXX or \UXXXXXXXX.
	EscapeAllNonASCII bool

	// JSONDownconvert restricts the text encoding to JSON: quoted field
	// names, symbols as strings, sexps as lists, lobs as strings, and no
	// annotations or typed nulls.
	JSONDownconvert bool

	// MaxAnnotationCount bounds the annotations on one value; default 10.
	MaxAnnotationCount int

	// MaxContainerDepth bounds container nesting; default 32.
	MaxContainerDepth int

	// TempBufferSize is the initial size in bytes of the binary writer's
	// scratch stream; default 4096.
	TempBufferSize int

	// FlushEveryValue flushes the writer after each top-level value.
	FlushEveryValue bool

	// CompactFloats encodes a float in 32 bits when that round-trips the
	// 64-bit value.
	CompactFloats bool

	// Imports are shared symbol tables pre-loaded into the writer's
	// symbol-table context.
	Imports []SharedSymbolTable

	// Catalog resolves imports declared by intercepted symbol tables.
	Catalog Catalog
}

// withDefaults fills in the zero-valued limits.
func (o WriterOpts) withDefaults() WriterOpts {
	if o.MaxAnnotationCount == 0 {
		o.MaxAnnotationCount = defaultMaxAnnotations
	}
	if o.MaxContainerDepth == 0 {
		o.MaxContainerDepth = defaultMaxContainerDepth
	}
	if o.IndentSize == 0 {
		o.IndentSize = defaultIndentSize
	}
	if o.TempBufferSize == 0 {
		o.TempBufferSize = defaultScratchSize
	}
	return o
}

// NewWriter creates a Writer for the encoding selected by opts.
func NewWriter(out io.Writer, opts WriterOpts) Writer {
	if opts.OutputAsBinary {
		return newBinaryWriter(out, opts)
	}
	return newTextWriter(out, opts)
}

// NewBinaryWriter creates a binary writer that builds a local symbol table
// over the given imports as it is written to.
func NewBinaryWriter(out io.Writer, imports ...SharedSymbolTable) Writer {
	return newBinaryWriter(out, WriterOpts{OutputAsBinary: true, Imports: imports})
}

// NewTextWriter creates a plain text writer.
func NewTextWriter(out io.Writer, imports ...SharedSymbolTable) Writer {
	return newTextWriter(out, WriterOpts{Imports: imports})
}

// NewTextWriterPretty creates a pretty-printing text writer.
func NewTextWriterPretty(out io.Writer, imports ...SharedSymbolTable) Writer {
	return newTextWriter(out, WriterOpts{PrettyPrint: true, Imports: imports})
}
