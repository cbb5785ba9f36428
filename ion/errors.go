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

// A UsageError is returned when a Reader or Writer is driven in a way its
// current state does not permit.
type UsageError struct {
	API string
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("ion: usage error in %v: %v", e.API, e.Msg)
}

// An IOError wraps an error from the underlying io.Reader or io.Writer.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ion: i/o error: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// A SymbolError is returned when a symbol token cannot be resolved: an
// out-of-range symbol ID, symbol zero where text is mandatory, or an import
// location that neither the writer's imports nor its catalog can satisfy.
type SymbolError struct {
	API string
	Msg string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("ion: invalid symbol in %v: %v", e.API, e.Msg)
}

// A SymbolTableError is returned when a symbol table is malformed or cannot
// be used, for example duplicate fields, a null or negative import max_id, a
// shared table without a name, or an attempt to serialize an unresolved
// import.
type SymbolTableError struct {
	Msg string
}

func (e *SymbolTableError) Error() string {
	return fmt.Sprintf("ion: invalid symbol table: %v", e.Msg)
}

// A TooManyAnnotationsError is returned when a value is given more
// annotations than the writer's configured limit.
type TooManyAnnotationsError struct {
	Limit int
}

func (e *TooManyAnnotationsError) Error() string {
	return fmt.Sprintf("ion: too many annotations (limit %v)", e.Limit)
}

// An UnexpectedEOFError is returned when input ends inside a value, or when
// a writer is flushed or closed with a container or lob still open.
type UnexpectedEOFError struct {
	Offset uint64
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("ion: unexpected end of input (offset %v)", e.Offset)
}

// A SyntaxError is returned when a Reader encounters invalid input for which
// no more specific error type exists.
type SyntaxError struct {
	Msg    string
	Offset uint64
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ion: syntax error: %v (offset %v)", e.Msg, e.Offset)
}

// An InvalidTagByteError is returned when a binary Reader encounters a type
// descriptor it cannot interpret, including the reserved 0xF type nibble.
type InvalidTagByteError struct {
	Byte   byte
	Offset uint64
}

func (e *InvalidTagByteError) Error() string {
	return fmt.Sprintf("ion: invalid tag byte 0x%02X (offset %v)", e.Byte, e.Offset)
}

// An UnsupportedVersionError is returned when a binary Reader encounters a
// version marker this library does not understand.
type UnsupportedVersionError struct {
	Major  int
	Minor  int
	Offset uint64
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("ion: unsupported version %v.%v (offset %v)", e.Major, e.Minor, e.Offset)
}

// An InvalidTimestampError is returned when a timestamp cannot be
// represented in the encoding, e.g. a year outside 1..9999.
type InvalidTimestampError struct {
	Msg string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("ion: invalid timestamp: %v", e.Msg)
}

// A NumericOverflowError is returned when a value cannot be represented in
// the requested width.
type NumericOverflowError struct {
	API string
}

func (e *NumericOverflowError) Error() string {
	return fmt.Sprintf("ion: numeric overflow in %v", e.API)
}

// A NotImplementedError is returned for operations the implementation
// recognises but does not support.
type NotImplementedError struct {
	API string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("ion: %v is not implemented", e.API)
}
