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

// A Type represents the type of an Ion value.
type Type uint8

const (
	// NoType is returned by a Reader that is not positioned on a value.
	NoType Type = iota
	// NullType is the type of the unqualified null value.
	NullType
	BoolType
	IntType
	FloatType
	DecimalType
	TimestampType
	SymbolType
	StringType
	ClobType
	BlobType
	ListType
	SexpType
	StructType
)

// String implements fmt.Stringer for Type.
func (t Type) String() string {
	switch t {
	case NoType:
		return "none"
	case NullType:
		return "null"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case DecimalType:
		return "decimal"
	case TimestampType:
		return "timestamp"
	case SymbolType:
		return "symbol"
	case StringType:
		return "string"
	case ClobType:
		return "clob"
	case BlobType:
		return "blob"
	case ListType:
		return "list"
	case SexpType:
		return "sexp"
	case StructType:
		return "struct"
	default:
		return fmt.Sprintf("<unknown type %v>", uint8(t))
	}
}

// IsScalar reports whether t is a non-container type.
func (t Type) IsScalar() bool {
	return t > NoType && t < ListType
}

// IsContainer reports whether t is a list, sexp, or struct.
func (t Type) IsContainer() bool {
	return t == ListType || t == SexpType || t == StructType
}

// A containerStack remembers which containers the cursor has entered,
// innermost last. There is no separate context enum: the stack is keyed
// directly on Type, with NoType standing for the top level.
type containerStack struct {
	arr []Type
}

// top returns the innermost open container, or NoType at the top level.
func (s *containerStack) top() Type {
	if n := len(s.arr); n > 0 {
		return s.arr[n-1]
	}
	return NoType
}

// push enters a container; t must be a container type.
func (s *containerStack) push(t Type) {
	if !t.IsContainer() {
		panic(fmt.Sprintf("cannot enter a %v", t))
	}
	s.arr = append(s.arr, t)
}

// pop leaves the innermost container and returns it, or NoType when
// already at the top level.
func (s *containerStack) pop() Type {
	n := len(s.arr)
	if n == 0 {
		return NoType
	}
	t := s.arr[n-1]
	s.arr = s.arr[:n-1]
	return t
}

func (s *containerStack) depth() int {
	return len(s.arr)
}
