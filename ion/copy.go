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

// CopyValue copies the single value the reader is positioned on into the
// writer, leaving the reader at the same depth.
func CopyValue(w Writer, r Reader) error {
	return writeCurrentValue(w, r)
}

// writeAllValues pumps every remaining value from r into w. Symbols travel
// by token, so text-carrying tokens are re-interned into the writer's
// context; when the reader crosses a symbol-table boundary mid-stream the
// writer simply keeps interning into its current context. Callers that
// need SID-for-SID symbol-table fidelity must drive the copy themselves.
func writeAllValues(w Writer, r Reader) error {
	for r.Next() {
		if err := writeCurrentValue(w, r); err != nil {
			return err
		}
	}
	return r.Err()
}

// writeCurrentValue copies the single value the reader is positioned on.
func writeCurrentValue(w Writer, r Reader) error {
	if w.IsInStruct() {
		name, err := r.FieldName()
		if err != nil {
			return err
		}
		if name != nil {
			if err := w.FieldName(*name); err != nil {
				return err
			}
		}
	}

	as, err := r.Annotations()
	if err != nil {
		return err
	}
	if len(as) > 0 {
		if err := w.Annotations(as...); err != nil {
			return err
		}
	}

	if r.IsNull() && !r.Type().IsContainer() {
		if r.Type() == NullType {
			return w.WriteNull()
		}
		return w.WriteNullType(r.Type())
	}

	switch r.Type() {
	case BoolType:
		val, err := r.BoolValue()
		if err != nil {
			return err
		}
		return w.WriteBool(*val)

	case IntType:
		val, err := r.BigIntValue()
		if err != nil {
			return err
		}
		if val.IsInt64() {
			return w.WriteInt(val.Int64())
		}
		return w.WriteBigInt(val)

	case FloatType:
		val, err := r.FloatValue()
		if err != nil {
			return err
		}
		return w.WriteFloat(*val)

	case DecimalType:
		val, err := r.DecimalValue()
		if err != nil {
			return err
		}
		return w.WriteDecimal(val)

	case TimestampType:
		val, err := r.TimestampValue()
		if err != nil {
			return err
		}
		return w.WriteTimestamp(*val)

	case SymbolType:
		val, err := r.SymbolValue()
		if err != nil {
			return err
		}
		return w.WriteSymbol(*val)

	case StringType:
		val, err := r.StringValue()
		if err != nil {
			return err
		}
		return w.WriteString(*val)

	case ClobType:
		val, err := r.ByteValue()
		if err != nil {
			return err
		}
		return w.WriteClob(val)

	case BlobType:
		val, err := r.ByteValue()
		if err != nil {
			return err
		}
		return w.WriteBlob(val)

	case ListType, SexpType, StructType:
		return writeContainer(w, r)
	}

	return &UsageError{"Writer.WriteAllValues", "reader is not positioned on a value"}
}

// writeContainer copies a container value, nulls included.
func writeContainer(w Writer, r Reader) error {
	t := r.Type()

	if r.IsNull() {
		return w.WriteNullType(t)
	}

	var begin, end func() error
	switch t {
	case ListType:
		begin, end = w.BeginList, w.EndList
	case SexpType:
		begin, end = w.BeginSexp, w.EndSexp
	default:
		begin, end = w.BeginStruct, w.EndStruct
	}

	if err := begin(); err != nil {
		return err
	}
	if err := r.StepIn(); err != nil {
		return err
	}
	for r.Next() {
		if err := writeCurrentValue(w, r); err != nil {
			return err
		}
	}
	if err := r.Err(); err != nil {
		return err
	}
	if err := r.StepOut(); err != nil {
		return err
	}
	return end()
}
