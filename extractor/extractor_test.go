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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionworks/ion-go/ion"
)

// encode builds a binary Ion document for the matcher tests.
func encode(t *testing.T, f func(w ion.Writer)) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	w := ion.NewBinaryWriter(&buf)
	f(w)
	require.NoError(t, w.Finish())
	return buf.Bytes()
}

// document is {abc: def, foo: {bar: [1, 2, 3]}}.
func document(t *testing.T) []byte {
	return encode(t, func(w ion.Writer) {
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("abc"))
		require.NoError(t, w.WriteSymbolFromString("def"))
		require.NoError(t, w.FieldNameString("foo"))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("bar"))
		require.NoError(t, w.BeginList())
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.WriteInt(2))
		require.NoError(t, w.WriteInt(3))
		require.NoError(t, w.EndList())
		require.NoError(t, w.EndStruct())
		require.NoError(t, w.EndStruct())
	})
}

// collectInts registers the matched int values in order.
func collectInts(t *testing.T, into *[]int64) Callback {
	return func(r ion.Reader, p *Path, _ interface{}) (Control, error) {
		v, err := r.Int64Value()
		require.NoError(t, err)
		*into = append(*into, *v)
		return Next(), nil
	}
}

func TestMatchFieldOrdinalPath(t *testing.T) {
	x, err := New(Options{})
	require.NoError(t, err)

	var got []int64
	p, err := x.NewPath(3, collectInts(t, &got), nil)
	require.NoError(t, err)
	require.NoError(t, p.AppendField("foo"))
	require.NoError(t, p.AppendField("bar"))
	require.NoError(t, p.AppendOrdinal(2))

	require.NoError(t, x.Match(ion.NewReaderBytes(document(t))))
	assert.Equal(t, []int64{3}, got)
}

func TestMatchWildcard(t *testing.T) {
	x, err := New(Options{})
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPathFromText("(foo bar *)", collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(document(t))))
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestMatchOrdinalsCountEveryValue(t *testing.T) {
	// [10, "skip", 30] — the ordinal counts the string too.
	doc := encode(t, func(w ion.Writer) {
		require.NoError(t, w.BeginList())
		require.NoError(t, w.WriteInt(10))
		require.NoError(t, w.WriteString("skip"))
		require.NoError(t, w.WriteInt(30))
		require.NoError(t, w.EndList())
	})

	x, err := New(Options{})
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPathFromText("(2)", collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(doc)))
	assert.Equal(t, []int64{30}, got)
}

func TestMatchZeroLengthPath(t *testing.T) {
	doc := encode(t, func(w ion.Writer) {
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.WriteInt(2))
	})

	x, err := New(Options{})
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPath(0, collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(doc)))
	assert.Equal(t, []int64{1, 2}, got)
}

func TestMatchFiresInPathIDOrder(t *testing.T) {
	doc := encode(t, func(w ion.Writer) {
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("a"))
		require.NoError(t, w.WriteInt(7))
		require.NoError(t, w.EndStruct())
	})

	x, err := New(Options{})
	require.NoError(t, err)

	var order []int
	cb := func(id int) Callback {
		return func(ion.Reader, *Path, interface{}) (Control, error) {
			order = append(order, id)
			return Next(), nil
		}
	}

	_, err = x.NewPathFromText("(a)", cb(0), nil)
	require.NoError(t, err)
	_, err = x.NewPathFromText("(*)", cb(1), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(doc)))
	assert.Equal(t, []int{0, 1}, order)
}

func TestMatchTerminalAndPartialTie(t *testing.T) {
	// (foo) fires on the container that (foo bar *) descends into.
	x, err := New(Options{})
	require.NoError(t, err)

	var containers int
	_, err = x.NewPathFromText("(foo)", func(r ion.Reader, _ *Path, _ interface{}) (Control, error) {
		assert.Equal(t, ion.StructType, r.Type())
		containers++
		return Next(), nil
	}, nil)
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPathFromText("(foo bar *)", collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(document(t))))
	assert.Equal(t, 1, containers)
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestMatchStepOutCancelsSiblings(t *testing.T) {
	doc := encode(t, func(w ion.Writer) {
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("foo"))
		require.NoError(t, w.BeginStruct())
		for _, f := range []string{"a", "b", "c"} {
			require.NoError(t, w.FieldNameString(f))
			require.NoError(t, w.WriteInt(1))
		}
		require.NoError(t, w.EndStruct())
		require.NoError(t, w.EndStruct())
	})

	x, err := New(Options{})
	require.NoError(t, err)

	fired := 0
	_, err = x.NewPathFromText("(foo *)", func(r ion.Reader, _ *Path, _ interface{}) (Control, error) {
		fired++
		return StepOut(1), nil
	}, nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(doc)))
	assert.Equal(t, 1, fired)
}

func TestMatchStepOutPastScopeFails(t *testing.T) {
	x, err := New(Options{})
	require.NoError(t, err)

	_, err = x.NewPathFromText("(foo)", func(ion.Reader, *Path, interface{}) (Control, error) {
		return StepOut(2), nil
	}, nil)
	require.NoError(t, err)

	err = x.Match(ion.NewReaderBytes(document(t)))
	assert.IsType(t, &ion.UsageError{}, err)
}

func TestMatchCaseInsensitive(t *testing.T) {
	x, err := New(Options{MatchCaseInsensitive: true})
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPathFromText("(FOO BAR 0)", collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(document(t))))
	assert.Equal(t, []int64{1}, got)

	// And the same path misses when matching is exact.
	x2, err := New(Options{})
	require.NoError(t, err)
	got = nil
	_, err = x2.NewPathFromText("(FOO BAR 0)", collectInts(t, &got), nil)
	require.NoError(t, err)
	require.NoError(t, x2.Match(ion.NewReaderBytes(document(t))))
	assert.Empty(t, got)
}

func TestMatchRelativePaths(t *testing.T) {
	doc := document(t)

	r := ion.NewReaderBytes(doc)
	require.True(t, r.Next())
	require.NoError(t, r.StepIn())

	x, err := New(Options{MatchRelativePaths: true})
	require.NoError(t, err)

	// The scope values are the fields of the stepped-into struct; (bar)
	// matches one level inside them, i.e. foo's bar list.
	var got []ion.Type
	_, err = x.NewPathFromText("(bar)", func(r ion.Reader, _ *Path, _ interface{}) (Control, error) {
		got = append(got, r.Type())
		return Next(), nil
	}, nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(r))
	assert.Equal(t, []ion.Type{ion.ListType}, got)

	// Without the option a nested reader is rejected.
	r2 := ion.NewReaderBytes(doc)
	require.True(t, r2.Next())
	require.NoError(t, r2.StepIn())

	x2, err := New(Options{})
	require.NoError(t, err)
	_, err = x2.NewPathFromText("(bar)", func(ion.Reader, *Path, interface{}) (Control, error) {
		return Next(), nil
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ion.UsageError{}, x2.Match(r2))
}

func TestMatchSkipsDeadContainers(t *testing.T) {
	// Nothing under abc can match (foo bar), so its subtree is never
	// entered and the callback sees only foo/bar.
	doc := encode(t, func(w ion.Writer) {
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("abc"))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("bar"))
		require.NoError(t, w.WriteInt(99))
		require.NoError(t, w.EndStruct())
		require.NoError(t, w.FieldNameString("foo"))
		require.NoError(t, w.BeginStruct())
		require.NoError(t, w.FieldNameString("bar"))
		require.NoError(t, w.WriteInt(1))
		require.NoError(t, w.EndStruct())
		require.NoError(t, w.EndStruct())
	})

	x, err := New(Options{})
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPathFromText("(foo bar)", collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(doc)))
	assert.Equal(t, []int64{1}, got)
}

func TestMatchWithIncompletePathFails(t *testing.T) {
	x, err := New(Options{})
	require.NoError(t, err)

	p, err := x.NewPath(2, func(ion.Reader, *Path, interface{}) (Control, error) {
		return Next(), nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, p.AppendField("foo"))

	err = x.Match(ion.NewReaderBytes(document(t)))
	assert.IsType(t, &ion.UsageError{}, err)

	// Completing the path unblocks matching.
	require.NoError(t, p.AppendField("bar"))
	assert.NoError(t, x.Match(ion.NewReaderBytes(document(t))))
}

func TestPathOverflows(t *testing.T) {
	x, err := New(Options{MaxNumPaths: 1, MaxPathLength: 2})
	require.NoError(t, err)

	_, err = x.NewPath(3, func(ion.Reader, *Path, interface{}) (Control, error) {
		return Next(), nil
	}, nil)
	assert.IsType(t, &ion.UsageError{}, err)

	p, err := x.NewPath(1, func(ion.Reader, *Path, interface{}) (Control, error) {
		return Next(), nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, p.AppendField("a"))
	assert.IsType(t, &ion.UsageError{}, p.AppendField("b"))

	_, err = x.NewPath(1, func(ion.Reader, *Path, interface{}) (Control, error) {
		return Next(), nil
	}, nil)
	assert.IsType(t, &ion.UsageError{}, err)
}

func TestNewPathFromIon(t *testing.T) {
	pathDoc := encode(t, func(w ion.Writer) {
		require.NoError(t, w.BeginSexp())
		require.NoError(t, w.WriteSymbolFromString("foo"))
		require.NoError(t, w.WriteSymbolFromString("bar"))
		require.NoError(t, w.WriteInt(2))
		require.NoError(t, w.EndSexp())
	})

	x, err := New(Options{})
	require.NoError(t, err)

	var got []int64
	_, err = x.NewPathFromIon(ion.NewReaderBytes(pathDoc), collectInts(t, &got), nil)
	require.NoError(t, err)

	require.NoError(t, x.Match(ion.NewReaderBytes(document(t))))
	assert.Equal(t, []int64{3}, got)
}

func TestUserContextAndErrors(t *testing.T) {
	x, err := New(Options{})
	require.NoError(t, err)

	boom := &ion.UsageError{API: "test", Msg: "boom"}
	_, err = x.NewPathFromText("(abc)", func(r ion.Reader, p *Path, userCtx interface{}) (Control, error) {
		assert.Equal(t, "ctx", userCtx)
		return Next(), boom
	}, "ctx")
	require.NoError(t, err)

	assert.Equal(t, boom, x.Match(ion.NewReaderBytes(document(t))))
}
