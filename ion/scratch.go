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

// Binary container lengths are unknown until the container closes, and the
// length prefix itself is variable-width, so headers cannot be reserved in
// place. Values are instead written header-free into a scratch stream; each
// open container (or annotation wrapper) records a patch naming the scratch
// offset where its header belongs and the payload length accumulated so
// far. Flushing interleaves the patch headers with the scratch bytes in
// offset order.

// A patch is a back-reference to an unwritten container header.
type patch struct {
	// offset is the scratch position the header precedes.
	offset uint64
	// code is the type nibble, pre-shifted (0xB0, 0xC0, 0xD0, 0xE0).
	code byte
	// length is the payload length in bytes, headers of closed children
	// included.
	length uint64
}

// A scratchStream is the in-memory byte log plus its patches. Patches are
// naturally ordered by offset because containers open in stream order; the
// open stack holds indices of patches not yet closed, innermost last.
type scratchStream struct {
	buf     []byte
	patches []patch
	open    []int
}

func newScratchStream(capacity int) *scratchStream {
	if capacity <= 0 {
		capacity = 512
	}
	return &scratchStream{buf: make([]byte, 0, capacity)}
}

// append adds fully-encoded bytes and accounts them to the innermost open
// patch, if any.
func (s *scratchStream) append(bs []byte) {
	s.buf = append(s.buf, bs...)
	s.grow(uint64(len(bs)))
}

// grow adds n payload bytes to the innermost open patch.
func (s *scratchStream) grow(n uint64) {
	if len(s.open) > 0 {
		s.patches[s.open[len(s.open)-1]].length += n
	}
}

// beginPatch opens a container or annotation wrapper at the current scratch
// position.
func (s *scratchStream) beginPatch(code byte) {
	s.patches = append(s.patches, patch{
		offset: uint64(len(s.buf)),
		code:   code,
	})
	s.open = append(s.open, len(s.patches)-1)
}

// endPatch closes the innermost patch, propagating its encoded size,
// header included, into its parent.
func (s *scratchStream) endPatch() {
	i := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]

	p := &s.patches[i]
	if len(s.open) > 0 {
		s.patches[s.open[len(s.open)-1]].length += tagSize(p.length) + p.length
	}
}

// empty reports whether the stream holds no bytes and no patches.
func (s *scratchStream) empty() bool {
	return len(s.buf) == 0 && len(s.patches) == 0
}

// flushTo writes the scratch contents to out, materializing each patch's
// header at its offset, then resets the stream. All patches must be closed.
func (s *scratchStream) flushTo(out io.Writer) error {
	if len(s.open) > 0 {
		panic("flush with open patches")
	}

	var tag [11]byte
	cursor := uint64(0)

	for i := range s.patches {
		p := &s.patches[i]
		if p.offset > cursor {
			if _, err := out.Write(s.buf[cursor:p.offset]); err != nil {
				return &IOError{err}
			}
			cursor = p.offset
		}
		if _, err := out.Write(appendTag(tag[:0], p.code, p.length)); err != nil {
			return &IOError{err}
		}
	}

	if cursor < uint64(len(s.buf)) {
		if _, err := out.Write(s.buf[cursor:]); err != nil {
			return &IOError{err}
		}
	}

	s.buf = s.buf[:0]
	s.patches = s.patches[:0]
	return nil
}
