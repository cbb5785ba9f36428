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

package main

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
)

// openInput opens a named input, or stdin for "-", decompressing
// transparently when the stream carries the gzip magic.
func openInput(name string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if name == "-" {
		raw = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		raw = f
	}

	br := bufio.NewReader(raw)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1F && magic[1] == 0x8B {
		zr, err := gzip.NewReader(br)
		if err != nil {
			raw.Close()
			return nil, err
		}
		return &layeredCloser{Reader: zr, closers: []io.Closer{zr, raw}}, nil
	}

	return &layeredCloser{Reader: br, closers: []io.Closer{raw}}, nil
}

// openOutput opens a named output, or stdout for "-", compressing when
// asked.
func openOutput(name string, compress bool) (io.WriteCloser, error) {
	var raw io.WriteCloser
	if name == "" || name == "-" {
		raw = nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		raw = f
	}

	if !compress {
		return raw, nil
	}

	zw := gzip.NewWriter(raw)
	return &layeredWriteCloser{Writer: zw, closers: []io.Closer{zw, raw}}, nil
}

// layeredCloser closes a stack of readers in order.
type layeredCloser struct {
	io.Reader
	closers []io.Closer
}

func (l *layeredCloser) Close() (err error) {
	for _, c := range l.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// layeredWriteCloser closes a stack of writers in order.
type layeredWriteCloser struct {
	io.Writer
	closers []io.Closer
}

func (l *layeredWriteCloser) Close() (err error) {
	for _, c := range l.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
