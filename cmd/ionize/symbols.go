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
	"context"
	"errors"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ionworks/ion-go/ion"
)

func symbolsCommand() *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Usage:     "collect the symbols of the input stream(s) into a shared symbol table",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "name of the generated shared symbol table",
				Value: "collected",
			},
			&cli.IntFlag{
				Name:  "table-version",
				Usage: "version of the generated shared symbol table",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file ('-' for stdout)",
				Value:   "-",
			},
		},
		Action: runSymbols,
	}
}

func runSymbols(ctx context.Context, cmd *cli.Command) (err error) {
	if cmd.NArg() == 0 {
		return errors.New("no input files")
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	c := symbolCollector{seen: map[string]bool{}}
	for _, name := range cmd.Args().Slice() {
		if err := c.collectFile(name); err != nil {
			return err
		}
		log.Debug("collected input", zap.String("file", name), zap.Int("symbols", len(c.symbols)))
	}

	out, err := openOutput(cmd.String("output"), false)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	sst := ion.NewSharedSymbolTable(cmd.String("name"), int(cmd.Int("table-version")), c.symbols)
	w := ion.NewTextWriterPretty(out)
	if err := sst.WriteTo(w); err != nil {
		return err
	}
	return w.Finish()
}

// A symbolCollector accumulates, in first-use order, every symbol an input
// stream uses as a field name, annotation, or symbol value.
type symbolCollector struct {
	symbols []string
	seen    map[string]bool
}

func (c *symbolCollector) add(tok *ion.SymbolToken) {
	if tok == nil || tok.Text == nil || c.seen[*tok.Text] {
		return
	}
	c.seen[*tok.Text] = true
	c.symbols = append(c.symbols, *tok.Text)
}

func (c *symbolCollector) collectFile(name string) (err error) {
	in, err := openInput(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, in.Close())
	}()

	r := ion.NewReader(in)
	if err := c.collect(r); err != nil {
		return err
	}
	return r.Err()
}

func (c *symbolCollector) collect(r ion.Reader) error {
	for r.Next() {
		name, err := r.FieldName()
		if err != nil {
			return err
		}
		c.add(name)

		as, err := r.Annotations()
		if err != nil {
			return err
		}
		for i := range as {
			c.add(&as[i])
		}

		switch {
		case r.Type() == ion.SymbolType && !r.IsNull():
			tok, err := r.SymbolValue()
			if err != nil {
				return err
			}
			c.add(tok)

		case r.Type().IsContainer() && !r.IsNull():
			if err := r.StepIn(); err != nil {
				return err
			}
			if err := c.collect(r); err != nil {
				return err
			}
			if err := r.StepOut(); err != nil {
				return err
			}
		}
	}
	return r.Err()
}
