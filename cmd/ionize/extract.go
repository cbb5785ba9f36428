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
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ionworks/ion-go/extractor"
	"github.com/ionworks/ion-go/ion"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "print the values matching the given path expressions",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "path expression, e.g. '(foo bar 2)'; repeatable",
			},
			&cli.BoolFlag{
				Name:  "ignore-case",
				Usage: "match field names case-insensitively",
			},
		},
		Action: runExtract,
	}
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return errors.New("no input files")
	}
	paths := cmd.StringSlice("path")
	if len(paths) == 0 {
		return errors.New("no path expressions given")
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	w := ion.NewTextWriter(os.Stdout)
	x, err := extractor.New(extractor.Options{
		MatchCaseInsensitive: cmd.Bool("ignore-case"),
	})
	if err != nil {
		return err
	}

	print := func(r ion.Reader, p *extractor.Path, _ interface{}) (extractor.Control, error) {
		if err := ion.CopyValue(w, r); err != nil {
			return extractor.Next(), err
		}
		return extractor.Next(), nil
	}

	for _, expr := range paths {
		if _, err := x.NewPathFromText(expr, print, nil); err != nil {
			return err
		}
		log.Debug("registered path", zap.String("expr", expr))
	}

	for _, name := range cmd.Args().Slice() {
		if err := matchFile(x, name); err != nil {
			return err
		}
	}

	return w.Finish()
}

func matchFile(x *extractor.Extractor, name string) (err error) {
	in, err := openInput(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, in.Close())
	}()

	return x.Match(ion.NewReader(in))
}
