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

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "re-encode the input stream(s) in the chosen format",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file ('-' for stdout)",
				Value:   "-",
			},
			&cli.BoolFlag{
				Name:  "binary",
				Usage: "write binary Ion",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "pretty-print text output",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "downconvert text output to JSON",
			},
			&cli.BoolFlag{
				Name:  "gzip",
				Usage: "gzip the output stream",
			},
		},
		Action: runProcess,
	}
}

func runProcess(ctx context.Context, cmd *cli.Command) (err error) {
	if cmd.NArg() == 0 {
		return errors.New("no input files")
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	out, err := openOutput(cmd.String("output"), cmd.Bool("gzip"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	w := ion.NewWriter(out, ion.WriterOpts{
		OutputAsBinary:  cmd.Bool("binary"),
		PrettyPrint:     cmd.Bool("pretty"),
		JSONDownconvert: cmd.Bool("json"),
	})

	for _, name := range cmd.Args().Slice() {
		log.Debug("processing input", zap.String("file", name))
		if err := pumpFile(w, name); err != nil {
			return err
		}
	}

	return w.Finish()
}

// pumpFile copies every value of one input into the writer.
func pumpFile(w ion.Writer, name string) (err error) {
	in, err := openInput(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, in.Close())
	}()

	return w.WriteAllValues(ion.NewReader(in))
}
