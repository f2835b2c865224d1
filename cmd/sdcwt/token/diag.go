// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/codec"
)

func diagCommand() *cli.Command {
	var hexInput, embedded bool

	return &cli.Command{
		Name:    "diag",
		Aliases: []string{"edn"},
		Summary: "Show a token in CBOR diagnostic notation",
		Description: `Read CBOR and write RFC 8949 Extended Diagnostic Notation (EDN) to
stdout, one line per data item.

Unlike the JSON view, diagnostic notation shows every CBOR type as
it is: integer map keys, byte strings, tags, and indefinite-length
items. The input does not have to be a valid token.

With -e, byte strings holding CBOR are expanded as << item >>, which
shows the protected header, the payload, and each disclosure inline.`,
		Usage: "sdcwt diag [-x] [-e] [file]",
		Examples: []cli.Example{
			{
				Description: "Inspect a token with its embedded structures expanded",
				Command:     "sdcwt diag -e token.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("diag", pflag.ContinueOnError)
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			flagSet.BoolVarP(&embedded, "embedded", "e", false, "expand byte strings that hold CBOR")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			data, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			return diagCBOR(data, stdout, embedded)
		},
	}
}

// diagCBOR writes diagnostic notation for each data item in data.
func diagCBOR(data []byte, w io.Writer, embedded bool) error {
	diagnose := codec.DiagnoseFirst
	if embedded {
		diagnose = codec.DiagnoseFirstEmbedded
	}

	remaining := data
	for len(remaining) > 0 {
		notation, rest, err := diagnose(remaining)
		if err != nil {
			offset := len(data) - len(remaining)
			return cli.Validation("diagnose CBOR at byte %d: %w", offset, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		remaining = rest
	}
	return nil
}
