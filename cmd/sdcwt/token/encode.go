// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/config"
)

func encodeCommand(cfg *config.Config) *cli.Command {
	var format string

	return &cli.Command{
		Name:    "encode",
		Summary: "Encode a token from its JSON view",
		Description: `Read the JSON view of a token (as written by "sdcwt decode") and
write the encoded token to stdout. Comments are allowed in the input.

The token is written in shortest form: every integer and length in its
smallest encoding and every container with a definite length. Extension
map entries keep the order given in the view. Integer keys of extension
maps are written as decimal strings.`,
		Usage: "sdcwt encode [--format binary|hex] [file]",
		Examples: []cli.Example{
			{
				Description: "Change a claim and re-encode",
				Command:     "sdcwt decode token.cbor | jq '.payload.aud = \"client-2\"' | sdcwt encode > new.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.StringVarP(&format, "format", "f", cfg.Output.Format, "output format: binary or hex")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			data, err := readInput(args, false)
			if err != nil {
				return err
			}
			return encodeToken(data, stdout, format, logger)
		},
	}
}

// encodeToken parses a JSON view and writes the encoded token to w.
func encodeToken(view []byte, w io.Writer, format string, logger *slog.Logger) error {
	token, err := parseView(view)
	if err != nil {
		return cli.Validation("parse token view: %w", err)
	}
	data := token.Marshal()
	logger.Debug("encoded token",
		"fingerprint", binhash.FingerprintOf(data).Short(),
		"bytes", len(data),
	)
	return writeToken(w, data, format)
}
