// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

func decodeCommand() *cli.Command {
	var hexInput, compact bool

	return &cli.Command{
		Name:    "decode",
		Summary: "Decode a token to its JSON view",
		Description: `Read an SD-CWT token and write its JSON view to stdout.

Decoding is strict: duplicate or unknown keys, missing mandatory
claims, length mismatches, and trailing bytes are all rejected, and
the error names the path to the offending field.

The view shows the protected header, the unprotected header with its
disclosures, the payload, and the signature. Byte strings of the
token schema are hex. See "sdcwt encode" for the reverse direction.`,
		Usage: "sdcwt decode [-x] [-c] [file]",
		Examples: []cli.Example{
			{
				Description: "Decode a token file",
				Command:     "sdcwt decode token.cbor",
			},
			{
				Description: "Decode a hex token and pick out the audience",
				Command:     "sdcwt decode --hex token.hex | jq -r .payload.aud",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			flagSet.BoolVarP(&compact, "compact", "c", false, "compact output (no indentation)")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			data, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			return decodeToken(data, stdout, compact, logger)
		},
	}
}

// decodeToken decodes data strictly and writes the JSON view to w.
func decodeToken(data []byte, w io.Writer, compact bool, logger *slog.Logger) error {
	token, err := sdcwt.Unmarshal(data)
	if err != nil {
		return cli.Validation("%w", err)
	}

	logger.Debug("decoded token",
		"fingerprint", binhash.FingerprintOf(data).Short(),
		"bytes", len(data),
		"disclosures", len(token.Unprotected.SdClaims),
		"identical_reencode", bytes.Equal(token.Marshal(), data),
	)

	if err := writeView(w, token, compact); err != nil {
		return cli.Internal("write JSON view: %w", err)
	}
	return nil
}
