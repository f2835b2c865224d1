// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/config"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

func validateCommand(cfg *config.Config) *cli.Command {
	var hexInput, canonical bool

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"verify"},
		Summary: "Check that a token decodes and re-encodes byte for byte",
		Description: `Read a token, decode it strictly, re-encode the result, and compare
the bytes. Exits 0 with "valid" when the token decodes and re-encodes
to exactly the input; exits 1 with the reason otherwise.

With --canonical, additionally require shortest form: no integer or
length wider than necessary and no indefinite-length items. The
default comes from output.canonical_only in the configuration.`,
		Usage: "sdcwt validate [-x] [--canonical] [file]",
		Examples: []cli.Example{
			{
				Description: "Validate a token received as hex",
				Command:     "sdcwt validate --hex token.hex",
			},
			{
				Description: "Require shortest-form encoding",
				Command:     "sdcwt validate --canonical token.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			flagSet.BoolVar(&canonical, "canonical", cfg.Output.CanonicalOnly, "also require shortest-form encoding")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			data, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			return validateToken(data, stdout, canonical, logger)
		},
	}
}

// validateToken writes "valid" to w, or the reason the token is
// rejected followed by an ExitError with code 1.
func validateToken(data []byte, w io.Writer, canonical bool, logger *slog.Logger) error {
	logger = logger.With("fingerprint", binhash.FingerprintOf(data).Short())

	token, err := sdcwt.Unmarshal(data)
	if err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return cli.Rejected()
	}

	if reencoded := token.Marshal(); !bytes.Equal(reencoded, data) {
		fmt.Fprintf(w, "invalid: re-encoding differs: %s\n", describeMismatch(data, reencoded))
		return cli.Rejected()
	}

	if canonical {
		isCanonical, err := sdcwt.IsCanonical(data)
		if err != nil {
			return cli.Internal("canonical check: %w", err)
		}
		if !isCanonical {
			shortest := token.Canonical().Marshal()
			fmt.Fprintf(w, "not canonical: %s\n", describeMismatch(data, shortest))
			return cli.Rejected()
		}
	}

	logger.Debug("token valid", "canonical_checked", canonical)
	fmt.Fprintln(w, "valid")
	return nil
}

// describeMismatch locates the first byte where two encodings differ.
func describeMismatch(original, other []byte) string {
	offset := 0
	limit := min(len(original), len(other))
	for offset < limit && original[offset] == other[offset] {
		offset++
	}
	return fmt.Sprintf("first difference at byte %d (input %d bytes, re-encoded %d bytes)",
		offset, len(original), len(other))
}
