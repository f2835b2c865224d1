// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

func digestCommand() *cli.Command {
	var (
		hexInput bool
		alg      string
		check    bool
	)

	return &cli.Command{
		Name:    "digest",
		Summary: "List the disclosures of a token with their digests",
		Description: `Read a token and list each disclosure in its unprotected header: its
position, whether it discloses a claim or an array element, the claim
key, its digest, and whether the payload's redacted_keys contains that
digest.

The digest algorithm is the payload's sd_alg, or SHA-256 when the
payload has none. --alg overrides it.

With --check, exit 1 unless every disclosure's digest is present in
redacted_keys.`,
		Usage: "sdcwt digest [-x] [--alg name] [--check] [file]",
		Examples: []cli.Example{
			{
				Description: "Check that every disclosure is bound to the payload",
				Command:     "sdcwt digest --check token.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("digest", pflag.ContinueOnError)
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			flagSet.StringVar(&alg, "alg", "", "digest algorithm (SHA-256, SHA-384, SHA-512, SHAKE128, SHAKE256)")
			flagSet.BoolVar(&check, "check", false, "exit 1 if any digest is missing from redacted_keys")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			data, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			return digestToken(data, stdout, alg, check, logger)
		},
	}
}

// digestToken writes a table of the token's disclosures and digests.
func digestToken(data []byte, w io.Writer, algName string, check bool, logger *slog.Logger) error {
	token, err := sdcwt.Unmarshal(data)
	if err != nil {
		return cli.Validation("%w", err)
	}

	alg := sdcwt.IntFromInt64(int64(binhash.SHA256))
	if token.Payload.SdAlg != nil {
		alg = *token.Payload.SdAlg
	}
	if algName != "" {
		parsed, err := binhash.ParseAlgorithm(algName)
		if err != nil {
			return cli.Validation("--alg: %w", err)
		}
		alg = sdcwt.IntFromInt64(int64(parsed))
	}

	disclosures := token.Unprotected.SdClaims
	if len(disclosures) == 0 {
		fmt.Fprintln(w, "no disclosures")
		return nil
	}

	missing := 0
	table := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(table, "#\tKIND\tINDEX\tDIGEST\tREDACTED")
	for position, disclosure := range disclosures {
		digest, err := disclosure.Digest(alg)
		if err != nil {
			return cli.Validation("disclosure %d: %w", position, err)
		}
		kind, index := "element", "-"
		if claim, ok := disclosure.Claim(); ok {
			kind, index = "claim", claim.Index.String()
		}
		redacted := "yes"
		if !token.Payload.IsRedacted(digest) {
			redacted = "no"
			missing++
		}
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\n",
			position, kind, index, hex.EncodeToString(digest), redacted)
	}
	if err := table.Flush(); err != nil {
		return err
	}

	logger.Debug("computed disclosure digests",
		"fingerprint", binhash.FingerprintOf(data).Short(),
		"sd_alg", alg.String(),
		"disclosures", len(disclosures),
		"unbound", missing,
	)

	if check && missing > 0 {
		fmt.Fprintf(w, "%d of %d disclosures are not in redacted_keys\n", missing, len(disclosures))
		return cli.Rejected()
	}
	return nil
}
