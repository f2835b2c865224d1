// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/config"
)

// stdin is the input of commands given no file argument. Tests replace
// it.
var stdin io.Reader = os.Stdin

// readInput reads the single optional file argument, or stdin when
// args is empty or "-". With hexMode the input is hex text and
// whitespace is ignored.
func readInput(args []string, hexMode bool) ([]byte, error) {
	if len(args) > 1 {
		return nil, cli.Validation("expected at most one input file, got %d arguments", len(args))
	}

	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
		if os.IsNotExist(err) {
			return nil, cli.NotFound("input file %s does not exist", args[0])
		}
		if err != nil {
			return nil, cli.Internal("read %s: %w", args[0], err)
		}
	} else {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, cli.Internal("read stdin: %w", err)
		}
	}

	if hexMode {
		return decodeHexInput(data)
	}
	if len(data) == 0 {
		return nil, cli.Validation("empty input: expected a CBOR token")
	}
	return data, nil
}

// decodeHexInput strips whitespace from hex-encoded input and decodes
// it to binary bytes. Whitespace between hex digit pairs is allowed
// (e.g., "d2 84 43 a1" or "d28443a1").
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	if len(cleaned) == 0 {
		return nil, cli.Validation("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, cli.Validation("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// writeToken writes an encoded token as raw CBOR or as one line of hex.
func writeToken(w io.Writer, data []byte, format string) error {
	switch format {
	case config.FormatBinary:
		_, err := w.Write(data)
		return err
	case config.FormatHex:
		_, err := fmt.Fprintln(w, hex.EncodeToString(data))
		return err
	default:
		return cli.Validation("unknown output format %q (want %s or %s)", format, config.FormatBinary, config.FormatHex)
	}
}
