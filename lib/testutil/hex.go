// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// MustHex decodes a hex fixture, ignoring whitespace between digits.
//
//	testutil.MustHex(t, "a1 01 26")
func MustHex(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, text string) []byte {
	t.Helper()
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		t.Fatalf("invalid hex fixture %q: %v", text, err)
	}
	return data
}

// Hex formats data as lowercase hex with no separators, for failure
// messages.
func Hex(data []byte) string {
	return hex.EncodeToString(data)
}
