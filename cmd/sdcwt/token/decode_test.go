// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
	"github.com/bureau-foundation/sdcwt/lib/testutil"
)

func TestDecodeToken(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		compact bool
	}{
		{name: "canonical", fixture: canonicalTokenHex},
		{name: "wide wire form", fixture: wideTokenHex},
		{name: "compact", fixture: canonicalTokenHex, compact: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			err := decodeToken(testutil.MustHex(t, test.fixture), &output, test.compact, cli.DiscardLogger())
			if err != nil {
				t.Fatalf("decodeToken: %v", err)
			}

			lines := strings.Count(strings.TrimSpace(output.String()), "\n")
			if test.compact && lines != 0 {
				t.Errorf("compact output spans %d lines", lines+1)
			}
			if !test.compact && lines == 0 {
				t.Error("indented output should span several lines")
			}

			var view struct {
				Payload struct {
					Aud string `json:"aud"`
					Iat int64  `json:"iat"`
				} `json:"payload"`
			}
			if err := json.Unmarshal(output.Bytes(), &view); err != nil {
				t.Fatalf("parse output: %v (output was %q)", err, output.String())
			}
			if view.Payload.Aud != "client-1" || view.Payload.Iat != 1700000000 {
				t.Errorf("payload = %+v", view.Payload)
			}
		})
	}
}

func TestDecodeToken_Rejects(t *testing.T) {
	// The envelope declares four elements but holds three.
	truncated := testutil.MustHex(t, "d2 84 4e "+protectedHex+" a1 "+customHex+" a0 58 19 "+payloadHex)

	err := decodeToken(truncated, &bytes.Buffer{}, false, cli.DiscardLogger())
	requireCategory(t, err, cli.CategoryValidation)
	decodeErr := testutil.RequireErrorAs[*sdcwt.DecodeError](t, err)
	if !strings.Contains(decodeErr.Error(), "SdCwt") {
		t.Errorf("decode error should name the envelope, got %q", decodeErr.Error())
	}
}
