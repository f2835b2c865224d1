// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"testing"
	"time"

	"github.com/bureau-foundation/sdcwt/lib/claimset"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

const (
	customHex    = "66 63 75 73 74 6f 6d"
	protectedHex = "a3 01 27 10 61 74 " + customHex + " a0"
	// {3: "client-1", 6: 1700000000, "custom": {}}
	payloadHex = "a3 03 68 63 6c 69 65 6e 74 2d 31 06 1a 65 53 f1 00 " + customHex + " a0"
	// The same claims with iat written at eight bytes.
	widePayloadHex = "a3 03 68 63 6c 69 65 6e 74 2d 31 06 1b 00 00 00 00 65 53 f1 00 " + customHex + " a0"

	// canonicalTokenHex is a minimal token in shortest form.
	canonicalTokenHex = "d2 84 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex + " 40"
	// wideTokenHex carries the same values with a two-byte tag head,
	// an indefinite envelope, a chunked payload, and a wide iat.
	wideTokenHex = "d8 12 9f 58 0e " + protectedHex + " a1 " + customHex + " a0 5f 58 1d " + widePayloadHex + " ff 40 ff"
)

const testTemplate = `
iss: https://issuer.example
aud: https://verifier.example
iat: 1700000000
cnonce: 0a0b
cnf:
  1: 1
claims:
  role: operator
  500: 7
  nested: {a: [1, 2]}
disclose:
  email: alice@example.com
  501: 42
disclose_elements:
  - red
`

// issuedToken builds a token with visible claims, two claim
// disclosures, and one element disclosure, with seeded salts.
func issuedToken(t *testing.T) *sdcwt.SdCwt {
	t.Helper()
	template, err := claimset.Parse([]byte(testTemplate), claimset.YAML, claimset.Options{Now: time.Unix(1700000000, 0)})
	if err != nil {
		t.Fatalf("Parse template: %v", err)
	}
	_, private, err := sdcwt.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	random, err := saltReader("seeded", "test-vector")
	if err != nil {
		t.Fatalf("saltReader: %v", err)
	}
	issuer, err := sdcwt.NewIssuer(private, sdcwt.IssuerOptions{Random: random})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := template.Build(issuer)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return token
}
