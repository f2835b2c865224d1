// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package claimset

import (
	"bytes"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
	"github.com/bureau-foundation/sdcwt/lib/testutil"
)

const yamlTemplate = `
iss: https://issuer.example
sub: user-42
aud: https://verifier.example
iat: 1700000000
exp: 1700003600
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
  - 5
`

func mustValue(t *testing.T, v any) sdcwt.Value {
	t.Helper()
	value, err := sdcwt.NewValue(v)
	if err != nil {
		t.Fatalf("NewValue(%v): %v", v, err)
	}
	return value
}

func TestParse_YAML(t *testing.T) {
	template, err := Parse([]byte(yamlTemplate), YAML, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	payload := template.Payload

	if payload.Aud != "https://verifier.example" {
		t.Errorf("aud = %q", payload.Aud)
	}
	if payload.Iss == nil || *payload.Iss != "https://issuer.example" {
		t.Errorf("iss = %v", payload.Iss)
	}
	if payload.Sub == nil || *payload.Sub != "user-42" {
		t.Errorf("sub = %v", payload.Sub)
	}
	if !payload.Iat.Equal(sdcwt.NewUint(1700000000)) {
		t.Errorf("iat = %s", payload.Iat)
	}
	if payload.Exp == nil || !payload.Exp.Equal(sdcwt.NewUint(1700003600)) {
		t.Errorf("exp = %v", payload.Exp)
	}
	if !bytes.Equal(payload.Cnonce, []byte{0x0a, 0x0b}) {
		t.Errorf("cnonce = %x", payload.Cnonce)
	}
	if payload.Cnf == nil || payload.Cnf.Len() != 1 {
		t.Fatalf("cnf = %v", payload.Cnf)
	}

	wantKeys := []sdcwt.Key{sdcwt.TextKey("role"), sdcwt.UintKey(500), sdcwt.TextKey("nested")}
	if diff := cmp.Diff(wantKeys, payload.Custom.Keys()); diff != "" {
		t.Errorf("custom keys mismatch (-want +got):\n%s", diff)
	}
	role, _ := payload.Custom.Get(sdcwt.TextKey("role"))
	if !role.Equal(mustValue(t, "operator")) {
		t.Errorf("role = %s", role.Diagnostic())
	}
	nested, _ := payload.Custom.Get(sdcwt.TextKey("nested"))
	if got, want := nested.Diagnostic(), `{"a": [1, 2]}`; got != want {
		t.Errorf("nested = %s, want %s", got, want)
	}

	wantDisclosures := []Disclosure{
		{Index: indexPtr(sdcwt.TextIndex("email")), Value: mustValue(t, "alice@example.com")},
		{Index: indexPtr(sdcwt.IntIndex(sdcwt.NewUint(501))), Value: mustValue(t, 42)},
		{Value: mustValue(t, "red")},
		{Value: mustValue(t, 5)},
	}
	if diff := cmp.Diff(wantDisclosures, template.Disclosures); diff != "" {
		t.Errorf("disclosures mismatch (-want +got):\n%s", diff)
	}
}

func indexPtr(index sdcwt.IntOrText) *sdcwt.IntOrText {
	return &index
}

func TestParse_JSONC(t *testing.T) {
	source := `{
  // issued by the test suite
  "aud": "https://verifier.example",
  "iat": 1700000000,
  "claims": {
    "500": 7,     /* integer key */
    "-3": "neg",
    "role": "operator",
  },
  "disclose": {"email": "alice@example.com"},
}`
	template, err := Parse([]byte(source), JSONC, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantKeys := []sdcwt.Key{sdcwt.UintKey(500), sdcwt.IntKey(sdcwt.NewNint(2)), sdcwt.TextKey("role")}
	if diff := cmp.Diff(wantKeys, template.Payload.Custom.Keys()); diff != "" {
		t.Errorf("custom keys mismatch (-want +got):\n%s", diff)
	}
	if len(template.Disclosures) != 1 {
		t.Fatalf("got %d disclosures, want 1", len(template.Disclosures))
	}
}

func TestParse_SdTag(t *testing.T) {
	source := `
aud: https://verifier.example
iat: 1700000000
claims:
  role: operator
  !sd email: alice@example.com
  !sd 501: 42
  colors: [blue, !sd red, !sd 5]
disclose:
  phone: "555"
disclose_elements:
  - green
`
	template, err := Parse([]byte(source), YAML, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantKeys := []sdcwt.Key{sdcwt.TextKey("role"), sdcwt.TextKey("colors")}
	if diff := cmp.Diff(wantKeys, template.Payload.Custom.Keys()); diff != "" {
		t.Errorf("custom keys mismatch (-want +got):\n%s", diff)
	}
	colors, _ := template.Payload.Custom.Get(sdcwt.TextKey("colors"))
	if got, want := colors.Diagnostic(), `["blue"]`; got != want {
		t.Errorf("colors = %s, want %s", got, want)
	}

	wantDisclosures := []Disclosure{
		{Index: indexPtr(sdcwt.TextIndex("email")), Value: mustValue(t, "alice@example.com")},
		{Index: indexPtr(sdcwt.IntIndex(sdcwt.NewUint(501))), Value: mustValue(t, 42)},
		{Index: indexPtr(sdcwt.TextIndex("phone")), Value: mustValue(t, "555")},
		{Value: mustValue(t, "red")},
		{Value: mustValue(t, 5)},
		{Value: mustValue(t, "green")},
	}
	if diff := cmp.Diff(wantDisclosures, template.Disclosures); diff != "" {
		t.Errorf("disclosures mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_YAMLQuotedNumericKeyIsText(t *testing.T) {
	template, err := Parse([]byte("aud: a\niat: 1\nclaims:\n  \"500\": 1\n"), YAML, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := template.Payload.Custom.Get(sdcwt.TextKey("500")); !ok {
		t.Error("quoted YAML key should stay a text key")
	}
}

func TestParse_Defaults(t *testing.T) {
	now := time.Unix(1700000000, 0)
	template, err := Parse([]byte("sub: s\n"), YAML, Options{
		Now:      now,
		Audience: "https://default.example",
		Lifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	payload := template.Payload

	if payload.Aud != "https://default.example" {
		t.Errorf("aud = %q, want the default audience", payload.Aud)
	}
	if !payload.Iat.Equal(sdcwt.NewUint(1700000000)) {
		t.Errorf("iat = %s, want Now", payload.Iat)
	}
	if payload.Exp == nil || !payload.Exp.Equal(sdcwt.NewUint(1700003600)) {
		t.Errorf("exp = %v, want iat + 1h", payload.Exp)
	}
	if payload.Custom == nil || !payload.Custom.IsEmpty() {
		t.Errorf("custom should be an empty map")
	}
}

func TestParse_ExplicitExpWinsOverLifetime(t *testing.T) {
	template, err := Parse([]byte("aud: a\niat: 100\nexp: 150\n"), YAML, Options{Lifetime: time.Hour})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !template.Payload.Exp.Equal(sdcwt.NewUint(150)) {
		t.Errorf("exp = %s, want 150", template.Payload.Exp)
	}
}

func TestParse_FullRangeIntegers(t *testing.T) {
	template, err := Parse([]byte("aud: a\niat: 18446744073709551615\nnbf: -18446744073709551616\n"), YAML, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := template.Payload.Iat.String(); got != "18446744073709551615" {
		t.Errorf("iat = %s", got)
	}
	if got := template.Payload.Nbf.String(); got != "-18446744073709551616" {
		t.Errorf("nbf = %s", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		format  Format
		wantErr string
	}{
		{"empty", "", YAML, "empty template"},
		{"missing aud", "iat: 1\n", YAML, "aud is required"},
		{"unknown field", "aud: a\naudience: b\n", YAML, "audience"},
		{"bad iat", "aud: a\niat: yesterday\n", YAML, "iat"},
		{"bad cnonce", "aud: a\ncnonce: xyz\n", YAML, "cnonce"},
		{"claims not a map", "aud: a\nclaims: [1]\n", YAML, "claims must be a map"},
		{"float key", "aud: a\nclaims:\n  1.5: x\n", YAML, "must be an integer or text"},
		{"duplicate claim", "aud: a\nclaims:\n  1: x\n  1: y\n", YAML, "duplicate"},
		{"duplicate disclosure", "aud: a\ndisclose:\n  x: 1\n  x: 2\n", YAML, "duplicate claim"},
		{"visible and disclosed", "aud: a\nclaims:\n  x: 1\ndisclose:\n  x: 2\n", YAML, "both visible and disclosed"},
		{"sd key in disclose", "aud: a\ndisclose:\n  !sd x: 1\n", YAML, "marks neither"},
		{"sd key in nested map", "aud: a\nclaims:\n  n: {!sd x: 1}\n", YAML, "marks neither"},
		{"sd item in disclose_elements", "aud: a\ndisclose_elements:\n  - !sd x\n", YAML, "disclose_elements[0]"},
		{"sd claim also visible", "aud: a\nclaims:\n  x: 1\n  !sd x: 2\n", YAML, "both visible and disclosed"},
		{"sd claim also in disclose", "aud: a\nclaims:\n  !sd x: 1\ndisclose:\n  x: 2\n", YAML, "duplicate claim"},
		{"malformed JSON", `{"aud": `, JSONC, "claimset"},
		{"unknown format", "aud: a", Format("toml"), "unknown format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.source), tt.format, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_DuplicateCustomKeyIsDecodeKind(t *testing.T) {
	_, err := Parse([]byte("aud: a\nclaims:\n  k: 1\n  k: 2\n"), YAML, Options{})
	testutil.RequireErrorIs(t, err, sdcwt.ErrDuplicateKey)
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"token.yaml":  YAML,
		"token.yml":   YAML,
		"token.json":  JSONC,
		"token.JSONC": JSONC,
		"token":       YAML,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.jsonc")
	if err := os.WriteFile(path, []byte(`{"aud": "a", /* c */ "iat": 5}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	template, err := LoadFile(path, Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !template.Payload.Iat.Equal(sdcwt.NewUint(5)) {
		t.Errorf("iat = %s", template.Payload.Iat)
	}

	broken := testutil.WriteFile(t, "broken.yaml", []byte("iat: 1\n"))
	_, err = LoadFile(broken, Options{})
	if err == nil || !strings.Contains(err.Error(), broken) {
		t.Errorf("LoadFile error should name the file, got %v", err)
	}
}

func TestBuild(t *testing.T) {
	template, err := Parse([]byte(yamlTemplate), YAML, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	key := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	issuer, err := sdcwt.NewIssuer(key, sdcwt.IssuerOptions{
		SdAlg:  sdcwt.IntFromInt64(int64(binhash.SHA384)),
		Random: bytes.NewReader(bytes.Repeat([]byte{0x5a}, 4*sdcwt.SaltLength)),
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	token, err := template.Build(issuer)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	disclosures := token.Unprotected.SdClaims
	if len(disclosures) != 4 {
		t.Fatalf("got %d disclosures, want 4", len(disclosures))
	}
	wantKinds := []sdcwt.SaltedKind{sdcwt.SaltedClaimKind, sdcwt.SaltedClaimKind, sdcwt.SaltedElementKind, sdcwt.SaltedElementKind}
	for index, disclosure := range disclosures {
		if disclosure.Kind() != wantKinds[index] {
			t.Errorf("disclosure %d kind = %s, want %s", index, disclosure.Kind(), wantKinds[index])
		}
		digest, err := disclosure.Digest(sdcwt.IntFromInt64(int64(binhash.SHA384)))
		if err != nil {
			t.Fatalf("Digest: %v", err)
		}
		if !token.Payload.IsRedacted(digest) {
			t.Errorf("digest of disclosure %d missing from redacted_keys", index)
		}
	}
	if len(template.Payload.RedactedKeys) != 0 {
		t.Error("Build must not modify the template payload")
	}

	decoded, err := sdcwt.Unmarshal(token.Marshal())
	if err != nil {
		t.Fatalf("Unmarshal of built token: %v", err)
	}
	if !decoded.Equal(token) {
		t.Error("built token does not survive a round trip")
	}
}
