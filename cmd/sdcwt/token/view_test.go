// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
	"github.com/bureau-foundation/sdcwt/lib/testutil"
)

func renderJSON(t *testing.T, token *sdcwt.SdCwt) []byte {
	t.Helper()
	var output bytes.Buffer
	if err := writeView(&output, token, false); err != nil {
		t.Fatalf("writeView: %v", err)
	}
	return output.Bytes()
}

func TestWriteView_Fixture(t *testing.T) {
	token, err := sdcwt.Unmarshal(testutil.MustHex(t, canonicalTokenHex))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(renderJSON(t, token)))
	decoder.UseNumber()
	var got map[string]any
	if err := decoder.Decode(&got); err != nil {
		t.Fatalf("parse view: %v", err)
	}

	want := map[string]any{
		"protected": map[string]any{
			"alg":    json.Number("-8"),
			"typ":    "t",
			"custom": map[string]any{},
		},
		"unprotected": map[string]any{
			"custom": map[string]any{},
		},
		"payload": map[string]any{
			"aud":    "client-1",
			"iat":    json.Number("1700000000"),
			"custom": map[string]any{},
		},
		"signature": "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteView_KeepsMemberOrder(t *testing.T) {
	view := string(renderJSON(t, issuedToken(t)))

	// The template lists role, 500, nested in that order.
	role := strings.Index(view, `"role"`)
	integer := strings.Index(view, `"500"`)
	nested := strings.Index(view, `"nested"`)
	if role < 0 || integer < 0 || nested < 0 {
		t.Fatalf("custom claims missing from view:\n%s", view)
	}
	if !(role < integer && integer < nested) {
		t.Errorf("custom claims out of order:\n%s", view)
	}
	if !strings.Contains(view, `"index": 501`) {
		t.Errorf("integer disclosure index should be a JSON number:\n%s", view)
	}
	if !strings.Contains(view, `"index": "email"`) {
		t.Errorf("text disclosure index should be a JSON string:\n%s", view)
	}
}

func TestParseView_RoundTripsIssuedToken(t *testing.T) {
	token := issuedToken(t)

	parsed, err := parseView(renderJSON(t, token))
	if err != nil {
		t.Fatalf("parseView: %v", err)
	}
	if got, want := parsed.Marshal(), token.Marshal(); !bytes.Equal(got, want) {
		t.Errorf("round trip changed the token:\n got %s\nwant %s", testutil.Hex(got), testutil.Hex(want))
	}

	integerKey, _ := sdcwt.ParseInt("500")
	if _, ok := parsed.Payload.Custom.Get(sdcwt.IntKey(integerKey)); !ok {
		t.Error(`custom key "500" should read back as the integer 500`)
	}
	if len(parsed.Unprotected.SdClaims) != 3 {
		t.Fatalf("got %d disclosures, want 3", len(parsed.Unprotected.SdClaims))
	}
	if parsed.Unprotected.SdClaims[2].Kind() != sdcwt.SaltedElementKind {
		t.Errorf("third disclosure kind = %v, want element", parsed.Unprotected.SdClaims[2].Kind())
	}
}

func TestParseView_WideFixtureEncodesShortest(t *testing.T) {
	token, err := sdcwt.Unmarshal(testutil.MustHex(t, wideTokenHex))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	parsed, err := parseView(renderJSON(t, token))
	if err != nil {
		t.Fatalf("parseView: %v", err)
	}
	if got, want := parsed.Marshal(), testutil.MustHex(t, canonicalTokenHex); !bytes.Equal(got, want) {
		t.Errorf("encoded %s, want %s", testutil.Hex(got), testutil.Hex(want))
	}
}

func TestParseView_AllowsComments(t *testing.T) {
	view := `{
  // hand-written
  "protected": {"alg": -8, "typ": "t"},
  "unprotected": {},
  "payload": {"aud": "client-1", "iat": 1700000000},
  "signature": ""
}`
	parsed, err := parseView([]byte(view))
	if err != nil {
		t.Fatalf("parseView: %v", err)
	}
	if got, want := parsed.Marshal(), testutil.MustHex(t, canonicalTokenHex); !bytes.Equal(got, want) {
		t.Errorf("encoded %s, want %s", testutil.Hex(got), testutil.Hex(want))
	}
}

func TestParseView_FullRangeIntegers(t *testing.T) {
	view := `{
  "protected": {"alg": -18446744073709551616, "typ": "t"},
  "payload": {"aud": "a", "iat": 18446744073709551615}
}`
	parsed, err := parseView([]byte(view))
	if err != nil {
		t.Fatalf("parseView: %v", err)
	}
	if got := parsed.Protected.Alg; !got.Equal(sdcwt.NewNint(1<<64 - 1)) {
		t.Errorf("alg = %s, want -18446744073709551616", got)
	}
	if got := parsed.Payload.Iat.String(); got != "18446744073709551615" {
		t.Errorf("iat = %s", got)
	}
}

func TestParseView_Errors(t *testing.T) {
	tests := []struct {
		name    string
		view    string
		wantErr string
	}{
		{
			name:    "empty",
			view:    "",
			wantErr: "empty token view",
		},
		{
			name:    "missing alg",
			view:    `{"protected": {"typ": "t"}, "payload": {"aud": "a", "iat": 1}}`,
			wantErr: "protected.alg is required",
		},
		{
			name:    "missing iat",
			view:    `{"protected": {"alg": -8, "typ": "t"}, "payload": {"aud": "a"}}`,
			wantErr: "payload.iat is required",
		},
		{
			name:    "integer out of range",
			view:    `{"protected": {"alg": -8, "typ": "t"}, "payload": {"aud": "a", "iat": 18446744073709551616}}`,
			wantErr: "payload.iat",
		},
		{
			name:    "unknown field",
			view:    `{"protected": {"alg": -8, "typ": "t"}, "payload": {"aud": "a", "iat": 1, "jti": "x"}}`,
			wantErr: "jti",
		},
		{
			name:    "bad signature hex",
			view:    `{"protected": {"alg": -8, "typ": "t"}, "payload": {"aud": "a", "iat": 1}, "signature": "zz"}`,
			wantErr: "signature",
		},
		{
			name: "short salt",
			view: `{"protected": {"alg": -8, "typ": "t"},
			        "unprotected": {"sd_claims": [{"salt": "00", "value": 1}]},
			        "payload": {"aud": "a", "iat": 1}}`,
			wantErr: "sd_claims[0]",
		},
		{
			name: "disclosure without value",
			view: `{"protected": {"alg": -8, "typ": "t"},
			        "unprotected": {"sd_claims": [{"salt": "000102030405060708090a0b0c0d0e0f"}]},
			        "payload": {"aud": "a", "iat": 1}}`,
			wantErr: "value is required",
		},
		{
			name:    "custom is not an object",
			view:    `{"protected": {"alg": -8, "typ": "t"}, "payload": {"aud": "a", "iat": 1, "custom": [1]}}`,
			wantErr: "must be a map",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseView([]byte(test.view))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), test.wantErr)
			}
		})
	}
}

func TestParseView_DuplicateCustomKey(t *testing.T) {
	view := `{"protected": {"alg": -8, "typ": "t"}, "payload": {"aud": "a", "iat": 1, "custom": {"7": 1, "7": 2}}}`
	_, err := parseView([]byte(view))
	testutil.RequireErrorIs(t, err, sdcwt.ErrDuplicateKey)
}
