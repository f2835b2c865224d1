// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
	"github.com/bureau-foundation/sdcwt/lib/testutil"
)

const (
	protectedHex = "a3 01 27 10 61 74 " + customHex + " a0"
	// {3: "client-1", 6: 1700000000, "custom": {}}
	payloadHex = "a3 03 68 63 6c 69 65 6e 74 2d 31 06 1a 65 53 f1 00 " + customHex + " a0"
	// The same claims with iat written at eight bytes.
	widePayloadHex = "a3 03 68 63 6c 69 65 6e 74 2d 31 06 1b 00 00 00 00 65 53 f1 00 " + customHex + " a0"

	canonicalTokenHex = "d2 84 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex + " 40"
	wideTokenHex      = "d8 12 9f 58 0e " + protectedHex + " a1 " + customHex + " a0 5f 58 1d " + widePayloadHex + " ff 40 ff"
)

func minimalToken() *SdCwt {
	return New(
		NewSdProtected(IntFromInt64(AlgEdDSA), "t"),
		NewUnprotected(),
		NewSdPayload("client-1", NewUint(1_700_000_000)),
	)
}

func TestNewEncodesCanonically(t *testing.T) {
	encoded := minimalToken().Marshal()
	if want := testutil.MustHex(t, canonicalTokenHex); !bytes.Equal(encoded, want) {
		t.Errorf("Marshal = %x, want %x", encoded, want)
	}
}

func TestUnmarshalCanonicalToken(t *testing.T) {
	fixture := testutil.MustHex(t, canonicalTokenHex)
	token, err := Unmarshal(fixture)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if token.Payload.Aud != "client-1" || token.Protected.Typ != "t" {
		t.Errorf("decoded aud %q typ %q", token.Payload.Aud, token.Protected.Typ)
	}
	if len(token.Signature) != 0 || token.Signature == nil {
		t.Errorf("Signature = %#v, want empty", token.Signature)
	}
	if !bytes.Equal(token.Marshal(), fixture) {
		t.Errorf("re-encoded as %x", token.Marshal())
	}
	if !token.Equal(minimalToken()) {
		t.Error("decoded token does not equal the built one")
	}
	canonical, err := IsCanonical(fixture)
	if err != nil || !canonical {
		t.Errorf("IsCanonical = %v, %v; want true", canonical, err)
	}
}

func TestUnmarshalPreservesWireForm(t *testing.T) {
	fixture := testutil.MustHex(t, wideTokenHex)
	token, err := Unmarshal(fixture)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(token.Marshal(), fixture) {
		t.Errorf("re-encoded as %x, want %x", token.Marshal(), fixture)
	}
	if want := testutil.MustHex(t, widePayloadHex); !bytes.Equal(token.PayloadBytes(), want) {
		t.Errorf("PayloadBytes = %x, want %x", token.PayloadBytes(), want)
	}
	if want := testutil.MustHex(t, protectedHex); !bytes.Equal(token.ProtectedBytes(), want) {
		t.Errorf("ProtectedBytes = %x, want %x", token.ProtectedBytes(), want)
	}

	canonical, err := IsCanonical(fixture)
	if err != nil || canonical {
		t.Errorf("IsCanonical = %v, %v; want false", canonical, err)
	}
	if want := testutil.MustHex(t, canonicalTokenHex); !bytes.Equal(token.Canonical().Marshal(), want) {
		t.Errorf("Canonical().Marshal() = %x, want %x", token.Canonical().Marshal(), want)
	}
	if !token.Equal(token.Canonical()) {
		t.Error("canonical form is not Equal to the decoded token")
	}
}

func TestSignedBytesAreCopies(t *testing.T) {
	fixture := testutil.MustHex(t, wideTokenHex)
	token, err := Unmarshal(fixture)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, signed := range [][]byte{token.ProtectedBytes(), token.PayloadBytes()} {
		for i := range signed {
			signed[i] = 0xff
		}
	}
	if !bytes.Equal(token.Marshal(), fixture) {
		t.Errorf("writing to the returned slices changed the encoding to %x", token.Marshal())
	}
	if want := testutil.MustHex(t, protectedHex); !bytes.Equal(token.ProtectedBytes(), want) {
		t.Errorf("ProtectedBytes = %x, want %x", token.ProtectedBytes(), want)
	}
}

func TestRebuild(t *testing.T) {
	fixture := testutil.MustHex(t, wideTokenHex)
	token, err := Unmarshal(fixture)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if token.IsRebuilt() {
		t.Fatal("decoded token reports rebuilt")
	}

	token.Payload.Aud = "client-2"
	if !bytes.Equal(token.Marshal(), fixture) {
		t.Error("changing Payload without Rebuild changed the encoding")
	}

	token.Rebuild()
	if !token.IsRebuilt() {
		t.Error("IsRebuilt() = false after Rebuild")
	}
	rebuilt, err := Unmarshal(token.Marshal())
	if err != nil {
		t.Fatalf("Unmarshal rebuilt token: %v", err)
	}
	if rebuilt.Payload.Aud != "client-2" {
		t.Errorf("rebuilt Aud = %q, want client-2", rebuilt.Payload.Aud)
	}
	// Hints inside the payload survive the rebuild.
	wideIat := testutil.MustHex(t, "06 1b 00 00 00 00 65 53 f1 00")
	if !bytes.Contains(rebuilt.PayloadBytes(), wideIat) {
		t.Errorf("rebuilt payload %x lost the iat width", rebuilt.PayloadBytes())
	}
	if !bytes.Equal(rebuilt.ProtectedBytes(), testutil.MustHex(t, protectedHex)) {
		t.Errorf("rebuilt ProtectedBytes = %x", rebuilt.ProtectedBytes())
	}
}

func TestUnmarshalErrors(t *testing.T) {
	const dupPayload = "52 a3 03 61 61 06 01 " + customHex + " a2 01 00 01 00"
	tests := []struct {
		name    string
		fixture string
		target  error
		path    []string
	}{
		{
			name:    "tag 24",
			fixture: "d8 18 84 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex + " 40",
			target:  ErrTagMismatch,
			path:    []string{"SdCwt"},
		},
		{
			name:    "untagged",
			fixture: "84 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex + " 40",
			target:  cborwire.ErrMajorTypeMismatch,
			path:    []string{"SdCwt"},
		},
		{
			name:    "three elements",
			fixture: "d2 83 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex,
			target:  ErrDefiniteLenMismatch,
			path:    []string{"SdCwt"},
		},
		{
			name:    "signature missing",
			fixture: "d2 84 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex,
			target:  ErrDefiniteLenMismatch,
			path:    []string{"SdCwt"},
		},
		{
			name:    "duplicate key deep in payload",
			fixture: "d2 84 4e " + protectedHex + " a1 " + customHex + " a0 " + dupPayload + " 40",
			target:  ErrDuplicateKey,
			path:    []string{"SdCwt", "payload", "SdPayload", "custom"},
		},
		{
			name:    "trailing bytes in protected",
			fixture: "d2 84 4f " + protectedHex + " 00 a1 " + customHex + " a0 58 19 " + payloadHex + " 40",
			target:  ErrTrailingBytes,
			path:    []string{"SdCwt", "protected", "SdProtected"},
		},
		{
			name:    "unknown unprotected key",
			fixture: "d2 84 4e " + protectedHex + " a2 18 63 00 " + customHex + " a0 58 19 " + payloadHex + " 40",
			target:  ErrUnknownKey,
			path:    []string{"SdCwt", "unprotected", "Unprotected"},
		},
		{
			name:    "trailing bytes after envelope",
			fixture: canonicalTokenHex + " 00",
			target:  ErrTrailingBytes,
			path:    []string{"SdCwt"},
		},
		{
			name:    "indefinite envelope missing break",
			fixture: "d2 9f 4e " + protectedHex + " a1 " + customHex + " a0 58 19 " + payloadHex + " 40",
			target:  ErrEndingBreakMissing,
			path:    []string{"SdCwt"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			token, err := Unmarshal(testutil.MustHex(t, test.fixture))
			if token != nil {
				t.Error("failed decode returned a token")
			}
			testutil.RequireErrorIs(t, err, test.target)
			decodeErr := testutil.RequireErrorAs[*DecodeError](t, err)
			if !slices.Equal(decodeErr.Path, test.path) {
				t.Errorf("Path = %v, want %v", decodeErr.Path, test.path)
			}
		})
	}
}

func TestTagMismatchDetail(t *testing.T) {
	_, err := Unmarshal(testutil.MustHex(t, "d8 18 84 40 a0 40 40"))
	failure := testutil.RequireErrorAs[*TagMismatchFailure](t, err)
	if failure.Found != 24 || failure.Expected != TagCOSESign1 {
		t.Errorf("failure = %+v, want found 24 expected 18", failure)
	}
}

func TestErrorMessageBreadcrumb(t *testing.T) {
	_, err := Unmarshal(testutil.MustHex(t, "d2 84 4e "+protectedHex+" a1 "+customHex+" a0 52 a3 03 61 61 06 01 "+customHex+" a2 01 00 01 00 40"))
	want := "sdcwt: SdCwt > payload > SdPayload > custom: duplicate key 1"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	claim, err := NewSaltedClaimItem(testSalt(16), TextIndex("role"), mustValue(t, "admin"))
	if err != nil {
		t.Fatalf("NewSaltedClaimItem: %v", err)
	}
	element, err := NewSaltedElementItem(testSalt(16), mustValue(t, map[string]any{"n": 1}))
	if err != nil {
		t.Fatalf("NewSaltedElementItem: %v", err)
	}
	unprotected := NewUnprotected(NewSaltedClaim(claim), NewSaltedElement(element))
	unprotected.SdKbt = []byte{0xd2, 0x84}
	unprotected.Custom.Set(TextKey("note"), mustValue(t, "unsigned"))

	protected := NewSdProtected(IntFromInt64(AlgEdDSA), DefaultTyp)
	protected.Custom.Set(UintKey(4), mustValue(t, []byte("kid-1")))

	token := New(protected, unprotected, fullPayload(t))
	token.Signature = bytes.Repeat([]byte{0x5a}, 64)

	decoded, err := Unmarshal(token.Marshal())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(token.Protected, decoded.Protected, recordOptions); diff != "" {
		t.Errorf("protected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(token.Unprotected, decoded.Unprotected, recordOptions); diff != "" {
		t.Errorf("unprotected mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(token.Payload, decoded.Payload, recordOptions); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(decoded.Signature, token.Signature) {
		t.Errorf("Signature = %x", decoded.Signature)
	}
	if !decoded.Equal(token) {
		t.Error("Equal reports a difference")
	}
	if !bytes.Equal(decoded.Marshal(), token.Marshal()) {
		t.Error("decoded token re-encodes differently")
	}
	canonical, err := IsCanonical(token.Marshal())
	if err != nil || !canonical {
		t.Errorf("IsCanonical(built) = %v, %v; want true", canonical, err)
	}
}

func TestSdCwtCBORInterfaces(t *testing.T) {
	fixture := testutil.MustHex(t, wideTokenHex)
	var token SdCwt
	if err := token.UnmarshalCBOR(fixture); err != nil {
		t.Fatalf("UnmarshalCBOR: %v", err)
	}
	encoded, err := token.MarshalCBOR()
	if err != nil {
		t.Fatalf("MarshalCBOR: %v", err)
	}
	if !bytes.Equal(encoded, fixture) {
		t.Errorf("MarshalCBOR = %x, want %x", encoded, fixture)
	}
	if err := token.UnmarshalCBOR(fixture[:10]); err == nil {
		t.Error("UnmarshalCBOR of a truncated token succeeded")
	}
	if !bytes.Equal(token.Marshal(), fixture) {
		t.Error("failed UnmarshalCBOR modified the token")
	}
}
