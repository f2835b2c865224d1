// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func TestFingerprintIsKeyed(t *testing.T) {
	data := []byte{0xd2, 0x84, 0x40, 0xa0, 0x40, 0x40}
	fingerprint := FingerprintOf(data)

	plain := blake3.Sum256(data)
	if fingerprint == Fingerprint(plain) {
		t.Error("fingerprint equals the unkeyed BLAKE3 hash")
	}
	if FingerprintOf(data) != fingerprint {
		t.Error("fingerprint is not deterministic")
	}
	if FingerprintOf(data[:5]) == fingerprint {
		t.Error("different inputs share a fingerprint")
	}
}

func TestFingerprintFormat(t *testing.T) {
	fingerprint := FingerprintOf([]byte("token"))
	if got := fingerprint.String(); len(got) != 64 {
		t.Errorf("String() length = %d, want 64", len(got))
	}
	short := fingerprint.Short()
	if !strings.HasPrefix(short, "tok-") || len(short) != 16 {
		t.Errorf("Short() = %q, want tok- and 12 hex characters", short)
	}
	if !strings.HasPrefix(fingerprint.String(), short[4:]) {
		t.Errorf("Short() %q is not a prefix of String() %q", short, fingerprint.String())
	}
}
