// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint is a 32-byte BLAKE3 keyed hash of a token's bytes.
type Fingerprint [32]byte

// fingerprintKey separates token fingerprints from any other BLAKE3
// use of the same bytes. The key is the ASCII domain name,
// zero-padded to 32 bytes; changing it changes every fingerprint.
var fingerprintKey = [32]byte{
	's', 'd', 'c', 'w', 't', '.', 't', 'o', 'k', 'e', 'n', '.',
	'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't', 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// FingerprintOf returns the fingerprint of data.
func FingerprintOf(data []byte) Fingerprint {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("binhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint
}

// String returns the full hex encoding.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the reference form used in log lines: "tok-" and the
// first 12 hex characters.
func (f Fingerprint) Short() string {
	return "tok-" + hex.EncodeToString(f[:6])
}
