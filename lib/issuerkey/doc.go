// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package issuerkey stores the Ed25519 issuer keypair used to build
// SD-CWT tokens.
//
// The keypair lives in a key directory as two files:
//
//	issuer-key.pub   raw 32-byte public key, mode 0644
//	issuer-key       raw 64-byte private key, mode 0600
//
// or, when a passphrase is supplied, with the private key sealed by
// age under a scrypt passphrase recipient and ASCII-armored:
//
//	issuer-key.age   armored age file, mode 0600
//
// The private key is held in a [secret.Buffer] once loaded, so it stays
// off the Go heap and out of core dumps. [Keypair.Close] releases it.
package issuerkey
