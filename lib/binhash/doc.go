// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes the digests an SD-CWT needs: disclosure
// digests under a COSE hash algorithm, and short token fingerprints
// for logs and CLI output.
//
// Disclosure digests are selected by COSE algorithm identifier
// ([Algorithm]), the integer carried in a payload's sd_alg claim:
//
//   - [SHA256] (-16), [SHA384] (-43), [SHA512] (-44)
//   - [SHAKE128] (-18) with 256 bits of output, [SHAKE256] (-45) with
//     512 bits of output
//
// [Sum] hashes a byte slice and [SumFile] streams a file. [FormatDigest]
// and [ParseDigest] convert digests to and from hex.
//
// [Fingerprint] is a BLAKE3 keyed hash of a token's bytes. It is not a
// disclosure digest and never appears on the wire; it exists so that
// log lines can name a token without printing it.
//
// This package has no dependencies on other sdcwt packages.
package binhash
