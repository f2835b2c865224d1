// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sdcwt encodes and decodes SD-CWT tokens (selective disclosure
// CBOR Web Tokens) while preserving their exact wire form.
//
// A token is a COSE_Sign1 structure, CBOR tag 18 around a four-element
// array:
//
//	18([
//	  bstr .cbor SdProtected,  ; {1: alg, 16: typ, "custom": {...}}
//	  Unprotected,             ; {?1111: [+ Salted], ?1112: kbt, "custom": {...}}
//	  bstr .cbor SdPayload,    ; {?1: iss, ..., 3: aud, 6: iat, ..., "custom": {...}}
//	  bstr signature,
//	])
//
// Disclosures ([Salted]) are byte strings wrapping either a
// [SaltedClaimItem] ([salt, key, value]) or a [SaltedElementItem]
// ([salt, value]), each with a 16-byte salt. The payload's
// redacted_keys claim lists digests of those byte strings.
//
// # Wire preservation
//
// CBOR allows one value several encodings: integers and lengths can be
// written wider than necessary, and strings, arrays, and maps can use
// indefinite lengths. A signature covers the bytes as transmitted, so
// re-encoding a decoded token in some other form would break it.
// Every decoded value therefore records how it was written (argument
// widths, definite or indefinite lengths, string chunking, and map key
// order) and encodes back to exactly the bytes it came from. Values
// built with constructors carry no such record and encode in the
// shortest form.
//
// [SdCwt.Canonical] drops the recorded forms recursively and
// [IsCanonical] checks whether a token is already in shortest form.
// [SdCwt.ProtectedBytes] and [SdCwt.PayloadBytes] return the exact
// bytes a signature covers.
//
// # Decoding rules
//
// Decoding is strict and atomic: it returns a fully validated value or
// an error, never a partially populated one. Map records reject
// duplicate keys, keys outside the schema (other than the "custom"
// catch-all), and missing mandatory fields. Definite lengths must
// match the elements present, and indefinite containers must end with
// a break. Decoding checks structure only; it does not verify
// signatures or digests.
//
// Every decode error is a [*DecodeError] whose Path names the types and
// fields leading to the failure, for example
//
//	sdcwt: SdCwt > payload > SdPayload > aud: ...
//
// The failure matches one sentinel (ErrDuplicateKey, ErrUnknownKey,
// ...) with errors.Is and carries its detail in a *XxxFailure type
// reachable with errors.As.
//
// # Extension values
//
// Extension maps ("custom", "cnf") are [OrderedMap] values keyed by
// integer or text [Key] and holding opaque [Value] items: exactly one
// CBOR data item captured as its original bytes. [NewValue] builds one
// from a Go value with deterministic encoding, and [Value.Decode]
// reads it back.
//
// # Building tokens
//
// [Issuer] assembles unsigned tokens: it draws salts, wraps claims into
// disclosures, adds their digests to the payload, and fills in the
// headers. Signing is not implemented.
//
// Values are not safe for concurrent mutation; encoding and decoding
// hold no shared state.
package sdcwt
