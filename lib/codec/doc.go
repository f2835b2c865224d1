// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared generic CBOR configuration built on
// fxamacker/cbor.
//
// Two layers of CBOR handling exist in this module with a clear
// boundary:
//
//   - lib/cborwire and lib/sdcwt handle the SD-CWT token structure
//     itself, where the exact bytes of every decoded item matter.
//   - This package handles values whose wire form does not matter:
//     extension claim values built from Go data, well-formedness checks
//     on captured raw items, diagnostic notation, and conversion of
//     arbitrary CBOR into JSON for display.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For display, UnmarshalAny decodes any single item, including maps
// with integer keys, into JSON-compatible Go values:
//
//	view, err := codec.UnmarshalAny(data)
//	output, err := json.Marshal(view)
package codec
