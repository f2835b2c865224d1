// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cborwire is a low-level CBOR (RFC 8949) reader and writer
// that reports and reproduces the exact wire form of every data item
// head: the width of each argument, definite versus indefinite
// lengths, and the chunk layout of indefinite-length strings.
//
// lib/codec (fxamacker/cbor) is the right tool when only the logical
// value matters. It normalises widths and chunking away, so it cannot
// serve code that must re-emit a decoded message byte for byte. The
// SD-CWT codec in lib/sdcwt builds on this package for that reason.
//
// # Widths
//
// [Sz] names the width of an argument: inline (values 0..23 packed in
// the initial byte), or 1, 2, 4, or 8 following bytes. The zero value
// [SzCanonical] asks the [Writer] for the shortest form. A [Writer]
// also falls back to the shortest form whenever a requested width is
// too narrow for the value being written, so stale width hints are
// never an error.
//
// # Cursor
//
// [Reader] is a cursor over an in-memory byte slice that it never
// mutates. [Reader.Offset] and [Reader.Seek] expose the position so
// callers can attempt a decode and rewind on failure. Nested
// byte-string-wrapped messages are decoded with a fresh [Reader] over
// exactly the inner bytes.
package cborwire
