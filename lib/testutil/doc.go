// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the sdcwt packages.
//
// [MustHex] decodes whitespace-separated hex fixtures, so wire vectors
// can be written the way they appear in diagnostic dumps:
//
//	data := testutil.MustHex(t, "d2 84 43 a1 01 27 ...")
//
// [RequireErrorIs] and [RequireErrorAs] assert on error chains with a
// readable failure message, since decode errors in this module carry
// both a sentinel kind and a structured failure.
//
// [WriteFile] writes a fixture into a per-test temporary directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no sdcwt-internal dependencies.
package testutil
