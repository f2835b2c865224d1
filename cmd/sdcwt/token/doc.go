// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package token implements the sdcwt token commands: decode, encode,
// diag, validate, issue, and digest.
//
// Every command reads one token from a file argument or stdin, as raw
// CBOR or, with --hex, as hex text (whitespace ignored). Commands that
// produce a token write it as raw CBOR or hex according to --format,
// which defaults to output.format from the configuration.
//
// decode and encode share a JSON view of a token:
//
//	{
//	  "protected":   {"alg": -8, "typ": "application/sd-cwt", "custom": {}},
//	  "unprotected": {"sd_claims": [{"salt": "...", "index": "email", "value": "..."}],
//	                  "custom": {}},
//	  "payload":     {"aud": "...", "iat": 1700000000, "redacted_keys": ["..."], "custom": {}},
//	  "signature":   ""
//	}
//
// Byte strings of the token schema (salts, cnonce, digests, the
// signature) are hex. Integers are JSON numbers over the full CBOR
// range. Extension maps keep their entry order; integer keys are
// written as decimal strings and decimal-string keys read back as
// integers. Extension values are shown in the JSON data model, so byte
// strings and tags inside them do not survive a decode/encode cycle:
// use validate and diag to inspect exact bytes.
//
// The wire form of a decoded token (argument widths, indefinite
// lengths, key order) is not part of the view. encode always writes
// shortest form.
package token
