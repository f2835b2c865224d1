// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package claimset loads token templates: the claims an issuer puts in
// a token, split into the ones carried in the clear and the ones
// carried as salted disclosures.
//
// A template is YAML, or JSON with comments (JSONC):
//
//	iss: https://issuer.example
//	aud: https://verifier.example
//	iat: 1700000000           # defaults to the current time
//	exp: 1700003600           # defaults to iat + lifetime, if configured
//	claims:                   # visible, in the payload's custom map
//	  role: operator
//	  500: 7
//	disclose:                 # redacted, one disclosure per claim
//	  email: alice@example.com
//	disclose_elements:        # redacted array elements
//	  - red
//	  - 5
//
// In YAML, the !sd tag discloses a claim or element where it is
// written. A tagged key of the claims map moves to disclose and a tagged
// item of an array in the claims map moves to disclose_elements:
//
//	claims:
//	  !sd email: alice@example.com
//	  colors: [blue, !sd red]
//
// The tag is rejected anywhere else.
//
// Map order is kept, so the custom map encodes its claims in the order
// written. In YAML, unquoted integer keys are integer claim keys. JSON
// object keys are always strings, so in JSONC a key spelled as a
// decimal integer ("500") is an integer claim key, matching the JSON
// view written by "sdcwt decode".
//
// Loading only decides what goes in the token. [Template.Build] draws
// the salts and assembles the unsigned token through an
// [sdcwt.Issuer].
package claimset
