// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/sdcwt/lib/binhash"
)

// ComputeSelfHash returns the hex SHA-256 digest of the running binary
// and its path, so a reported version can be tied to an exact build.
func ComputeSelfHash() (hash string, binaryPath string, err error) {
	executable, err := os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("locating running binary: %w", err)
	}
	digest, err := binhash.SumFile(binhash.SHA256, executable)
	if err != nil {
		return "", "", fmt.Errorf("hashing %s: %w", executable, err)
	}
	return binhash.FormatDigest(digest), executable, nil
}
