// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the sdcwt
// binary.
//
// Four package-level variables are injected at build time via
// -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/sdcwt/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When they are not injected, [Current] reads the VCS revision, dirty
// flag, and commit time the Go toolchain stamps into the binary.
//
// [Info], [Full] and [Short] format a [Build]. [ComputeSelfHash] returns the
// SHA-256 digest of the running binary for "sdcwt version --full".
package version
