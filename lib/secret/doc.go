// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds the issuer private key and the passphrase that
// seals it in memory the garbage collector never sees.
//
// A [Buffer] is an anonymous mmap region pinned with mlock and marked
// MADV_DONTDUMP, so its contents are neither swapped nor written to a
// core dump. Close wipes and unmaps it; reads after Close panic with
// [ErrClosed]. [Buffer.Ed25519PrivateKey] views a 64-byte buffer as a
// signing key without copying it back onto the heap.
//
// [ReadFromPath] loads a passphrase from a file or the first line of
// stdin. Files must be regular, at most [MaxFileSize] bytes, and closed
// to group and other ([ErrInsecurePermissions]).
//
// Depends on golang.org/x/sys/unix. Imported by lib/issuerkey and the
// issue command.
package secret
