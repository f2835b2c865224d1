// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
)

// Algorithm is a COSE hash algorithm identifier.
type Algorithm int64

// Hash algorithms from the COSE algorithms registry.
const (
	SHA256   Algorithm = -16
	SHA384   Algorithm = -43
	SHA512   Algorithm = -44
	SHAKE128 Algorithm = -18
	SHAKE256 Algorithm = -45
)

// ErrUnknownAlgorithm is returned for an identifier outside the
// supported set.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Validate reports whether the algorithm is supported.
func (a Algorithm) Validate() error {
	switch a {
	case SHA256, SHA384, SHA512, SHAKE128, SHAKE256:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int64(a))
	}
}

// String returns the registry name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "SHA-256"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	case SHAKE128:
		return "SHAKE128"
	case SHAKE256:
		return "SHAKE256"
	default:
		return fmt.Sprintf("Algorithm(%d)", int64(a))
	}
}

// ParseAlgorithm accepts a registry name as returned by String.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, candidate := range []Algorithm{SHA256, SHA384, SHA512, SHAKE128, SHAKE256} {
		if candidate.String() == name {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Size returns the digest length in bytes.
func (a Algorithm) Size() int {
	switch a {
	case SHA256, SHAKE128:
		return 32
	case SHA384:
		return 48
	case SHA512, SHAKE256:
		return 64
	default:
		return 0
	}
}

// newHash returns a streaming hash for a. SHAKE output is read to
// Size bytes by Sum.
func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	case SHAKE128:
		return shakeHash{sha3.NewShake128(), 32}, nil
	case SHAKE256:
		return shakeHash{sha3.NewShake256(), 64}, nil
	default:
		return nil, a.Validate()
	}
}

// shakeHash adapts an extendable-output function to hash.Hash with a
// fixed output length.
type shakeHash struct {
	sha3.ShakeHash
	size int
}

func (s shakeHash) Sum(b []byte) []byte {
	output := make([]byte, s.size)
	s.ShakeHash.Clone().Read(output)
	return append(b, output...)
}

func (s shakeHash) Size() int { return s.size }

// Sum returns the digest of data under a.
func Sum(a Algorithm, data []byte) ([]byte, error) {
	hasher, err := a.newHash()
	if err != nil {
		return nil, err
	}
	hasher.Write(data)
	return hasher.Sum(nil), nil
}

// SumFile computes the digest of the file at path under a. The file
// is streamed through the hash function.
func SumFile(a Algorithm, path string) ([]byte, error) {
	hasher, err := a.newHash()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hasher.Sum(nil), nil
}

// FormatDigest returns the hex encoding of a digest.
func FormatDigest(digest []byte) string {
	return hex.EncodeToString(digest)
}

// ParseDigest parses a hex-encoded digest produced by a. Returns an
// error if the string is not valid hex or has the wrong length for a.
func ParseDigest(a Algorithm, hexString string) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != a.Size() {
		return nil, fmt.Errorf("%s digest is %d bytes, want %d", a, len(decoded), a.Size())
	}
	return decoded, nil
}
