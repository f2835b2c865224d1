// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"crypto/ed25519"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrClosed is the panic value for reads from a closed [Buffer].
var ErrClosed = errors.New("secret: buffer is closed")

// Buffer is a fixed-size region of locked, non-dumpable memory outside
// the Go heap. It holds an issuer private key or the passphrase that
// seals one. Reading a closed Buffer panics with [ErrClosed].
type Buffer struct {
	mu     sync.Mutex
	region []byte
}

// New returns a zero-filled Buffer of size bytes. Close releases it.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}
	region, err := lockRegion(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{region: region}, nil
}

// NewFromBytes copies source into a new Buffer and zeros source, on
// failure as well.
func NewFromBytes(source []byte) (*Buffer, error) {
	defer Zero(source)
	if len(source) == 0 {
		return nil, errors.New("secret: cannot create buffer from empty source")
	}
	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}
	copy(buffer.region, source)
	return buffer, nil
}

// lockRegion maps size anonymous bytes, pins them in RAM, and excludes
// them from core dumps.
func lockRegion(size int) ([]byte, error) {
	region, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mapping %d bytes: %w", size, err)
	}
	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: locking %d bytes (check RLIMIT_MEMLOCK): %w", size, err)
	}
	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unlockRegion(region)
		return nil, fmt.Errorf("secret: excluding region from core dumps: %w", err)
	}
	return region, nil
}

// unlockRegion zeros, unlocks, and unmaps a region from lockRegion.
func unlockRegion(region []byte) error {
	Zero(region)
	return errors.Join(unix.Munlock(region), unix.Munmap(region))
}

func (b *Buffer) contents() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		panic(ErrClosed)
	}
	return b.region
}

// Bytes returns the secret. The slice aliases the locked region and is
// invalid after Close.
func (b *Buffer) Bytes() []byte {
	return b.contents()
}

// String returns a heap copy of the secret, for APIs that take strings
// (age passphrases).
func (b *Buffer) String() string {
	return string(b.contents())
}

// Ed25519PrivateKey views the Buffer as an Ed25519 private key. The
// key aliases the locked region and is invalid after Close.
func (b *Buffer) Ed25519PrivateKey() (ed25519.PrivateKey, error) {
	data := b.contents()
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret: buffer holds %d bytes, an Ed25519 private key is %d",
			len(data), ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(data), nil
}

// Len returns the secret's size, or zero once closed.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.region)
}

// Equal compares the secret with other in constant time for equal
// lengths.
func (b *Buffer) Equal(other []byte) bool {
	return subtle.ConstantTimeCompare(b.contents(), other) == 1
}

// Close wipes and releases the region. Closing twice is a no-op.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.region == nil {
		return nil
	}
	region := b.region
	b.region = nil
	if err := unlockRegion(region); err != nil {
		return fmt.Errorf("secret: releasing region: %w", err)
	}
	return nil
}

// Zero overwrites data with zeros.
func Zero(data []byte) {
	clear(data)
}
