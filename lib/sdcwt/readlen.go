// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// readLen tracks how many elements of a container have been consumed
// against its declared length. Every check is a no-op for indefinite
// containers, which end on a break marker instead.
type readLen struct {
	length cborwire.Len
	read   uint64
}

func newReadLen(length cborwire.Len) *readLen {
	return &readLen{length: length}
}

// readElems accounts for n more elements and fails as soon as the
// total would exceed a definite declared length.
func (t *readLen) readElems(n uint64) error {
	if t.length.Indefinite {
		t.read += n
		return nil
	}
	if t.read+n > t.length.Count {
		return &DefiniteLenMismatchFailure{Declared: t.length.Count, Read: t.read + n}
	}
	t.read += n
	return nil
}

// finish fails unless exactly the declared number of elements was
// accounted for.
func (t *readLen) finish() error {
	if t.length.Indefinite || t.read == t.length.Count {
		return nil
	}
	return &DefiniteLenMismatchFailure{Declared: t.length.Count, Read: t.read}
}

// next reports whether another element follows in a container of
// variable content (maps and lists), consuming the closing break of an
// indefinite container. A break inside a definite container, running
// out of input before the declared count, or running out of input
// before the break are all errors.
func (t *readLen) next(r *cborwire.Reader) (bool, error) {
	if t.length.Indefinite {
		isBreak, err := r.PeekBreak()
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrEndingBreakMissing, err)
		}
		if isBreak {
			return false, r.ReadBreak()
		}
		t.read++
		return true, nil
	}
	if t.read == t.length.Count {
		return false, nil
	}
	if err := t.element(r, t.read); err != nil {
		return false, err
	}
	return true, t.readElems(1)
}

// element checks that the next byte can begin an element of a definite
// container in which completed elements have been decoded so far.
func (t *readLen) element(r *cborwire.Reader, completed uint64) error {
	if t.length.Indefinite {
		return nil
	}
	isBreak, err := r.PeekBreak()
	if err != nil {
		return t.truncated(err, completed)
	}
	if isBreak {
		return fmt.Errorf("%w at offset %d", ErrBreakInDefiniteLen, r.Offset())
	}
	return nil
}

// end consumes the break that closes an indefinite container after its
// last fixed element.
func (t *readLen) end(r *cborwire.Reader) error {
	if !t.length.Indefinite {
		return nil
	}
	if err := r.ReadBreak(); err != nil {
		return fmt.Errorf("%w: %w", ErrEndingBreakMissing, err)
	}
	return nil
}

// truncated converts running out of input inside a container into a
// length mismatch reporting the completed elements, or a missing break
// for an indefinite container. Any other error, and errors already
// attributed to a nested value or container, pass through unchanged.
func (t *readLen) truncated(err error, completed uint64) error {
	if _, nested := err.(*DecodeError); nested || !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	var mismatch *DefiniteLenMismatchFailure
	if errors.As(err, &mismatch) || errors.Is(err, ErrEndingBreakMissing) {
		return err
	}
	if t.length.Indefinite {
		return fmt.Errorf("%w: %w", ErrEndingBreakMissing, err)
	}
	return &DefiniteLenMismatchFailure{Declared: t.length.Count, Read: completed, Cause: err}
}
