// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// Int is a CBOR integer: an unsigned value (major type 0) or a
// negative value -1-n (major type 1). Its range is -2^64 through
// 2^64-1. Equality and ordering use the logical value only; the wire
// width a decoded Int was written with is kept for re-encoding.
type Int struct {
	negative bool
	// For a negative Int this is n, the encoded argument.
	value uint64
	width cborwire.Sz
}

// NewUint returns the non-negative Int with the given value.
func NewUint(value uint64) Int {
	return Int{value: value}
}

// NewNint returns the negative Int whose encoded argument is n, that
// is, the integer -1-n.
func NewNint(n uint64) Int {
	return Int{negative: true, value: n}
}

// IntFromInt64 returns the Int equal to v.
func IntFromInt64(v int64) Int {
	if v >= 0 {
		return NewUint(uint64(v))
	}
	return NewNint(uint64(-(v + 1)))
}

var (
	minInt = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 64))
	maxInt = new(big.Int).SetUint64(math.MaxUint64)
)

// ParseInt parses a base-10 integer in the range -2^64 through 2^64-1.
func ParseInt(text string) (Int, error) {
	parsed, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Int{}, fmt.Errorf("sdcwt: invalid integer %q", text)
	}
	if parsed.Cmp(minInt) < 0 || parsed.Cmp(maxInt) > 0 {
		return Int{}, fmt.Errorf("%w: %s outside CBOR integer range", ErrRangeCheck, text)
	}
	if parsed.Sign() >= 0 {
		return NewUint(parsed.Uint64()), nil
	}
	// n = -1 - parsed
	n := new(big.Int).Neg(parsed)
	n.Sub(n, big.NewInt(1))
	return NewNint(n.Uint64()), nil
}

// IsNegative reports whether the Int is encoded with major type 1.
func (i Int) IsNegative() bool {
	return i.negative
}

// Uint64 returns the value of a non-negative Int.
func (i Int) Uint64() (uint64, bool) {
	if i.negative {
		return 0, false
	}
	return i.value, true
}

// Int64 returns the value as an int64, failing with ErrIntegerOverflow
// when it does not fit.
func (i Int) Int64() (int64, error) {
	if i.value > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s", ErrIntegerOverflow, i)
	}
	if i.negative {
		return -1 - int64(i.value), nil
	}
	return int64(i.value), nil
}

// String returns the base-10 form of the value.
func (i Int) String() string {
	if !i.negative {
		return strconv.FormatUint(i.value, 10)
	}
	if i.value < math.MaxInt64 {
		return strconv.FormatInt(-1-int64(i.value), 10)
	}
	value := new(big.Int).SetUint64(i.value)
	value.Add(value, big.NewInt(1))
	return value.Neg(value).String()
}

// Compare returns -1, 0, or +1 as i is less than, equal to, or greater
// than other.
func (i Int) Compare(other Int) int {
	switch {
	case i.negative && !other.negative:
		return -1
	case !i.negative && other.negative:
		return 1
	}
	var result int
	switch {
	case i.value < other.value:
		result = -1
	case i.value > other.value:
		result = 1
	}
	if i.negative {
		// A larger argument is a smaller negative number.
		return -result
	}
	return result
}

// Equal reports whether i and other have the same value, regardless
// of wire width.
func (i Int) Equal(other Int) bool {
	return i.negative == other.negative && i.value == other.value
}

// canonical returns i without its width hint.
func (i Int) canonical() Int {
	i.width = cborwire.SzCanonical
	return i
}

func (i Int) encode(w *cborwire.Writer) {
	if i.negative {
		w.WriteNint(i.value, i.width)
		return
	}
	w.WriteUint(i.value, i.width)
}

func decodeInt(r *cborwire.Reader) (Int, error) {
	major, err := r.PeekType()
	if err != nil {
		return Int{}, err
	}
	if major == cborwire.MajorNint {
		n, width, err := r.ReadNint()
		if err != nil {
			return Int{}, err
		}
		return Int{negative: true, value: n, width: width}, nil
	}
	value, width, err := r.ReadUint()
	if err != nil {
		return Int{}, err
	}
	return Int{value: value, width: width}, nil
}

// MarshalCBOR encodes the Int, keeping the width of a decoded value.
func (i Int) MarshalCBOR() ([]byte, error) {
	w := cborwire.NewWriter()
	i.encode(w)
	return w.Bytes(), nil
}

// UnmarshalCBOR decodes a single CBOR integer.
func (i *Int) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "Int", decodeInt)
	if err != nil {
		return err
	}
	*i = decoded
	return nil
}
