// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cborwire

import (
	"errors"
	"fmt"
	"math"
)

// MajorType is the 3-bit major type of a CBOR data item.
type MajorType uint8

const (
	MajorUint   MajorType = 0
	MajorNint   MajorType = 1
	MajorBytes  MajorType = 2
	MajorText   MajorType = 3
	MajorArray  MajorType = 4
	MajorMap    MajorType = 5
	MajorTag    MajorType = 6
	MajorSimple MajorType = 7
)

// String returns the RFC 8949 name of the major type.
func (m MajorType) String() string {
	switch m {
	case MajorUint:
		return "unsigned integer"
	case MajorNint:
		return "negative integer"
	case MajorBytes:
		return "byte string"
	case MajorText:
		return "text string"
	case MajorArray:
		return "array"
	case MajorMap:
		return "map"
	case MajorTag:
		return "tag"
	case MajorSimple:
		return "simple/float"
	default:
		return fmt.Sprintf("major type %d", uint8(m))
	}
}

// Additional-information values of the initial byte.
const (
	infoUint8      = 24
	infoUint16     = 25
	infoUint32     = 26
	infoUint64     = 27
	infoIndefinite = 31

	breakByte = 0xff
)

// Sz is the encoded width of a head argument.
type Sz uint8

const (
	// SzCanonical selects the shortest width for the value. It is the
	// zero value so that absent hints encode canonically.
	SzCanonical Sz = iota
	SzInline
	SzOne
	SzTwo
	SzFour
	SzEight
)

// String returns a short human-readable width name.
func (s Sz) String() string {
	switch s {
	case SzCanonical:
		return "canonical"
	case SzInline:
		return "inline"
	case SzOne:
		return "1-byte"
	case SzTwo:
		return "2-byte"
	case SzFour:
		return "4-byte"
	case SzEight:
		return "8-byte"
	default:
		return fmt.Sprintf("Sz(%d)", uint8(s))
	}
}

// Max returns the largest argument representable at this width.
// SzCanonical can represent any value.
func (s Sz) Max() uint64 {
	switch s {
	case SzInline:
		return 23
	case SzOne:
		return math.MaxUint8
	case SzTwo:
		return math.MaxUint16
	case SzFour:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// Fits reports whether v can be written at width s.
func (s Sz) Fits(v uint64) bool {
	return v <= s.Max()
}

// Fit returns s when v fits at that width, and the canonical width for
// v otherwise.
func (s Sz) Fit(v uint64) Sz {
	if s == SzCanonical || !s.Fits(v) {
		return CanonicalSz(v)
	}
	return s
}

// CanonicalSz returns the shortest width that can carry v.
func CanonicalSz(v uint64) Sz {
	switch {
	case v <= 23:
		return SzInline
	case v <= math.MaxUint8:
		return SzOne
	case v <= math.MaxUint16:
		return SzTwo
	case v <= math.MaxUint32:
		return SzFour
	default:
		return SzEight
	}
}

// Len is the declared length of an array or map as it appeared on the
// wire. When Indefinite is set, Count and Sz are meaningless and the
// container ends with a break marker.
type Len struct {
	Count      uint64
	Sz         Sz
	Indefinite bool
}

// DefiniteLen returns a canonical definite length.
func DefiniteLen(count uint64) Len {
	return Len{Count: count}
}

// IndefiniteLen returns an indefinite length.
func IndefiniteLen() Len {
	return Len{Indefinite: true}
}

// Chunk is one segment of an indefinite-length string: its byte
// length and the width its length argument was written with.
type Chunk struct {
	Len uint64
	Sz  Sz
}

// StringLen describes how a byte or text string's length was written:
// a single definite head of width Sz, or an indefinite string made of
// Chunks.
type StringLen struct {
	Sz         Sz
	Indefinite bool
	Chunks     []Chunk
}

// chunkTotal returns the sum of chunk lengths.
func (s StringLen) chunkTotal() uint64 {
	var total uint64
	for _, chunk := range s.Chunks {
		total += chunk.Len
	}
	return total
}

// Errors returned by Reader.
var (
	ErrMajorTypeMismatch = errors.New("cborwire: unexpected major type")
	ErrReservedInfo      = errors.New("cborwire: reserved additional information value")
	ErrIndefinite        = errors.New("cborwire: indefinite length not allowed here")
	ErrInvalidChunk      = errors.New("cborwire: invalid chunk in indefinite-length string")
	ErrInvalidUTF8       = errors.New("cborwire: text string is not valid UTF-8")
	ErrNotBreak          = errors.New("cborwire: expected break marker")
	ErrUnexpectedBreak   = errors.New("cborwire: unexpected break marker")
	ErrNestingTooDeep    = errors.New("cborwire: nesting too deep")
)

// MaxNesting is the deepest stack of arrays, maps, and tags that
// [Reader.ReadRawItem] and [Reader.SkipItem] accept. lib/codec applies
// the same bound, so an item one accepts the other accepts too.
const MaxNesting = 256
