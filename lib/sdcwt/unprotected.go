// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"
	"slices"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// Unprotected header keys.
const (
	KeySdClaims = 1111
	KeySdKbt    = 1112
)

// Unprotected is the unprotected header, embedded directly in the
// envelope.
type Unprotected struct {
	// SdClaims holds the disclosures. nil omits the field; an empty
	// non-nil slice encodes an empty array.
	SdClaims []Salted
	// SdKbt is the key binding token. nil omits the field.
	SdKbt []byte
	// Custom holds extension header parameters. It is always encoded,
	// as an empty map when nil.
	Custom *OrderedMap

	hints          mapHints
	sdClaimsLength LenEncoding
	sdKbtEncoding  StringEncoding
}

// NewUnprotected returns an unprotected header carrying disclosures and
// an empty Custom map.
func NewUnprotected(disclosures ...Salted) Unprotected {
	header := Unprotected{Custom: NewOrderedMap()}
	if len(disclosures) > 0 {
		header.SdClaims = slices.Clone(disclosures)
	}
	return header
}

func (u *Unprotected) fields() []mapField {
	return []mapField{
		{
			key:     UintKey(KeySdClaims),
			name:    "sd_claims",
			present: func() bool { return u.SdClaims != nil },
			encode: func(w *cborwire.Writer) {
				encodeList(w, u.sdClaimsLength, len(u.SdClaims), func(w *cborwire.Writer, index int) {
					u.SdClaims[index].encode(w)
				})
			},
			decode: func(r *cborwire.Reader) (err error) {
				u.SdClaims = []Salted{}
				u.sdClaimsLength, err = decodeList(r, func(r *cborwire.Reader) error {
					disclosure, err := decodeSalted(r)
					if err != nil {
						return err
					}
					u.SdClaims = append(u.SdClaims, disclosure)
					return nil
				})
				return err
			},
		},
		{
			key:     UintKey(KeySdKbt),
			name:    "sd_kbt",
			present: func() bool { return u.SdKbt != nil },
			encode:  func(w *cborwire.Writer) { writeBytes(w, u.SdKbt, u.sdKbtEncoding) },
			decode: func(r *cborwire.Reader) (err error) {
				u.SdKbt, u.sdKbtEncoding, err = readBytes(r)
				return err
			},
		},
		customField(&u.Custom),
	}
}

func (u *Unprotected) encode(w *cborwire.Writer) {
	encodeMapRecord(w, u.fields(), u.hints)
}

func decodeUnprotected(r *cborwire.Reader) (Unprotected, error) {
	var header Unprotected
	hints, err := decodeMapRecord(r, header.fields())
	if err != nil {
		return Unprotected{}, err
	}
	header.hints = hints
	return header, nil
}

func (u *Unprotected) canonical() Unprotected {
	result := Unprotected{SdKbt: u.SdKbt, Custom: u.Custom.canonical()}
	if u.SdClaims != nil {
		result.SdClaims = make([]Salted, len(u.SdClaims))
		for index, disclosure := range u.SdClaims {
			result.SdClaims[index] = disclosure.canonical()
		}
	}
	return result
}

// Equal reports whether both headers hold equal values, regardless of
// wire form.
func (u *Unprotected) Equal(other *Unprotected) bool {
	if (u.SdClaims == nil) != (other.SdClaims == nil) || (u.SdKbt == nil) != (other.SdKbt == nil) {
		return false
	}
	return slices.EqualFunc(u.SdClaims, other.SdClaims, Salted.Equal) &&
		bytes.Equal(u.SdKbt, other.SdKbt) &&
		u.Custom.Equal(other.Custom)
}

// MarshalCBOR encodes the header map.
func (u *Unprotected) MarshalCBOR() ([]byte, error) {
	return encodeWrapped(u.encode), nil
}

// UnmarshalCBOR decodes an unprotected header map.
func (u *Unprotected) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "Unprotected", decodeUnprotected)
	if err != nil {
		return err
	}
	*u = decoded
	return nil
}
