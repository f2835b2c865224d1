// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import "github.com/bureau-foundation/sdcwt/lib/cborwire"

// Protected header keys.
const (
	KeyAlg = 1
	KeyTyp = 16
)

// SdProtected is the protected header, carried in the envelope as a
// byte string so that its exact bytes are covered by the signature.
type SdProtected struct {
	// Alg is the COSE signature algorithm.
	Alg Int
	// Typ is the token media type.
	Typ string
	// Custom holds extension header parameters. It is always encoded,
	// as an empty map when nil.
	Custom *OrderedMap

	hints       mapHints
	typEncoding StringEncoding
}

// NewSdProtected returns a protected header with an empty Custom map.
func NewSdProtected(alg Int, typ string) SdProtected {
	return SdProtected{Alg: alg, Typ: typ, Custom: NewOrderedMap()}
}

func (p *SdProtected) fields() []mapField {
	return []mapField{
		{
			key:      UintKey(KeyAlg),
			name:     "alg",
			required: true,
			encode:   func(w *cborwire.Writer) { p.Alg.encode(w) },
			decode: func(r *cborwire.Reader) (err error) {
				p.Alg, err = decodeInt(r)
				return err
			},
		},
		{
			key:      UintKey(KeyTyp),
			name:     "typ",
			required: true,
			encode:   func(w *cborwire.Writer) { writeText(w, p.Typ, p.typEncoding) },
			decode: func(r *cborwire.Reader) (err error) {
				p.Typ, p.typEncoding, err = readText(r)
				return err
			},
		},
		customField(&p.Custom),
	}
}

// customField is the "custom" catch-all shared by every map record.
func customField(custom **OrderedMap) mapField {
	return mapField{
		key:      customKey,
		name:     "custom",
		required: true,
		encode:   func(w *cborwire.Writer) { (*custom).encode(w) },
		decode: func(r *cborwire.Reader) (err error) {
			*custom, err = decodeOrderedMap(r)
			return err
		},
	}
}

func (p *SdProtected) encode(w *cborwire.Writer) {
	encodeMapRecord(w, p.fields(), p.hints)
}

func decodeSdProtected(r *cborwire.Reader) (SdProtected, error) {
	var header SdProtected
	hints, err := decodeMapRecord(r, header.fields())
	if err != nil {
		return SdProtected{}, err
	}
	header.hints = hints
	return header, nil
}

func (p *SdProtected) canonical() SdProtected {
	return SdProtected{Alg: p.Alg.canonical(), Typ: p.Typ, Custom: p.Custom.canonical()}
}

// Equal reports whether both headers hold equal values, regardless of
// wire form.
func (p *SdProtected) Equal(other *SdProtected) bool {
	return p.Alg.Equal(other.Alg) && p.Typ == other.Typ && p.Custom.Equal(other.Custom)
}

// MarshalCBOR encodes the header map. For a decoded header with no
// changes the result is the original bytes.
func (p *SdProtected) MarshalCBOR() ([]byte, error) {
	return encodeWrapped(p.encode), nil
}

// UnmarshalCBOR decodes a protected header map.
func (p *SdProtected) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "SdProtected", decodeSdProtected)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
