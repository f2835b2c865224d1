// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"
	"slices"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// Claim keys of the payload.
const (
	KeyIss          = 1
	KeySub          = 2
	KeyAud          = 3
	KeyExp          = 4
	KeyNbf          = 5
	KeyIat          = 6
	KeyCnf          = 8
	KeyCnonce       = 39
	KeySdHash       = 1113
	KeySdAlg        = 1114
	KeyRedactedKeys = 1115
)

// SdPayload is the claims set, carried in the envelope as a byte
// string. Optional claims are pointers or slices; nil omits them.
type SdPayload struct {
	Iss *string
	Sub *string
	// Aud is mandatory.
	Aud string
	Exp *Int
	Nbf *Int
	// Iat is mandatory.
	Iat    Int
	Cnonce []byte
	// Cnf is the confirmation (holder key) claim.
	Cnf    *OrderedMap
	SdHash []byte
	// SdAlg is the COSE hash algorithm of RedactedKeys.
	SdAlg *Int
	// RedactedKeys holds the digests of redacted disclosures.
	RedactedKeys [][]byte
	// Custom holds private claims. It is always encoded, as an empty
	// map when nil.
	Custom *OrderedMap

	hints                mapHints
	issEncoding          StringEncoding
	subEncoding          StringEncoding
	audEncoding          StringEncoding
	cnonceEncoding       StringEncoding
	sdHashEncoding       StringEncoding
	redactedKeysLength   LenEncoding
	redactedKeyEncodings []StringEncoding
}

// NewSdPayload returns a payload holding the mandatory claims and an
// empty Custom map.
func NewSdPayload(aud string, iat Int) SdPayload {
	return SdPayload{Aud: aud, Iat: iat, Custom: NewOrderedMap()}
}

func optionalText(key uint64, name string, value **string, encoding *StringEncoding) mapField {
	return mapField{
		key:     UintKey(key),
		name:    name,
		present: func() bool { return *value != nil },
		encode:  func(w *cborwire.Writer) { writeText(w, **value, *encoding) },
		decode: func(r *cborwire.Reader) error {
			text, textEncoding, err := readText(r)
			if err != nil {
				return err
			}
			*value, *encoding = &text, textEncoding
			return nil
		},
	}
}

func optionalInt(key uint64, name string, value **Int) mapField {
	return mapField{
		key:     UintKey(key),
		name:    name,
		present: func() bool { return *value != nil },
		encode:  func(w *cborwire.Writer) { (*value).encode(w) },
		decode: func(r *cborwire.Reader) error {
			integer, err := decodeInt(r)
			if err != nil {
				return err
			}
			*value = &integer
			return nil
		},
	}
}

func optionalBytes(key uint64, name string, value *[]byte, encoding *StringEncoding) mapField {
	return mapField{
		key:     UintKey(key),
		name:    name,
		present: func() bool { return *value != nil },
		encode:  func(w *cborwire.Writer) { writeBytes(w, *value, *encoding) },
		decode: func(r *cborwire.Reader) (err error) {
			*value, *encoding, err = readBytes(r)
			return err
		},
	}
}

func (p *SdPayload) fields() []mapField {
	return []mapField{
		optionalText(KeyIss, "iss", &p.Iss, &p.issEncoding),
		optionalText(KeySub, "sub", &p.Sub, &p.subEncoding),
		{
			key:      UintKey(KeyAud),
			name:     "aud",
			required: true,
			encode:   func(w *cborwire.Writer) { writeText(w, p.Aud, p.audEncoding) },
			decode: func(r *cborwire.Reader) (err error) {
				p.Aud, p.audEncoding, err = readText(r)
				return err
			},
		},
		optionalInt(KeyExp, "exp", &p.Exp),
		optionalInt(KeyNbf, "nbf", &p.Nbf),
		{
			key:      UintKey(KeyIat),
			name:     "iat",
			required: true,
			encode:   func(w *cborwire.Writer) { p.Iat.encode(w) },
			decode: func(r *cborwire.Reader) (err error) {
				p.Iat, err = decodeInt(r)
				return err
			},
		},
		optionalBytes(KeyCnonce, "cnonce", &p.Cnonce, &p.cnonceEncoding),
		{
			key:     UintKey(KeyCnf),
			name:    "cnf",
			present: func() bool { return p.Cnf != nil },
			encode:  func(w *cborwire.Writer) { p.Cnf.encode(w) },
			decode: func(r *cborwire.Reader) (err error) {
				p.Cnf, err = decodeOrderedMap(r)
				return err
			},
		},
		optionalBytes(KeySdHash, "sd_hash", &p.SdHash, &p.sdHashEncoding),
		optionalInt(KeySdAlg, "sd_alg", &p.SdAlg),
		{
			key:     UintKey(KeyRedactedKeys),
			name:    "redacted_keys",
			present: func() bool { return p.RedactedKeys != nil },
			encode: func(w *cborwire.Writer) {
				encodeList(w, p.redactedKeysLength, len(p.RedactedKeys), func(w *cborwire.Writer, index int) {
					var encoding StringEncoding
					if index < len(p.redactedKeyEncodings) {
						encoding = p.redactedKeyEncodings[index]
					}
					writeBytes(w, p.RedactedKeys[index], encoding)
				})
			},
			decode: func(r *cborwire.Reader) (err error) {
				p.RedactedKeys = [][]byte{}
				p.redactedKeysLength, err = decodeList(r, func(r *cborwire.Reader) error {
					digest, encoding, err := readBytes(r)
					if err != nil {
						return err
					}
					p.RedactedKeys = append(p.RedactedKeys, digest)
					p.redactedKeyEncodings = append(p.redactedKeyEncodings, encoding)
					return nil
				})
				return err
			},
		},
		customField(&p.Custom),
	}
}

// Redact appends the digest of each disclosure, computed with the hash
// algorithm alg, to RedactedKeys and records alg in SdAlg.
func (p *SdPayload) Redact(alg Int, disclosures ...Salted) error {
	digests := make([][]byte, 0, len(disclosures))
	for _, disclosure := range disclosures {
		digest, err := disclosure.Digest(alg)
		if err != nil {
			return err
		}
		digests = append(digests, digest)
	}
	if p.RedactedKeys == nil {
		p.RedactedKeys = [][]byte{}
	}
	p.RedactedKeys = append(p.RedactedKeys, digests...)
	p.SdAlg = &alg
	return nil
}

// IsRedacted reports whether digest is listed in RedactedKeys.
func (p *SdPayload) IsRedacted(digest []byte) bool {
	return slices.ContainsFunc(p.RedactedKeys, func(candidate []byte) bool {
		return bytes.Equal(candidate, digest)
	})
}

func (p *SdPayload) encode(w *cborwire.Writer) {
	encodeMapRecord(w, p.fields(), p.hints)
}

func decodeSdPayload(r *cborwire.Reader) (SdPayload, error) {
	var payload SdPayload
	hints, err := decodeMapRecord(r, payload.fields())
	if err != nil {
		return SdPayload{}, err
	}
	payload.hints = hints
	return payload, nil
}

func canonicalIntPointer(value *Int) *Int {
	if value == nil {
		return nil
	}
	canonical := value.canonical()
	return &canonical
}

func (p *SdPayload) canonical() SdPayload {
	result := SdPayload{
		Iss:          p.Iss,
		Sub:          p.Sub,
		Aud:          p.Aud,
		Exp:          canonicalIntPointer(p.Exp),
		Nbf:          canonicalIntPointer(p.Nbf),
		Iat:          p.Iat.canonical(),
		Cnonce:       p.Cnonce,
		SdHash:       p.SdHash,
		SdAlg:        canonicalIntPointer(p.SdAlg),
		RedactedKeys: p.RedactedKeys,
		Custom:       p.Custom.canonical(),
	}
	if p.Cnf != nil {
		result.Cnf = p.Cnf.canonical()
	}
	return result
}

func equalOptional[T any](a, b *T, equal func(T, T) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equal(*a, *b)
}

func equalBytesOptional(a, b []byte) bool {
	return (a == nil) == (b == nil) && bytes.Equal(a, b)
}

// Equal reports whether both payloads hold equal claims, regardless of
// wire form.
func (p *SdPayload) Equal(other *SdPayload) bool {
	stringEqual := func(a, b string) bool { return a == b }
	cnfEqual := (p.Cnf == nil) == (other.Cnf == nil) && p.Cnf.Equal(other.Cnf)
	redactedEqual := (p.RedactedKeys == nil) == (other.RedactedKeys == nil) &&
		slices.EqualFunc(p.RedactedKeys, other.RedactedKeys, bytes.Equal)
	return equalOptional(p.Iss, other.Iss, stringEqual) &&
		equalOptional(p.Sub, other.Sub, stringEqual) &&
		p.Aud == other.Aud &&
		equalOptional(p.Exp, other.Exp, Int.Equal) &&
		equalOptional(p.Nbf, other.Nbf, Int.Equal) &&
		p.Iat.Equal(other.Iat) &&
		equalBytesOptional(p.Cnonce, other.Cnonce) &&
		cnfEqual &&
		equalBytesOptional(p.SdHash, other.SdHash) &&
		equalOptional(p.SdAlg, other.SdAlg, Int.Equal) &&
		redactedEqual &&
		p.Custom.Equal(other.Custom)
}

// MarshalCBOR encodes the claims map. For a decoded payload with no
// changes the result is the original bytes.
func (p *SdPayload) MarshalCBOR() ([]byte, error) {
	return encodeWrapped(p.encode), nil
}

// UnmarshalCBOR decodes a claims map.
func (p *SdPayload) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "SdPayload", decodeSdPayload)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
