// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// SaltLength is the exact length of a disclosure salt.
const SaltLength = 16

func checkSalt(salt []byte) error {
	if len(salt) != SaltLength {
		return &RangeCheckFailure{Found: len(salt), Min: SaltLength, Max: SaltLength}
	}
	return nil
}

// SaltedClaimItem discloses one claim of a map: [salt, index, value],
// where index is the claim's key.
type SaltedClaimItem struct {
	Salt  []byte
	Index IntOrText
	Value Value

	length       LenEncoding
	saltEncoding StringEncoding
}

// NewSaltedClaimItem returns a claim disclosure. The salt must be
// exactly 16 bytes.
func NewSaltedClaimItem(salt []byte, index IntOrText, value Value) (SaltedClaimItem, error) {
	if err := checkSalt(salt); err != nil {
		return SaltedClaimItem{}, annotate(annotate(err, "salt"), "SaltedClaimItem")
	}
	return SaltedClaimItem{Salt: bytes.Clone(salt), Index: index, Value: value}, nil
}

func (item *SaltedClaimItem) fields() []arrayField {
	return []arrayField{
		{
			name:   "salt",
			encode: func(w *cborwire.Writer) { writeBytes(w, item.Salt, item.saltEncoding) },
			decode: func(r *cborwire.Reader) (err error) {
				item.Salt, item.saltEncoding, err = readSalt(r)
				return err
			},
		},
		{
			name:   "index",
			encode: func(w *cborwire.Writer) { item.Index.encode(w) },
			decode: func(r *cborwire.Reader) (err error) {
				item.Index, err = decodeIndex(r)
				return err
			},
		},
		{
			name:   "value",
			encode: func(w *cborwire.Writer) { item.Value.encode(w) },
			decode: func(r *cborwire.Reader) (err error) {
				item.Value, err = decodeValue(r)
				return err
			},
		},
	}
}

func (item SaltedClaimItem) encode(w *cborwire.Writer) {
	encodeArrayRecord(w, item.fields(), item.length)
}

func decodeSaltedClaimItem(r *cborwire.Reader) (SaltedClaimItem, error) {
	var item SaltedClaimItem
	length, err := decodeArrayRecord(r, item.fields())
	if err != nil {
		return SaltedClaimItem{}, err
	}
	item.length = length
	return item, nil
}

func (item SaltedClaimItem) canonical() SaltedClaimItem {
	return SaltedClaimItem{
		Salt:  item.Salt,
		Index: IntOrText{item.Index.canonical()},
		Value: item.Value.canonical(),
	}
}

// Equal reports whether both disclosures hold the same salt, index, and
// value.
func (item SaltedClaimItem) Equal(other SaltedClaimItem) bool {
	return bytes.Equal(item.Salt, other.Salt) && item.Index.Equal(other.Index) && item.Value.Equal(other.Value)
}

// MarshalCBOR encodes the disclosure array.
func (item SaltedClaimItem) MarshalCBOR() ([]byte, error) {
	return encodeWrapped(item.encode), nil
}

// UnmarshalCBOR decodes a disclosure array.
func (item *SaltedClaimItem) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "SaltedClaimItem", decodeSaltedClaimItem)
	if err != nil {
		return err
	}
	*item = decoded
	return nil
}

// SaltedElementItem discloses one element of an array: [salt, value].
type SaltedElementItem struct {
	Salt  []byte
	Value Value

	length       LenEncoding
	saltEncoding StringEncoding
}

// NewSaltedElementItem returns an array element disclosure. The salt
// must be exactly 16 bytes.
func NewSaltedElementItem(salt []byte, value Value) (SaltedElementItem, error) {
	if err := checkSalt(salt); err != nil {
		return SaltedElementItem{}, annotate(annotate(err, "salt"), "SaltedElementItem")
	}
	return SaltedElementItem{Salt: bytes.Clone(salt), Value: value}, nil
}

func (item *SaltedElementItem) fields() []arrayField {
	return []arrayField{
		{
			name:   "salt",
			encode: func(w *cborwire.Writer) { writeBytes(w, item.Salt, item.saltEncoding) },
			decode: func(r *cborwire.Reader) (err error) {
				item.Salt, item.saltEncoding, err = readSalt(r)
				return err
			},
		},
		{
			name:   "value",
			encode: func(w *cborwire.Writer) { item.Value.encode(w) },
			decode: func(r *cborwire.Reader) (err error) {
				item.Value, err = decodeValue(r)
				return err
			},
		},
	}
}

func (item SaltedElementItem) encode(w *cborwire.Writer) {
	encodeArrayRecord(w, item.fields(), item.length)
}

func decodeSaltedElementItem(r *cborwire.Reader) (SaltedElementItem, error) {
	var item SaltedElementItem
	length, err := decodeArrayRecord(r, item.fields())
	if err != nil {
		return SaltedElementItem{}, err
	}
	item.length = length
	return item, nil
}

func (item SaltedElementItem) canonical() SaltedElementItem {
	return SaltedElementItem{Salt: item.Salt, Value: item.Value.canonical()}
}

// Equal reports whether both disclosures hold the same salt and value.
func (item SaltedElementItem) Equal(other SaltedElementItem) bool {
	return bytes.Equal(item.Salt, other.Salt) && item.Value.Equal(other.Value)
}

// MarshalCBOR encodes the disclosure array.
func (item SaltedElementItem) MarshalCBOR() ([]byte, error) {
	return encodeWrapped(item.encode), nil
}

// UnmarshalCBOR decodes a disclosure array.
func (item *SaltedElementItem) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "SaltedElementItem", decodeSaltedElementItem)
	if err != nil {
		return err
	}
	*item = decoded
	return nil
}

func readSalt(r *cborwire.Reader) ([]byte, StringEncoding, error) {
	salt, encoding, err := readBytes(r)
	if err != nil {
		return nil, StringEncoding{}, err
	}
	if err := checkSalt(salt); err != nil {
		return nil, StringEncoding{}, err
	}
	return salt, encoding, nil
}

// SaltedKind identifies the alternative held by a Salted.
type SaltedKind int

const (
	SaltedClaimKind SaltedKind = iota + 1
	SaltedElementKind
)

// String returns the variant name.
func (k SaltedKind) String() string {
	switch k {
	case SaltedClaimKind:
		return "SaltedClaim"
	case SaltedElementKind:
		return "SaltedElement"
	default:
		return fmt.Sprintf("SaltedKind(%d)", int(k))
	}
}

// Salted is a disclosure: either a salted claim or a salted array
// element. On the wire it is a byte string wrapping the item's own
// encoding; that byte string is what a redacted digest covers. Nothing
// on the wire names the alternative, so decoding tries SaltedClaim and
// then SaltedElement.
type Salted struct {
	kind    SaltedKind
	claim   SaltedClaimItem
	element SaltedElementItem
	wrapper StringEncoding
}

// NewSaltedClaim wraps a claim disclosure.
func NewSaltedClaim(item SaltedClaimItem) Salted {
	return Salted{kind: SaltedClaimKind, claim: item}
}

// NewSaltedElement wraps an array element disclosure.
func NewSaltedElement(item SaltedElementItem) Salted {
	return Salted{kind: SaltedElementKind, element: item}
}

// Kind returns the alternative held.
func (s Salted) Kind() SaltedKind {
	return s.kind
}

// Claim returns the claim disclosure, if that is the alternative held.
func (s Salted) Claim() (SaltedClaimItem, bool) {
	return s.claim, s.kind == SaltedClaimKind
}

// Element returns the element disclosure, if that is the alternative
// held.
func (s Salted) Element() (SaltedElementItem, bool) {
	return s.element, s.kind == SaltedElementKind
}

// Equal reports whether both hold the same alternative with equal
// contents.
func (s Salted) Equal(other Salted) bool {
	if s.kind != other.kind {
		return false
	}
	if s.kind == SaltedClaimKind {
		return s.claim.Equal(other.claim)
	}
	return s.element.Equal(other.element)
}

// Wrapped returns the item encoding carried inside the byte string.
func (s Salted) Wrapped() []byte {
	if s.kind == SaltedClaimKind {
		return encodeWrapped(s.claim.encode)
	}
	return encodeWrapped(s.element.encode)
}

// Digest hashes the disclosure as it appears on the wire, byte string
// head included, with the COSE hash algorithm alg.
func (s Salted) Digest(alg Int) ([]byte, error) {
	id, err := alg.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHashAlg, alg)
	}
	w := cborwire.NewWriter()
	s.encode(w)
	digest, err := binhash.Sum(binhash.Algorithm(id), w.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedHashAlg, err)
	}
	return digest, nil
}

func (s Salted) canonical() Salted {
	return Salted{kind: s.kind, claim: s.claim.canonical(), element: s.element.canonical()}
}

func (s Salted) encode(w *cborwire.Writer) {
	writeBytes(w, s.Wrapped(), s.wrapper)
}

func decodeSalted(r *cborwire.Reader) (Salted, error) {
	return tryVariants(r,
		variant[Salted]{
			name: SaltedClaimKind.String(),
			decode: func(r *cborwire.Reader) (Salted, error) {
				data, wrapper, err := readBytes(r)
				if err != nil {
					return Salted{}, err
				}
				item, err := decodeWrapped(data, "SaltedClaimItem", decodeSaltedClaimItem)
				if err != nil {
					return Salted{}, err
				}
				return Salted{kind: SaltedClaimKind, claim: item, wrapper: wrapper}, nil
			},
		},
		variant[Salted]{
			name: SaltedElementKind.String(),
			decode: func(r *cborwire.Reader) (Salted, error) {
				data, wrapper, err := readBytes(r)
				if err != nil {
					return Salted{}, err
				}
				item, err := decodeWrapped(data, "SaltedElementItem", decodeSaltedElementItem)
				if err != nil {
					return Salted{}, err
				}
				return Salted{kind: SaltedElementKind, element: item, wrapper: wrapper}, nil
			},
		},
	)
}

// MarshalCBOR encodes the wrapping byte string.
func (s Salted) MarshalCBOR() ([]byte, error) {
	if s.kind == 0 {
		return nil, fmt.Errorf("sdcwt: marshal empty Salted")
	}
	return encodeWrapped(s.encode), nil
}

// UnmarshalCBOR decodes a wrapped disclosure.
func (s *Salted) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "Salted", decodeSalted)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
