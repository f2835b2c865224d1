// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// TagCOSESign1 is the CBOR tag of the envelope.
const TagCOSESign1 = 18

// SdCwt is the signed envelope: tag 18 around
// [protected, unprotected, payload, signature], where protected and
// payload are byte strings wrapping their own encodings.
//
// A decoded SdCwt keeps the exact protected and payload bytes it was
// decoded from, and encodes those bytes rather than re-serialising
// Protected and Payload, because a signature covers the bytes as
// transmitted. Call Rebuild after changing Protected or Payload.
type SdCwt struct {
	Protected   SdProtected
	Unprotected Unprotected
	Payload     SdPayload
	Signature   []byte

	wire envelopeWire
}

// envelopeWire is the wire form of a decoded envelope.
type envelopeWire struct {
	tagWidth          cborwire.Sz
	length            LenEncoding
	protectedEncoding StringEncoding
	payloadEncoding   StringEncoding
	signatureEncoding StringEncoding
	// The wrapped bytes as decoded; nil once rebuilt.
	protected []byte
	payload   []byte
}

// New returns an unsigned envelope with an empty signature.
func New(protected SdProtected, unprotected Unprotected, payload SdPayload) *SdCwt {
	return &SdCwt{
		Protected:   protected,
		Unprotected: unprotected,
		Payload:     payload,
		Signature:   []byte{},
	}
}

// ProtectedBytes returns the protected header bytes the signature
// covers: the bytes as decoded, or the encoding of Protected for a
// built or rebuilt envelope. The result is a copy.
func (c *SdCwt) ProtectedBytes() []byte {
	return bytes.Clone(c.protectedBytes())
}

// PayloadBytes returns the payload bytes the signature covers: the
// bytes as decoded, or the encoding of Payload for a built or rebuilt
// envelope. The result is a copy.
func (c *SdCwt) PayloadBytes() []byte {
	return bytes.Clone(c.payloadBytes())
}

func (c *SdCwt) protectedBytes() []byte {
	if c.wire.protected != nil {
		return c.wire.protected
	}
	return encodeWrapped(c.Protected.encode)
}

func (c *SdCwt) payloadBytes() []byte {
	if c.wire.payload != nil {
		return c.wire.payload
	}
	return encodeWrapped(c.Payload.encode)
}

// Rebuild drops the retained protected and payload bytes so the next
// encoding serialises Protected and Payload. Wire forms recorded inside
// them are still honoured.
func (c *SdCwt) Rebuild() {
	c.wire.protected = nil
	c.wire.payload = nil
}

// IsRebuilt reports whether the envelope serialises Protected and
// Payload rather than retained bytes.
func (c *SdCwt) IsRebuilt() bool {
	return c.wire.protected == nil && c.wire.payload == nil
}

// Canonical returns a copy of the envelope with every wire hint
// dropped, recursively, so that it encodes in shortest form.
func (c *SdCwt) Canonical() *SdCwt {
	return &SdCwt{
		Protected:   c.Protected.canonical(),
		Unprotected: c.Unprotected.canonical(),
		Payload:     c.Payload.canonical(),
		Signature:   c.Signature,
	}
}

// Equal reports whether both envelopes hold equal values, regardless of
// wire form.
func (c *SdCwt) Equal(other *SdCwt) bool {
	return c.Protected.Equal(&other.Protected) &&
		c.Unprotected.Equal(&other.Unprotected) &&
		c.Payload.Equal(&other.Payload) &&
		bytes.Equal(c.Signature, other.Signature)
}

func (c *SdCwt) fields() []arrayField {
	return []arrayField{
		{
			name: "protected",
			encode: func(w *cborwire.Writer) {
				writeBytes(w, c.protectedBytes(), c.wire.protectedEncoding)
			},
			decode: func(r *cborwire.Reader) error {
				data, encoding, err := readBytes(r)
				if err != nil {
					return err
				}
				header, err := decodeWrapped(data, "SdProtected", decodeSdProtected)
				if err != nil {
					return err
				}
				c.Protected, c.wire.protected, c.wire.protectedEncoding = header, data, encoding
				return nil
			},
		},
		{
			name:   "unprotected",
			encode: func(w *cborwire.Writer) { c.Unprotected.encode(w) },
			decode: func(r *cborwire.Reader) error {
				header, err := decodeUnprotected(r)
				if err != nil {
					return annotate(err, "Unprotected")
				}
				c.Unprotected = header
				return nil
			},
		},
		{
			name: "payload",
			encode: func(w *cborwire.Writer) {
				writeBytes(w, c.payloadBytes(), c.wire.payloadEncoding)
			},
			decode: func(r *cborwire.Reader) error {
				data, encoding, err := readBytes(r)
				if err != nil {
					return err
				}
				payload, err := decodeWrapped(data, "SdPayload", decodeSdPayload)
				if err != nil {
					return err
				}
				c.Payload, c.wire.payload, c.wire.payloadEncoding = payload, data, encoding
				return nil
			},
		},
		{
			name:   "signature",
			encode: func(w *cborwire.Writer) { writeBytes(w, c.Signature, c.wire.signatureEncoding) },
			decode: func(r *cborwire.Reader) (err error) {
				c.Signature, c.wire.signatureEncoding, err = readBytes(r)
				return err
			},
		},
	}
}

func (c *SdCwt) encode(w *cborwire.Writer) {
	w.WriteTag(TagCOSESign1, c.wire.tagWidth)
	encodeArrayRecord(w, c.fields(), c.wire.length)
}

func decodeSdCwt(r *cborwire.Reader) (*SdCwt, error) {
	tag, width, err := r.ReadTag()
	if err != nil {
		return nil, err
	}
	if tag != TagCOSESign1 {
		return nil, &TagMismatchFailure{Found: tag, Expected: TagCOSESign1}
	}
	token := &SdCwt{}
	length, err := decodeArrayRecord(r, token.fields())
	if err != nil {
		return nil, err
	}
	token.wire.tagWidth = width
	token.wire.length = length
	return token, nil
}

// Marshal encodes the envelope.
func (c *SdCwt) Marshal() []byte {
	return encodeWrapped(c.encode)
}

// MarshalCBOR encodes the envelope. A decoded envelope that was not
// rebuilt encodes to exactly the bytes it was decoded from.
func (c *SdCwt) MarshalCBOR() ([]byte, error) {
	return c.Marshal(), nil
}

// UnmarshalCBOR decodes a tagged envelope. On error c is unchanged.
func (c *SdCwt) UnmarshalCBOR(data []byte) error {
	decoded, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

// Unmarshal decodes a tagged envelope that must span all of data.
func Unmarshal(data []byte) (*SdCwt, error) {
	return unmarshalWhole(data, "SdCwt", decodeSdCwt)
}

// IsCanonical reports whether data is an envelope already in shortest
// form: decoding it and encoding it with every wire hint dropped gives
// back the same bytes.
func IsCanonical(data []byte) (bool, error) {
	token, err := Unmarshal(data)
	if err != nil {
		return false, err
	}
	return bytes.Equal(token.Canonical().Marshal(), data), nil
}
