// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
	"github.com/bureau-foundation/sdcwt/lib/codec"
)

// placeholder is the one-element array [0] that stood in for extension
// values before they were captured generically.
var placeholder = []byte{0x81, 0x00}

// Value is an opaque extension value: exactly one CBOR data item held
// as its original bytes, together with its outermost major type. A
// decoded Value re-encodes byte for byte. The zero Value encodes as
// the placeholder [0].
type Value struct {
	raw   []byte
	major cborwire.MajorType
}

// NewValue encodes v with Core Deterministic Encoding.
func NewValue(v any) (Value, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return Value{}, fmt.Errorf("sdcwt: encode value: %w", err)
	}
	return Value{raw: data, major: cborwire.MajorType(data[0] >> 5)}, nil
}

// RawValue wraps pre-encoded CBOR. data must hold exactly one
// well-formed data item; it is copied.
func RawValue(data []byte) (Value, error) {
	if err := codec.Wellformed(data); err != nil {
		return Value{}, fmt.Errorf("sdcwt: raw value: %w", err)
	}
	return Value{raw: bytes.Clone(data), major: cborwire.MajorType(data[0] >> 5)}, nil
}

// PlaceholderValue returns the one-element array [0].
func PlaceholderValue() Value {
	return Value{raw: bytes.Clone(placeholder), major: cborwire.MajorArray}
}

// IsZero reports whether v was never set.
func (v Value) IsZero() bool {
	return v.raw == nil
}

// Bytes returns the encoded item. The result must not be modified.
func (v Value) Bytes() []byte {
	if v.raw == nil {
		return placeholder
	}
	return v.raw
}

// MajorType returns the major type of the outermost item.
func (v Value) MajorType() cborwire.MajorType {
	if v.raw == nil {
		return cborwire.MajorArray
	}
	return v.major
}

// Decode unmarshals the item into target with lib/codec.
func (v Value) Decode(target any) error {
	return codec.Unmarshal(v.Bytes(), target)
}

// Interface decodes the item into generic JSON-compatible Go values.
func (v Value) Interface() (any, error) {
	return codec.UnmarshalAny(v.Bytes())
}

// Diagnostic returns the item in CBOR diagnostic notation.
func (v Value) Diagnostic() string {
	diagnostic, err := codec.Diagnose(v.Bytes())
	if err != nil {
		return fmt.Sprintf("h'%x'", v.Bytes())
	}
	return diagnostic
}

// ExpectPlaceholder fails with a FixedValueMismatchFailure unless v is
// the placeholder [0]. Tokens produced before extension values were
// captured generically carry only placeholders.
func (v Value) ExpectPlaceholder() error {
	if bytes.Equal(v.Bytes(), placeholder) {
		return nil
	}
	return &FixedValueMismatchFailure{Found: v.Diagnostic(), Expected: "[0]"}
}

// Equal reports whether v and other encode identically.
func (v Value) Equal(other Value) bool {
	return bytes.Equal(v.Bytes(), other.Bytes())
}

// canonical re-encodes the item with Core Deterministic Encoding. An
// item that does not survive a generic decode is left as it is.
func (v Value) canonical() Value {
	if v.raw == nil {
		return v
	}
	data, err := codec.Canonicalize(v.raw)
	if err != nil {
		return v
	}
	return Value{raw: data, major: cborwire.MajorType(data[0] >> 5)}
}

func (v Value) encode(w *cborwire.Writer) {
	w.WriteRaw(v.Bytes())
}

func decodeValue(r *cborwire.Reader) (Value, error) {
	start := r.Offset()
	raw, major, err := r.ReadRawItem()
	if err != nil {
		return Value{}, err
	}
	if err := codec.Wellformed(raw); err != nil {
		if seekErr := r.Seek(start); seekErr != nil {
			return Value{}, seekErr
		}
		return Value{}, fmt.Errorf("value at offset %d: %w", start, err)
	}
	return Value{raw: raw, major: major}, nil
}

// MarshalCBOR returns the item's bytes.
func (v Value) MarshalCBOR() ([]byte, error) {
	return bytes.Clone(v.Bytes()), nil
}

// UnmarshalCBOR captures a single data item.
func (v *Value) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "Value", decodeValue)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
