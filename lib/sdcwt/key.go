// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"strconv"
	"strings"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// intOrText is the shared body of the two shape-discriminated unions,
// Key and IntOrText.
type intOrText struct {
	isText       bool
	integer      Int
	text         string
	textEncoding StringEncoding
}

// IsText reports whether the value is the text alternative.
func (c intOrText) IsText() bool {
	return c.isText
}

// Int returns the integer alternative.
func (c intOrText) Int() (Int, bool) {
	return c.integer, !c.isText
}

// Text returns the text alternative.
func (c intOrText) Text() (string, bool) {
	return c.text, c.isText
}

// String returns the integer in base 10 or the text quoted.
func (c intOrText) String() string {
	if c.isText {
		return strconv.Quote(c.text)
	}
	return c.integer.String()
}

// compare orders every integer before every text string; integers by
// value and text strings bytewise.
func (c intOrText) compare(other intOrText) int {
	switch {
	case !c.isText && other.isText:
		return -1
	case c.isText && !other.isText:
		return 1
	case c.isText:
		return strings.Compare(c.text, other.text)
	default:
		return c.integer.Compare(other.integer)
	}
}

func (c intOrText) equal(other intOrText) bool {
	return c.compare(other) == 0
}

// identity is a string unique to the logical value, used to index
// maps by key.
func (c intOrText) identity() string {
	if c.isText {
		return "t" + c.text
	}
	return "i" + c.integer.String()
}

func (c intOrText) canonical() intOrText {
	return intOrText{isText: c.isText, integer: c.integer.canonical(), text: c.text}
}

func (c intOrText) encode(w *cborwire.Writer) {
	if c.isText {
		writeText(w, c.text, c.textEncoding)
		return
	}
	c.integer.encode(w)
}

// decodeIntOrText resolves the union from the next item's major type.
// Integer types decode as Int. Arrays and maps also route to the Int
// alternative, which rejects them; the failure is attributed to "Int".
// Text decodes as text. Any other type matches no alternative.
func decodeIntOrText(r *cborwire.Reader) (intOrText, error) {
	major, err := r.PeekType()
	if err != nil {
		return intOrText{}, err
	}
	switch major {
	case cborwire.MajorUint, cborwire.MajorNint, cborwire.MajorArray, cborwire.MajorMap:
		integer, err := decodeInt(r)
		if err != nil {
			return intOrText{}, annotate(err, "Int")
		}
		return intOrText{integer: integer}, nil
	case cborwire.MajorText:
		text, encoding, err := readText(r)
		if err != nil {
			return intOrText{}, annotate(err, "text")
		}
		return intOrText{isText: true, text: text, textEncoding: encoding}, nil
	default:
		return intOrText{}, &NoVariantMatchedFailure{Found: major}
	}
}

// Key is a map key: an Int or a text string. Keys compare by logical
// value; the wire form of a decoded key is kept for re-encoding.
type Key struct {
	intOrText
}

// IntKey returns an integer key.
func IntKey(value Int) Key {
	return Key{intOrText{integer: value}}
}

// UintKey returns the non-negative integer key with the given value.
func UintKey(value uint64) Key {
	return IntKey(NewUint(value))
}

// TextKey returns a text key.
func TextKey(text string) Key {
	return Key{intOrText{isText: true, text: text}}
}

// customKey is the literal key of every record's extension catch-all.
var customKey = TextKey("custom")

// Compare orders keys: every integer key before every text key,
// integers by value, text bytewise.
func (k Key) Compare(other Key) int {
	return k.compare(other.intOrText)
}

// Equal reports whether k and other are the same key, regardless of
// wire form.
func (k Key) Equal(other Key) bool {
	return k.equal(other.intOrText)
}

func decodeKey(r *cborwire.Reader) (Key, error) {
	value, err := decodeIntOrText(r)
	if err != nil {
		return Key{}, err
	}
	return Key{value}, nil
}

// MarshalCBOR encodes the key.
func (k Key) MarshalCBOR() ([]byte, error) {
	w := cborwire.NewWriter()
	k.encode(w)
	return w.Bytes(), nil
}

// UnmarshalCBOR decodes a single integer or text key.
func (k *Key) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "Key", decodeKey)
	if err != nil {
		return err
	}
	*k = decoded
	return nil
}

// IntOrText is the index of a salted claim: the claim's integer or
// text key in the claims map it was disclosed from.
type IntOrText struct {
	intOrText
}

// IntIndex returns an integer index.
func IntIndex(value Int) IntOrText {
	return IntOrText{intOrText{integer: value}}
}

// TextIndex returns a text index.
func TextIndex(text string) IntOrText {
	return IntOrText{intOrText{isText: true, text: text}}
}

// Equal reports whether v and other hold the same value.
func (v IntOrText) Equal(other IntOrText) bool {
	return v.equal(other.intOrText)
}

func decodeIndex(r *cborwire.Reader) (IntOrText, error) {
	value, err := decodeIntOrText(r)
	if err != nil {
		return IntOrText{}, err
	}
	return IntOrText{value}, nil
}

// MarshalCBOR encodes the value.
func (v IntOrText) MarshalCBOR() ([]byte, error) {
	w := cborwire.NewWriter()
	v.encode(w)
	return w.Bytes(), nil
}

// UnmarshalCBOR decodes a single integer or text string.
func (v *IntOrText) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "IntOrText", decodeIndex)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
