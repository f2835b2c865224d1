// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// Every schema record is encoded by one of two drivers, parameterised
// by a field table the record builds over its own fields:
//
//   - array records write a fixed number of positional fields;
//   - map records write keyed fields, some optional, with the "custom"
//     catch-all always present.
//
// Field tables close over the record they belong to, so the same table
// serves encoding (reading the fields) and decoding (assigning them).

// arrayField is one positional element of an array record.
type arrayField struct {
	name   string
	encode func(w *cborwire.Writer)
	decode func(r *cborwire.Reader) error
}

func encodeArrayRecord(w *cborwire.Writer, fields []arrayField, length LenEncoding) {
	w.WriteArrayHeader(length.wire(len(fields)))
	for _, field := range fields {
		field.encode(w)
	}
	length.end(w)
}

// decodeArrayRecord reads the array head, checks the declared length
// against the field count before decoding any field, decodes the fields
// in order, and consumes the break of an indefinite array. It returns
// the length encoding seen on the wire.
func decodeArrayRecord(r *cborwire.Reader, fields []arrayField) (LenEncoding, error) {
	length, err := r.ReadArrayHeader()
	if err != nil {
		return LenEncoding{}, err
	}
	tracker := newReadLen(length)
	if err := tracker.readElems(uint64(len(fields))); err != nil {
		return LenEncoding{}, err
	}
	if err := tracker.finish(); err != nil {
		return LenEncoding{}, err
	}
	for position, field := range fields {
		if err := tracker.element(r, uint64(position)); err != nil {
			return LenEncoding{}, err
		}
		if err := field.decode(r); err != nil {
			return LenEncoding{}, annotate(tracker.truncated(err, uint64(position)), field.name)
		}
	}
	if err := tracker.end(r); err != nil {
		return LenEncoding{}, err
	}
	return lenEncodingOf(length), nil
}

// mapField is one keyed field of a map record.
type mapField struct {
	key      Key
	name     string
	required bool
	// present reports whether an optional field is set. It is nil for
	// required fields.
	present func() bool
	encode  func(w *cborwire.Writer)
	decode  func(r *cborwire.Reader) error
}

func (f mapField) isPresent() bool {
	return f.present == nil || f.present()
}

// mapHints is the wire form of a decoded map record: its length
// encoding, the order its fields appeared in (as indexes into the
// field table), and each key exactly as it was written.
type mapHints struct {
	length LenEncoding
	order  []int
	keys   map[int]Key
}

// encodeOrder returns the field indexes to write. Fields keep their
// decoded order; fields set since decoding follow in declared order.
// A freshly built record has no decoded order and is written entirely
// in declared order.
func (h mapHints) encodeOrder(fields []mapField) []int {
	order := make([]int, 0, len(fields))
	placed := make([]bool, len(fields))
	for _, index := range h.order {
		if index < len(fields) && !placed[index] && fields[index].isPresent() {
			order = append(order, index)
			placed[index] = true
		}
	}
	for index, field := range fields {
		if !placed[index] && field.isPresent() {
			order = append(order, index)
		}
	}
	return order
}

func encodeMapRecord(w *cborwire.Writer, fields []mapField, hints mapHints) {
	order := hints.encodeOrder(fields)
	w.WriteMapHeader(hints.length.wire(len(order)))
	for _, index := range order {
		key, ok := hints.keys[index]
		if !ok {
			key = fields[index].key
		}
		key.encode(w)
		fields[index].encode(w)
	}
	hints.length.end(w)
}

// decodeMapRecord reads a map record. Integer keys and the text key
// "custom" dispatch to the matching field; anything else is an unknown
// key. After the map is exhausted every required field must have been
// seen, and the first missing one in declared order is reported by key.
func decodeMapRecord(r *cborwire.Reader, fields []mapField) (mapHints, error) {
	length, err := r.ReadMapHeader()
	if err != nil {
		return mapHints{}, err
	}
	hints := mapHints{length: lenEncodingOf(length), keys: make(map[int]Key)}
	tracker := newReadLen(length)
	seen := make([]bool, len(fields))
	for {
		more, err := tracker.next(r)
		if err != nil {
			return mapHints{}, err
		}
		if !more {
			break
		}

		key, err := readRecordKey(r)
		if err != nil {
			return mapHints{}, tracker.truncated(err, uint64(len(hints.order)))
		}
		index := slices.IndexFunc(fields, func(field mapField) bool { return field.key.Equal(key) })
		if index < 0 {
			return mapHints{}, &UnknownKeyFailure{Key: key}
		}
		if seen[index] {
			return mapHints{}, &DuplicateKeyFailure{Key: key}
		}
		seen[index] = true

		if err := fields[index].decode(r); err != nil {
			return mapHints{}, annotate(tracker.truncated(err, uint64(len(hints.order))), fields[index].name)
		}
		hints.order = append(hints.order, index)
		hints.keys[index] = key
	}

	for index, field := range fields {
		if field.required && !seen[index] {
			return mapHints{}, &MandatoryFieldMissingFailure{Key: field.key}
		}
	}
	if err := tracker.finish(); err != nil {
		return mapHints{}, err
	}
	return hints, nil
}

// readRecordKey reads a record map key: an integer, or text. Other
// major types are rejected before any decoding.
func readRecordKey(r *cborwire.Reader) (Key, error) {
	major, err := r.PeekType()
	if err != nil {
		return Key{}, err
	}
	switch major {
	case cborwire.MajorUint, cborwire.MajorNint, cborwire.MajorText:
		return decodeKey(r)
	default:
		return Key{}, &UnexpectedKeyTypeFailure{Found: major}
	}
}

// encodeList writes a homogeneous array of count elements.
func encodeList(w *cborwire.Writer, length LenEncoding, count int, element func(w *cborwire.Writer, index int)) {
	w.WriteArrayHeader(length.wire(count))
	for index := range count {
		element(w, index)
	}
	length.end(w)
}

// decodeList reads a homogeneous array, calling element once per item.
// Element errors are annotated with the item's index.
func decodeList(r *cborwire.Reader, element func(r *cborwire.Reader) error) (LenEncoding, error) {
	length, err := r.ReadArrayHeader()
	if err != nil {
		return LenEncoding{}, err
	}
	tracker := newReadLen(length)
	for index := uint64(0); ; index++ {
		more, err := tracker.next(r)
		if err != nil {
			return LenEncoding{}, err
		}
		if !more {
			break
		}
		if err := element(r); err != nil {
			return LenEncoding{}, annotate(tracker.truncated(err, index), fmt.Sprintf("[%d]", index))
		}
	}
	return lenEncodingOf(length), tracker.finish()
}

// unmarshalWhole decodes one top-level item that must span all of data.
func unmarshalWhole[T any](data []byte, name string, decode func(r *cborwire.Reader) (T, error)) (T, error) {
	var zero T
	r := cborwire.NewReader(data)
	value, err := decode(r)
	if err != nil {
		return zero, annotate(err, name)
	}
	if !r.Done() {
		return zero, annotate(fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingBytes, r.Remaining(), r.Offset()), name)
	}
	return value, nil
}

// decodeWrapped decodes a message carried inside a byte string. The
// inner message gets its own reader over exactly the wrapped bytes and
// must consume all of them.
func decodeWrapped[T any](data []byte, name string, decode func(r *cborwire.Reader) (T, error)) (T, error) {
	return unmarshalWhole(data, name, decode)
}

// encodeWrapped encodes a message and returns its bytes for wrapping.
func encodeWrapped(encode func(w *cborwire.Writer)) []byte {
	w := cborwire.NewWriter()
	encode(w)
	return w.Bytes()
}
