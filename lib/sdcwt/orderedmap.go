// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"iter"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

type mapEntry struct {
	key   Key
	value Value
}

// OrderedMap maps keys to extension values and remembers insertion
// order, which is also encoding order. A decoded map keeps its entries
// in wire order and its length encoding. The zero value and a nil
// *OrderedMap are both empty maps ready to read; use NewOrderedMap
// before writing through a nil pointer.
type OrderedMap struct {
	entries []mapEntry
	index   map[string]int
	length  LenEncoding
}

// NewOrderedMap returns an empty map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// IsEmpty reports whether the map has no entries.
func (m *OrderedMap) IsEmpty() bool {
	return m.Len() == 0
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key Key) (Value, bool) {
	if m == nil || m.index == nil {
		return Value{}, false
	}
	position, ok := m.index[key.identity()]
	if !ok {
		return Value{}, false
	}
	return m.entries[position].value, true
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (m *OrderedMap) Set(key Key, value Value) {
	if position, ok := m.lookup(key); ok {
		m.entries[position].value = value
		return
	}
	m.append(key, value)
}

// Insert appends a new entry, failing with a DuplicateKeyFailure if
// key is already present.
func (m *OrderedMap) Insert(key Key, value Value) error {
	if _, ok := m.lookup(key); ok {
		return &DuplicateKeyFailure{Key: key}
	}
	m.append(key, value)
	return nil
}

// Delete removes key and reports whether it was present. The order of
// the remaining entries is unchanged.
func (m *OrderedMap) Delete(key Key) bool {
	position, ok := m.lookup(key)
	if !ok {
		return false
	}
	m.entries = append(m.entries[:position], m.entries[position+1:]...)
	delete(m.index, key.identity())
	for i := position; i < len(m.entries); i++ {
		m.index[m.entries[i].key.identity()] = i
	}
	return true
}

// Keys returns the keys in order.
func (m *OrderedMap) Keys() []Key {
	keys := make([]Key, 0, m.Len())
	for key := range m.All() {
		keys = append(keys, key)
	}
	return keys
}

// All iterates over the entries in order.
func (m *OrderedMap) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		if m == nil {
			return
		}
		for _, entry := range m.entries {
			if !yield(entry.key, entry.value) {
				return
			}
		}
	}
}

// Equal reports whether both maps hold equal entries in the same
// order.
func (m *OrderedMap) Equal(other *OrderedMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := range m.Len() {
		a, b := m.entries[i], other.entries[i]
		if !a.key.Equal(b.key) || !a.value.Equal(b.value) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the map, wire form included.
func (m *OrderedMap) Clone() *OrderedMap {
	clone := NewOrderedMap()
	if m == nil {
		return clone
	}
	clone.length = m.length
	for _, entry := range m.entries {
		clone.append(entry.key, entry.value)
	}
	return clone
}

func (m *OrderedMap) lookup(key Key) (int, bool) {
	if m == nil || m.index == nil {
		return 0, false
	}
	position, ok := m.index[key.identity()]
	return position, ok
}

func (m *OrderedMap) append(key Key, value Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[key.identity()] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, value: value})
}

// canonical returns a copy without wire hints on the map, its keys, or
// its values.
func (m *OrderedMap) canonical() *OrderedMap {
	clone := NewOrderedMap()
	for key, value := range m.All() {
		clone.append(Key{key.canonical()}, value.canonical())
	}
	return clone
}

func (m *OrderedMap) encode(w *cborwire.Writer) {
	var length LenEncoding
	if m != nil {
		length = m.length
	}
	w.WriteMapHeader(length.wire(m.Len()))
	for key, value := range m.All() {
		key.encode(w)
		value.encode(w)
	}
	length.end(w)
}

func decodeOrderedMap(r *cborwire.Reader) (*OrderedMap, error) {
	length, err := r.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	result := &OrderedMap{length: lenEncodingOf(length)}
	tracker := newReadLen(length)
	for {
		more, err := tracker.next(r)
		if err != nil {
			return nil, err
		}
		if !more {
			return result, nil
		}

		major, err := r.PeekType()
		if err != nil {
			return nil, tracker.truncated(err, uint64(result.Len()))
		}
		if major != cborwire.MajorUint && major != cborwire.MajorNint && major != cborwire.MajorText {
			return nil, &UnexpectedKeyTypeFailure{Found: major}
		}
		key, err := decodeKey(r)
		if err != nil {
			return nil, tracker.truncated(err, uint64(result.Len()))
		}
		value, err := decodeValue(r)
		if err != nil {
			return nil, annotate(tracker.truncated(err, uint64(result.Len())), key.String())
		}
		if err := result.Insert(key, value); err != nil {
			return nil, err
		}
	}
}

// MarshalCBOR encodes the map.
func (m *OrderedMap) MarshalCBOR() ([]byte, error) {
	w := cborwire.NewWriter()
	m.encode(w)
	return w.Bytes(), nil
}

// UnmarshalCBOR decodes a map of integer or text keys to arbitrary
// values.
func (m *OrderedMap) UnmarshalCBOR(data []byte) error {
	decoded, err := unmarshalWhole(data, "OrderedMap", decodeOrderedMap)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
