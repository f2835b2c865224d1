// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"bytes"
	"slices"
	"testing"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
	"github.com/bureau-foundation/sdcwt/lib/testutil"
)

func mustValue(t *testing.T, v any) Value {
	t.Helper()
	value, err := NewValue(v)
	if err != nil {
		t.Fatalf("NewValue(%v): %v", v, err)
	}
	return value
}

func TestOrderedMapInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set(TextKey("z"), mustValue(t, 1))
	m.Set(UintKey(5), mustValue(t, 2))
	if err := m.Insert(IntKey(IntFromInt64(-1)), mustValue(t, 3)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	m.Set(TextKey("z"), mustValue(t, 4))

	want := []Key{TextKey("z"), UintKey(5), IntKey(IntFromInt64(-1))}
	if !slices.EqualFunc(m.Keys(), want, Key.Equal) {
		t.Errorf("Keys() = %v, want %v", m.Keys(), want)
	}
	value, ok := m.Get(TextKey("z"))
	if !ok || !value.Equal(mustValue(t, 4)) {
		t.Errorf("Get(z) = %s, %v; want 4", value.Diagnostic(), ok)
	}

	encoded, _ := m.MarshalCBOR()
	if want := testutil.MustHex(t, "a3 61 7a 04 05 02 20 03"); !bytes.Equal(encoded, want) {
		t.Errorf("MarshalCBOR = %x, want %x", encoded, want)
	}

	err := m.Insert(UintKey(5), mustValue(t, 9))
	failure := testutil.RequireErrorAs[*DuplicateKeyFailure](t, err)
	if !failure.Key.Equal(UintKey(5)) {
		t.Errorf("duplicate key = %s, want 5", failure.Key)
	}

	if !m.Delete(TextKey("z")) {
		t.Fatal("Delete(z) reported absent")
	}
	if m.Delete(TextKey("z")) {
		t.Error("second Delete(z) reported present")
	}
	if _, ok := m.Get(IntKey(IntFromInt64(-1))); !ok || m.Len() != 2 {
		t.Errorf("after Delete: Len() = %d, Get(-1) ok = %v", m.Len(), ok)
	}
}

func TestOrderedMapNil(t *testing.T) {
	var m *OrderedMap
	if !m.IsEmpty() || m.Len() != 0 {
		t.Error("nil map is not empty")
	}
	if _, ok := m.Get(UintKey(1)); ok {
		t.Error("Get on nil map found a value")
	}
	encoded, _ := m.MarshalCBOR()
	if !bytes.Equal(encoded, []byte{0xa0}) {
		t.Errorf("nil map encodes as %x, want a0", encoded)
	}
	if !m.Equal(NewOrderedMap()) {
		t.Error("nil map does not equal an empty map")
	}
}

func TestOrderedMapPreservesWireForm(t *testing.T) {
	fixture := testutil.MustHex(t, "bf 18 01 00 63 61 62 63 f5 20 9f ff ff")
	var m OrderedMap
	if err := m.UnmarshalCBOR(fixture); err != nil {
		t.Fatalf("UnmarshalCBOR: %v", err)
	}
	encoded, _ := m.MarshalCBOR()
	if !bytes.Equal(encoded, fixture) {
		t.Errorf("re-encoded as %x, want %x", encoded, fixture)
	}

	built := NewOrderedMap()
	built.Set(UintKey(1), mustValue(t, 0))
	built.Set(TextKey("abc"), mustValue(t, true))
	built.Set(IntKey(IntFromInt64(-1)), PlaceholderValue())
	if m.Equal(built) {
		t.Error("maps with different values compare equal")
	}
	built.Set(IntKey(IntFromInt64(-1)), m.entries[2].value)
	if !m.Equal(built) {
		t.Error("decoded map does not equal the same entries built directly")
	}

	clone := m.Clone()
	clone.Set(UintKey(1), mustValue(t, 7))
	if value, _ := m.Get(UintKey(1)); !value.Equal(mustValue(t, 0)) {
		t.Error("modifying a clone changed the original")
	}

	canonical, _ := m.canonical().MarshalCBOR()
	if want := testutil.MustHex(t, "a3 01 00 63 61 62 63 f5 20 80"); !bytes.Equal(canonical, want) {
		t.Errorf("canonical = %x, want %x", canonical, want)
	}
}

func TestOrderedMapDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		target  error
		path    []string
	}{
		{"duplicate key", "a2 01 00 01 01", ErrDuplicateKey, []string{"OrderedMap"}},
		{"duplicate key across widths", "a2 01 00 18 01 01", ErrDuplicateKey, []string{"OrderedMap"}},
		{"byte string key", "a1 40 00", ErrUnexpectedKeyType, []string{"OrderedMap"}},
		{"array key", "a1 80 00", ErrUnexpectedKeyType, []string{"OrderedMap"}},
		{"missing break", "bf 01 00", ErrEndingBreakMissing, []string{"OrderedMap"}},
		{"break in definite map", "a2 01 00 ff", ErrBreakInDefiniteLen, []string{"OrderedMap"}},
		{"underflow", "a2 01 00", ErrDefiniteLenMismatch, []string{"OrderedMap"}},
		{"truncated value", "a2 01 00 02", ErrDefiniteLenMismatch, []string{"OrderedMap", "2"}},
		{"malformed value", "a1 63 6b 65 79 1c", cborwire.ErrReservedInfo, []string{"OrderedMap", `"key"`}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var m OrderedMap
			err := m.UnmarshalCBOR(testutil.MustHex(t, test.fixture))
			testutil.RequireErrorIs(t, err, test.target)
			decodeErr := testutil.RequireErrorAs[*DecodeError](t, err)
			if !slices.Equal(decodeErr.Path, test.path) {
				t.Errorf("Path = %v, want %v", decodeErr.Path, test.path)
			}
		})
	}
}

func TestOrderedMapUnderflowCounts(t *testing.T) {
	var m OrderedMap
	err := m.UnmarshalCBOR(testutil.MustHex(t, "a3 01 00 02 00"))
	failure := testutil.RequireErrorAs[*DefiniteLenMismatchFailure](t, err)
	if failure.Declared != 3 || failure.Read != 2 {
		t.Errorf("failure = declared %d read %d, want declared 3 read 2", failure.Declared, failure.Read)
	}
}
