// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

type sampleClaim struct {
	Name  string `cbor:"name"`
	Level int    `cbor:"level,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleClaim{Name: "dept", Level: 3}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleClaim
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[any]any{"zeta": 1, 10: "ten", 1: "one"}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}

	// Core Deterministic Encoding sorts keys bytewise by their
	// encoding: 0x01, 0x0a, then the text key.
	want := "a3" + "01" + "636f6e65" + "0a" + "6374656e" + "647a657461" + "01"
	if got := hex.EncodeToString(first); got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshalSmallestIntegers(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{0, "00"},
		{23, "17"},
		{24, "1818"},
		{-1, "20"},
		{1700000000, "1a6553f100"},
	}
	for _, tt := range tests {
		data, err := Marshal(tt.value)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.value, err)
		}
		if got := hex.EncodeToString(data); got != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestUnmarshalAnyIntegerKeys(t *testing.T) {
	// {1: "a", "b": [2, 3]}
	data, _ := hex.DecodeString("a2016161616282" + "0203")
	value, err := UnmarshalAny(data)
	if err != nil {
		t.Fatalf("UnmarshalAny: %v", err)
	}
	output, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if got, want := string(output), `{"1":"a","b":[2,3]}`; got != want {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func TestUnmarshalAnyTagAndBigNegative(t *testing.T) {
	// [1(1700000000), -18446744073709551616]
	data, _ := hex.DecodeString("82c11a6553f1003bffffffffffffffff")
	value, err := UnmarshalAny(data)
	if err != nil {
		t.Fatalf("UnmarshalAny: %v", err)
	}
	output, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if !strings.Contains(string(output), "-18446744073709551616") {
		t.Errorf("JSON %s lost the big negative integer", output)
	}
}

func TestWellformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"integer", "01", false},
		{"indefinite array", "9f0102ff", false},
		{"truncated", "8301", true},
		{"trailing", "0101", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _ := hex.DecodeString(tt.input)
			err := Wellformed(data)
			if (err != nil) != tt.wantErr {
				t.Errorf("Wellformed(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNestingMatchesWireReader(t *testing.T) {
	nested := func(depth int) []byte {
		return append(bytes.Repeat([]byte{0x81}, depth), 0x00)
	}
	for _, depth := range []int{33, cborwire.MaxNesting} {
		data := nested(depth)
		if err := Wellformed(data); err != nil {
			t.Errorf("Wellformed at depth %d: %v", depth, err)
		}
		if _, err := Diagnose(data); err != nil {
			t.Errorf("Diagnose at depth %d: %v", depth, err)
		}
		if _, err := UnmarshalAny(data); err != nil {
			t.Errorf("UnmarshalAny at depth %d: %v", depth, err)
		}
	}
	if err := Wellformed(nested(cborwire.MaxNesting + 1)); err == nil {
		t.Errorf("Wellformed accepted depth %d", cborwire.MaxNesting+1)
	}
}

func TestDiagnose(t *testing.T) {
	data, _ := hex.DecodeString("d28443a10126a0f640")
	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.HasPrefix(diag, "18([") {
		t.Errorf("Diagnose = %q, want tag 18 array", diag)
	}
}

func TestDiagnoseFirstSequence(t *testing.T) {
	data := []byte{0x01, 0x02}
	first, rest, err := DiagnoseFirst(data)
	if err != nil {
		t.Fatalf("DiagnoseFirst: %v", err)
	}
	if first != "1" || len(rest) != 1 {
		t.Errorf("DiagnoseFirst = (%q, %x), want (\"1\", 02)", first, rest)
	}
}

func TestDiagnoseFirstEmbedded(t *testing.T) {
	// 18([h'a10126', {}, null, h'']): the protected header expands.
	data, _ := hex.DecodeString("d28443a10126a0f640")
	diag, rest, err := DiagnoseFirstEmbedded(data)
	if err != nil {
		t.Fatalf("DiagnoseFirstEmbedded: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("unexpected trailing bytes %x", rest)
	}
	if !strings.Contains(diag, "<<{1: -7}>>") {
		t.Errorf("DiagnoseFirstEmbedded = %q, want embedded protected header", diag)
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"padded integer", "1900 01", "01"},
		{"indefinite array", "9f 01 02 ff", "82 01 02"},
		{"unsorted map", "a2 61 62 01 61 61 02", "a2 61 61 02 61 62 01"},
		{"already canonical", "83 01 02 03", "83 01 02 03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, _ := hex.DecodeString(strings.ReplaceAll(tt.input, " ", ""))
			want, _ := hex.DecodeString(strings.ReplaceAll(tt.want, " ", ""))
			got, err := Canonicalize(input)
			if err != nil {
				t.Fatalf("Canonicalize: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Canonicalize(%s) = %x, want %x", tt.input, got, want)
			}
		})
	}
}
