// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// maxElements is the largest array length or map size fxamacker
// accepts. Input size is the real bound: every element takes at least
// one byte of the token.
const maxElements = 2147483647

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes.
var encMode cbor.EncMode

// canonicalEncMode is encMode plus tag 1 on time values, so that
// timestamps that went through a generic decode keep their tag when
// re-encoded by Canonicalize.
var canonicalEncMode cbor.EncMode

// decMode decodes into typed targets. When the target is any, CBOR
// maps become map[string]any, which only works for text-keyed maps.
var decMode cbor.DecMode

// anyDecMode keeps the library default map type (map[any]any) so that
// integer-keyed maps, which SD-CWT uses throughout, decode without
// error. Normalize turns the result into JSON-compatible types.
var anyDecMode cbor.DecMode

// diagMode renders diagnostic notation under the same limits as the
// decoders.
var diagMode cbor.DiagMode

// embeddedDiagMode renders byte strings that hold well-formed CBOR as
// << item >>, which exposes the protected header, payload, and
// disclosures of a token.
var embeddedDiagMode cbor.DiagMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	canonicalOptions := cbor.CoreDetEncOptions()
	canonicalOptions.Time = cbor.TimeUnixDynamic
	canonicalOptions.TimeTag = cbor.EncTagRequired
	canonicalEncMode, err = canonicalOptions.EncMode()
	if err != nil {
		panic("codec: canonical CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler:  cbor.TextUnmarshalerTextString,
		MaxNestedLevels:  cborwire.MaxNesting,
		MaxArrayElements: maxElements,
		MaxMapPairs:      maxElements,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	anyDecMode, err = cbor.DecOptions{
		// Big integers (beyond int64/uint64) come back as big.Int
		// rather than as a tagged value.
		BigIntDec: cbor.BigIntDecodeValue,
		// Extension values are captured by cborwire first; checking
		// them here must not be stricter than that.
		MaxNestedLevels:  cborwire.MaxNesting,
		MaxArrayElements: maxElements,
		MaxMapPairs:      maxElements,
	}.DecMode()
	if err != nil {
		panic("codec: generic CBOR decoder initialization failed: " + err.Error())
	}

	diagMode, err = cbor.DiagOptions{
		MaxNestedLevels:  cborwire.MaxNesting,
		MaxArrayElements: maxElements,
		MaxMapPairs:      maxElements,
	}.DiagMode()
	if err != nil {
		panic("codec: CBOR diagnostic mode initialization failed: " + err.Error())
	}

	embeddedDiagMode, err = cbor.DiagOptions{
		ByteStringEmbeddedCBOR: true,
		MaxNestedLevels:        cborwire.MaxNesting,
		MaxArrayElements:       maxElements,
		MaxMapPairs:            maxElements,
	}.DiagMode()
	if err != nil {
		panic("codec: CBOR diagnostic mode initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalAny decodes a single CBOR data item into a generic Go value
// (map[any]any for maps, []any for arrays, cbor.Tag for tags) and
// passes it through Normalize.
func UnmarshalAny(data []byte) (any, error) {
	var value any
	if err := anyDecMode.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return Normalize(value), nil
}

// Canonicalize decodes a single data item generically and re-encodes it
// with Core Deterministic Encoding: shortest integer and length forms,
// definite lengths only, and sorted map keys.
func Canonicalize(data []byte) ([]byte, error) {
	var value any
	if err := anyDecMode.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return canonicalEncMode.Marshal(value)
}

// Wellformed reports whether data holds exactly one well-formed CBOR
// data item.
func Wellformed(data []byte) error {
	return anyDecMode.Wellformed(data)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data.
func Diagnose(data []byte) (string, error) {
	return diagMode.Diagnose(data)
}

// DiagnoseFirst returns the CBOR diagnostic notation for the first
// data item in data, along with the remaining unconsumed bytes. Use
// this to process CBOR sequences one item at a time.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	return diagMode.DiagnoseFirst(data)
}

// DiagnoseFirstEmbedded is DiagnoseFirst with byte strings holding
// CBOR shown as embedded items.
func DiagnoseFirstEmbedded(data []byte) (string, []byte, error) {
	return embeddedDiagMode.DiagnoseFirst(data)
}

// Normalize recursively converts generically decoded CBOR values to
// types that encoding/json can marshal: map[any]any becomes
// map[string]any with fmt.Sprint'd keys, tags become
// {"tag": n, "value": ...} objects, and big integers become
// json.Number so their digits survive.
func Normalize(v any) any {
	switch value := v.(type) {
	case map[any]any:
		result := make(map[string]any, len(value))
		for key, element := range value {
			result[fmt.Sprint(key)] = Normalize(element)
		}
		return result

	case map[string]any:
		for key, element := range value {
			value[key] = Normalize(element)
		}
		return value

	case []any:
		for index, element := range value {
			value[index] = Normalize(element)
		}
		return value

	case cbor.Tag:
		return map[string]any{
			"tag":   value.Number,
			"value": Normalize(value.Content),
		}

	case big.Int:
		return json.Number(value.String())

	case *big.Int:
		return json.Number(value.String())

	default:
		return v
	}
}
