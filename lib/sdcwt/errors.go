// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/sdcwt/lib/cborwire"
)

// Failure kinds. Every decode error matches exactly one of these with
// errors.Is; the failures that carry detail are also reachable with
// errors.As through their *XxxFailure types.
var (
	ErrRangeCheck            = errors.New("sdcwt: value out of range")
	ErrFixedValueMismatch    = errors.New("sdcwt: fixed value mismatch")
	ErrTagMismatch           = errors.New("sdcwt: tag mismatch")
	ErrDefiniteLenMismatch   = errors.New("sdcwt: definite length mismatch")
	ErrDuplicateKey          = errors.New("sdcwt: duplicate key")
	ErrUnknownKey            = errors.New("sdcwt: unknown key")
	ErrMandatoryFieldMissing = errors.New("sdcwt: mandatory field missing")
	ErrNoVariantMatched      = errors.New("sdcwt: no variant matched")
	ErrBreakInDefiniteLen    = errors.New("sdcwt: break marker inside definite-length container")
	ErrEndingBreakMissing    = errors.New("sdcwt: indefinite-length container not terminated by break")
	ErrUnexpectedKeyType     = errors.New("sdcwt: map key is neither integer nor text")
	ErrTrailingBytes         = errors.New("sdcwt: trailing bytes after data item")
	ErrIntegerOverflow       = errors.New("sdcwt: integer out of int64 range")
	ErrSigningNotImplemented = errors.New("sdcwt: signing is not implemented")
	ErrInvalidIssuerKey      = errors.New("sdcwt: invalid issuer key")
	ErrUnsupportedHashAlg    = errors.New("sdcwt: unsupported disclosure hash algorithm")
)

// RangeCheckFailure reports a length outside its permitted range, such
// as a salt that is not exactly 16 bytes.
type RangeCheckFailure struct {
	Found int
	Min   int
	Max   int
}

func (f *RangeCheckFailure) Error() string {
	return fmt.Sprintf("length %d outside range [%d, %d]", f.Found, f.Min, f.Max)
}

func (f *RangeCheckFailure) Is(target error) bool { return target == ErrRangeCheck }

// FixedValueMismatchFailure reports a position that must hold a literal
// value but holds something else.
type FixedValueMismatchFailure struct {
	Found    string
	Expected string
}

func (f *FixedValueMismatchFailure) Error() string {
	return fmt.Sprintf("found %s, expected %s", f.Found, f.Expected)
}

func (f *FixedValueMismatchFailure) Is(target error) bool { return target == ErrFixedValueMismatch }

// TagMismatchFailure reports a CBOR tag other than the one the schema
// requires.
type TagMismatchFailure struct {
	Found    uint64
	Expected uint64
}

func (f *TagMismatchFailure) Error() string {
	return fmt.Sprintf("found tag %d, expected tag %d", f.Found, f.Expected)
}

func (f *TagMismatchFailure) Is(target error) bool { return target == ErrTagMismatch }

// DefiniteLenMismatchFailure reports a definite-length container whose
// declared element count disagrees with the elements actually present.
// Read greater than Declared is an overflow (more elements than
// declared); Read less than Declared is an underflow, in which case
// Cause holds the error that ended decoding early.
type DefiniteLenMismatchFailure struct {
	Declared uint64
	Read     uint64
	Cause    error
}

func (f *DefiniteLenMismatchFailure) Error() string {
	direction := "underflow"
	if f.Read > f.Declared {
		direction = "overflow"
	}
	message := fmt.Sprintf("declared %d elements, read %d (%s)", f.Declared, f.Read, direction)
	if f.Cause != nil {
		message += ": " + f.Cause.Error()
	}
	return message
}

func (f *DefiniteLenMismatchFailure) Is(target error) bool { return target == ErrDefiniteLenMismatch }

// Unwrap exposes the underlying cause of an underflow.
func (f *DefiniteLenMismatchFailure) Unwrap() error { return f.Cause }

// DuplicateKeyFailure reports a key that appears twice in one map.
type DuplicateKeyFailure struct {
	Key Key
}

func (f *DuplicateKeyFailure) Error() string {
	return fmt.Sprintf("duplicate key %s", f.Key)
}

func (f *DuplicateKeyFailure) Is(target error) bool { return target == ErrDuplicateKey }

// UnknownKeyFailure reports a key that is neither in the record's
// schema nor the "custom" catch-all.
type UnknownKeyFailure struct {
	Key Key
}

func (f *UnknownKeyFailure) Error() string {
	return fmt.Sprintf("unknown key %s", f.Key)
}

func (f *UnknownKeyFailure) Is(target error) bool { return target == ErrUnknownKey }

// MandatoryFieldMissingFailure names the key of a mandatory field that
// was absent after the whole map was read.
type MandatoryFieldMissingFailure struct {
	Key Key
}

func (f *MandatoryFieldMissingFailure) Error() string {
	return fmt.Sprintf("mandatory field with key %s missing", f.Key)
}

func (f *MandatoryFieldMissingFailure) Is(target error) bool {
	return target == ErrMandatoryFieldMissing
}

// NoVariantMatchedFailure reports that no alternative of a union could
// decode the input. Causes holds each attempted variant's failure, in
// trial order, each annotated with the variant name. Causes is empty
// when the input's shape ruled out every variant without a trial.
type NoVariantMatchedFailure struct {
	Found  cborwire.MajorType
	Causes []error
}

func (f *NoVariantMatchedFailure) Error() string {
	if len(f.Causes) == 0 {
		return fmt.Sprintf("no variant matched %s", f.Found)
	}
	causes := make([]string, len(f.Causes))
	for index, cause := range f.Causes {
		causes[index] = cause.Error()
	}
	return "no variant matched: [" + strings.Join(causes, "; ") + "]"
}

func (f *NoVariantMatchedFailure) Is(target error) bool { return target == ErrNoVariantMatched }

// UnexpectedKeyTypeFailure reports a map key of a major type other
// than integer or text.
type UnexpectedKeyTypeFailure struct {
	Found cborwire.MajorType
}

func (f *UnexpectedKeyTypeFailure) Error() string {
	return fmt.Sprintf("map key is a %s", f.Found)
}

func (f *UnexpectedKeyTypeFailure) Is(target error) bool { return target == ErrUnexpectedKeyType }

// DecodeError is the error returned by every decode. Path is the chain
// of type and field names from the outermost value to the place the
// failure occurred.
type DecodeError struct {
	Path    []string
	Failure error
}

func (e *DecodeError) Error() string {
	if len(e.Path) == 0 {
		return "sdcwt: " + e.Failure.Error()
	}
	return "sdcwt: " + strings.Join(e.Path, " > ") + ": " + e.Failure.Error()
}

func (e *DecodeError) Unwrap() error { return e.Failure }

// annotate prefixes name to the breadcrumb of err, wrapping err in a
// DecodeError if it is not one already.
func annotate(err error, name string) error {
	if err == nil {
		return nil
	}
	if decodeErr, ok := err.(*DecodeError); ok {
		decodeErr.Path = append([]string{name}, decodeErr.Path...)
		return decodeErr
	}
	return &DecodeError{Path: []string{name}, Failure: err}
}
