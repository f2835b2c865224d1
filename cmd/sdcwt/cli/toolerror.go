// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

// ErrorCategory says whose fault a failure is.
type ErrorCategory string

const (
	// CategoryValidation: the caller's input was wrong (flags,
	// arguments, token bytes, templates, configuration).
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a token, template, or key file is missing.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryInternal: I/O failures and bugs.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError attaches a category to an error. Error and Unwrap pass
// through to Err.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation formats a CategoryValidation error. %w is honoured.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound formats a CategoryNotFound error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal formats a CategoryInternal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// CategoryOf classifies err. The outermost [ToolError] wins; an
// uncategorised token decode failure counts as validation and a missing
// file as not found. Everything else is internal.
func CategoryOf(err error) ErrorCategory {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Category
	}
	var decodeErr *sdcwt.DecodeError
	if errors.As(err, &decodeErr) {
		return CategoryValidation
	}
	if errors.Is(err, fs.ErrNotExist) {
		return CategoryNotFound
	}
	return CategoryInternal
}
