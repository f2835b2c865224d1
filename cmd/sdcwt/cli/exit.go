// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	// ExitRejected: the command ran and the token failed its check, or
	// an internal error occurred.
	ExitRejected = 1
	// ExitUsage: bad flags, arguments, input bytes, or templates.
	ExitUsage = 2
	// ExitNotFound: a named file does not exist.
	ExitNotFound = 3
)

// ExitError carries an exit code for a failure the command has already
// reported on stdout, such as "sdcwt validate" printing "invalid: ...".
// main exits with Code and prints nothing more.
type ExitError struct {
	Code int
}

// Rejected returns the ExitError for a token that failed a check.
func Rejected() *ExitError {
	return &ExitError{Code: ExitRejected}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns Code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCodeOf maps an error returned by [Command.Execute] to a process
// exit code: an [ExitError] keeps its own code, anything else maps by
// [CategoryOf].
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch CategoryOf(err) {
	case CategoryValidation:
		return ExitUsage
	case CategoryNotFound:
		return ExitNotFound
	default:
		return ExitRejected
	}
}
