// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "errors"

// RequireErrorIs fails the test unless err matches target via
// errors.Is.
//
//	testutil.RequireErrorIs(t, err, sdcwt.ErrDuplicateKey)
func RequireErrorIs(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, err, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error matching %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching %v, got %v", target, err)
	}
}

// RequireErrorAs fails the test unless some error in err's chain has
// type T, and returns it.
//
//	failure := testutil.RequireErrorAs[*sdcwt.DuplicateKeyFailure](t, err)
func RequireErrorAs[T error](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, err error) T {
	t.Helper()
	var target T
	if err == nil {
		t.Fatalf("expected error of type %T, got nil", target)
	}
	if !errors.As(err, &target) {
		t.Fatalf("expected error of type %T in chain, got %v", target, err)
	}
	return target
}
