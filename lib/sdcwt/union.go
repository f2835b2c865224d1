// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import "github.com/bureau-foundation/sdcwt/lib/cborwire"

// variant is one alternative of a union whose wire shape does not say
// which alternative it holds.
type variant[T any] struct {
	name   string
	decode func(r *cborwire.Reader) (T, error)
}

// tryVariants decodes the first alternative that accepts the input.
// The reader is returned to its starting position after each failed
// attempt. When every alternative fails the error carries each
// attempt's failure, annotated with the alternative's name.
func tryVariants[T any](r *cborwire.Reader, variants ...variant[T]) (T, error) {
	var zero T
	start := r.Offset()
	found, err := r.PeekType()
	if err != nil {
		return zero, err
	}
	causes := make([]error, 0, len(variants))
	for _, alternative := range variants {
		value, err := alternative.decode(r)
		if err == nil {
			return value, nil
		}
		causes = append(causes, annotate(err, alternative.name))
		if err := r.Seek(start); err != nil {
			return zero, err
		}
	}
	return zero, &NoVariantMatchedFailure{Found: found, Causes: causes}
}
