// Package apperr defines sentinel errors shared across service layers.
package apperr

import "errors"

// ErrNotFound marks lookups of modules that are not in the compiled
// output, either because they never existed or the last compile dropped
// them.
var ErrNotFound = errors.New("not found")
