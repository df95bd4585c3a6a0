package core

import "errors"

// Error kinds surfaced at the store boundary. Callers classify with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	ErrIO         = errors.New("storage failure")
	ErrReadOnly   = errors.New("storage is in read-only mode")
)
