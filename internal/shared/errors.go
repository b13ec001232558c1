package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the record changed under a concurrent writer.
	ErrConflict = errors.New("record was modified concurrently")
)
