package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a key or session has no stored value.
	ErrNotFound = errors.New("not found")
)
