package store

import "errors"

// Domain errors for the store package.
//
// These errors can be checked using errors.Is() for error handling.
var (
	// ErrNotFound is returned when a (namespace, key) pair does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidKey is returned when a namespace or key is empty.
	ErrInvalidKey = errors.New("store: namespace and key must be non-empty")

	// ErrEncode is returned when a value cannot be serialised for persistence.
	ErrEncode = errors.New("store: value not serialisable")
)
