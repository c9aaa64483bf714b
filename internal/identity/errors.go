package identity

import "errors"

// Domain errors for the identity package.
//
// These errors can be checked using errors.Is() for error handling.
var (
	// ErrNotFound is returned when a (namespace, key) slot does not exist.
	ErrNotFound = errors.New("identity: slot not found")

	// ErrRangeExhausted is returned when a kind's numeric range has no
	// free ids left. Creation fails; this must surface to the operator.
	ErrRangeExhausted = errors.New("identity: id range exhausted")

	// ErrUnknownKind is returned when a kind has no configured range.
	ErrUnknownKind = errors.New("identity: unknown kind")

	// ErrKindMismatch is returned when a slot is requested with a kind
	// different from the one it was created with.
	ErrKindMismatch = errors.New("identity: slot exists with different kind")

	// ErrInvalidKey is returned for empty or reserved keys.
	ErrInvalidKey = errors.New("identity: invalid key")
)
