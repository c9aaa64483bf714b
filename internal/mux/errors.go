package mux

import "errors"

// Domain errors for the mux package.
//
// These errors can be checked using errors.Is() for error handling.
var (
	// ErrNotConnected is returned when a publish is attempted while the
	// upstream session is down. The message is dropped, not queued.
	ErrNotConnected = errors.New("mux: not connected")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mux: topic cannot be empty")

	// ErrInvalidSubscriber is returned when a subscriber id or handler is missing.
	ErrInvalidSubscriber = errors.New("mux: invalid subscriber")

	// ErrClosed is returned for operations on a closed multiplexer.
	ErrClosed = errors.New("mux: closed")
)
