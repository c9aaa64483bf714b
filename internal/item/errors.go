package item

import "errors"

var (
	// ErrInvalidItem indicates a nil or structurally unusable item record.
	ErrInvalidItem = errors.New("item: invalid item")

	// ErrInvalidName indicates a missing or oversized item name.
	ErrInvalidName = errors.New("item: invalid name")

	// ErrUnknownKind indicates a kind outside the supported set.
	ErrUnknownKind = errors.New("item: unknown kind")

	// ErrInvalidQoS indicates a QoS level outside 0..2.
	ErrInvalidQoS = errors.New("item: qos must be 0, 1 or 2")

	// ErrInvalidOptimistic indicates an unrecognized optimistic mode.
	ErrInvalidOptimistic = errors.New("item: invalid optimistic mode")

	// ErrInvalidSensorType indicates an unrecognized sensor type.
	ErrInvalidSensorType = errors.New("item: invalid sensor type")

	// ErrInvalidUnit indicates an unrecognized temperature unit.
	ErrInvalidUnit = errors.New("item: invalid temperature unit")

	// ErrNoCommandTopic is returned when a command is requested on an
	// item with no command topic configured. The operation is a no-op.
	ErrNoCommandTopic = errors.New("item: no command topic configured")

	// ErrNotCommandable is returned when a command is requested on a
	// kind that does not accept that command.
	ErrNotCommandable = errors.New("item: kind does not accept commands")
)
