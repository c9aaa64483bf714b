package identity

import "context"

// Host is the narrow slice of the host platform the registry needs:
// creating, destroying and enumerating live registrations.
//
// Implementations must make Register idempotent: restore re-registers
// every persisted slot on boot and an already-live registration must
// not fail.
type Host interface {
	// Register creates (or refreshes) a live registration for a slot.
	Register(ctx context.Context, kind Kind, id int, key string, args map[string]any) error

	// RegisterPlaceholder creates an inert, user-invisible registration
	// that only holds an ordinal position. Used when re-materialising
	// tombstoned observable slots on restore.
	RegisterPlaceholder(ctx context.Context, kind Kind, id int) error

	// Unregister removes a live registration. Removing an id the host
	// does not know is not an error.
	Unregister(ctx context.Context, kind Kind, id int) error

	// Registered returns the ids of all live host registrations for a
	// kind, including ones outside the bridge's managed range.
	Registered(ctx context.Context, kind Kind) ([]int, error)
}
