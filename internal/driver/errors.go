package driver

import "errors"

var (
	// ErrNotFound indicates no live item with the requested id.
	ErrNotFound = errors.New("driver: item not found")

	// ErrDuplicateName indicates another live item already uses the name.
	ErrDuplicateName = errors.New("driver: item name already in use")

	// ErrKindImmutable indicates a reconfigure tried to change the kind.
	// Kind determines the identity range an item's id was allocated
	// from; changing it would orphan the slot.
	ErrKindImmutable = errors.New("driver: item kind cannot change")

	// ErrNameImmutable indicates a reconfigure tried to rename an item.
	// Names key the identity registry; renaming would reallocate the id
	// and break external automation wiring.
	ErrNameImmutable = errors.New("driver: item name cannot change")
)
