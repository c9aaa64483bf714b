package identity

// Kind identifies which host registry a slot belongs to.
type Kind string

// Kind constants.
const (
	// KindConnectionPoint is a typed, numbered interface the host uses
	// to wire an item to other devices.
	KindConnectionPoint Kind = "connection_point"

	// KindEvent is a fireable notification slot.
	KindEvent Kind = "event"

	// KindCondition is a boolean test slot usable in host rules.
	KindCondition Kind = "condition"

	// KindObservable is a named value in the host's variable system.
	// Observable ids double as ordinal positions; deletion tombstones
	// the slot instead of removing it.
	KindObservable Kind = "observable"
)

// AllKinds returns all valid kind values.
func AllKinds() []Kind {
	return []Kind{KindConnectionPoint, KindEvent, KindCondition, KindObservable}
}

// Range is the bounded numeric id range managed for a kind.
// Both ends are inclusive. Ids outside every managed range belong to
// the host's own allocations and are never touched by the bridge.
type Range struct {
	Low  int
	High int
}

// Contains reports whether id falls inside the range.
func (r Range) Contains(id int) bool {
	return id >= r.Low && id <= r.High
}

// DefaultRanges returns the standard per-kind id ranges.
func DefaultRanges() map[Kind]Range {
	return map[Kind]Range{
		KindConnectionPoint: {Low: 1000, High: 1999},
		KindEvent:           {Low: 2000, High: 2999},
		KindCondition:       {Low: 3000, High: 3999},
		KindObservable:      {Low: 4000, High: 4999},
	}
}

// Record is one persisted registry slot.
type Record struct {
	// Namespace is the registry this slot belongs to.
	Namespace string `json:"namespace"`

	// Key is the stable lookup key (typically the item name). Tombstoned
	// slots have their key retired so a recreated item of the same name
	// allocates a fresh id.
	Key string `json:"key"`

	// Kind selects the host registry and id range.
	Kind Kind `json:"kind"`

	// ID is the allocated numeric id. Immutable for the slot's lifetime.
	ID int `json:"id"`

	// Tombstone marks a deleted observable slot kept as an inert
	// placeholder to preserve ordinal numbering.
	Tombstone bool `json:"tombstone"`

	// Args are the host registration arguments (type, label, unit, ...).
	Args map[string]any `json:"args,omitempty"`
}
