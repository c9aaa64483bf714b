// Package identity allocates and preserves the numeric ids the host
// platform uses to reference bridge items.
//
// The host wires automation to raw numbers: a connection point id, an
// event id, a condition id, an observable value id. Those numbers leak
// into user configuration the moment an item is created, so they must
// never change across reboots and must never be reassigned to a
// different logical item. This package is the single owner of that
// guarantee.
//
// # Model
//
// Four independent registries share one implementation, each a
// (namespace, key) -> slot map persisted through the store:
//
//   - connection points: typed numbered interfaces wired to devices
//   - events: fireable notifications
//   - conditions: boolean tests
//   - observable values: named values in the host's variable system
//
// Each kind draws ids from a bounded numeric range. Registrations the
// bridge finds inside a managed range without a matching persisted slot
// are orphans from an earlier life and are removed on restore;
// registrations outside the ranges belong to someone else and are never
// touched.
//
// # Tombstones
//
// Observable value ids double as ordinal slot positions in the host's
// restore bookkeeping, so deleting one cannot shift its successors.
// Deleted observable slots become tombstones: inert, invisible
// placeholders that keep the numbering dense. Trailing tombstones with
// nothing allocated after them are trimmed, but a persisted high-water
// mark keeps allocation monotonic so a trimmed id is still never reused.
//
// Restore processes slots in ascending id order. This is a correctness
// requirement, not an optimisation: out-of-order re-registration
// corrupts the host's positional bookkeeping for observable values.
package identity
