// Package driver wires the item lifecycle together: adding an item
// allocates its stable identity, persists the record and binds the
// entity to its broker topic through the multiplexer; reconfiguring
// rebinds topics in place; removing frees the identity slots and the
// persisted record.
//
// The driver also derives the user-facing status string from the
// multiplexer session state and the completeness of the configured
// items.
package driver
