// Package statepath provides payload interpretation helpers for items.
//
// It has two halves:
//
//   - Extract resolves a JSONPath-style expression ("$.sensors[0].temp")
//     against a decoded document. Lookups that miss return not-found,
//     never an error: inbound payloads are untrusted and a miss is a
//     normal runtime condition, not a fault.
//
//   - Parse maps an extracted textual value onto a tri-state boolean
//     using configured true/false markers. One-sided marker sets are
//     supported for devices that publish a single sentinel value.
//
// Both halves are pure functions with no dependencies; every item kind
// shares them.
package statepath
