// Package item implements the logical devices the driver exposes:
// relays, contacts, buttons, events, variables and sensors.
//
// Every kind shares one inbound pipeline: the raw payload is cached,
// the configured value path is extracted from it (or the payload
// passes through unchanged when no path is set), and the extracted
// value is handed to the kind-specific transition. Extraction and
// parse failures record a diagnostic string and leave the entity
// state untouched.
//
// Stateful kinds (relay, contact, variable, sensor) are change-gated:
// the host is notified only when the value actually moves. Events are
// the exception and fire on every token that passes their allow-list.
// Side effects reach the host through the Notifier interface; outbound
// commands go through the Publisher, which the topic multiplexer
// implements.
package item
