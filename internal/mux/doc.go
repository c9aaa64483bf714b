// Package mux multiplexes one upstream broker session across many local
// subscribers.
//
// The bridge holds exactly one connection to the upstream MQTT broker,
// however many items it serves. The multiplexer owns that connection
// and turns it into a shared resource:
//
//   - Reference counting: the first local subscriber on a topic triggers
//     one upstream subscribe; the last one leaving triggers one upstream
//     unsubscribe. Subscribers in between cost nothing on the wire.
//   - Retained replay: the last payload seen on each topic is cached in
//     memory. A subscriber joining a topic that already has subscribers
//     gets the cached payload immediately, compensating for brokers
//     that only re-deliver retained messages on a fresh subscription.
//   - Lifecycle fan-out: connect and disconnect transitions are
//     broadcast to every subscriber, and on reconnect every topic with
//     at least one subscriber is re-subscribed upstream before the
//     connect notification goes out.
//
// Connection loss schedules a reconnect on a fixed delay, indefinitely.
// There is no backoff growth and no retry cap; the broker is the only
// upstream and the bridge's job is to be connected to it.
//
// Publishes are forwarded only while connected. A publish while
// disconnected is reported as a failure, never buffered: items layer
// their own semantics (optimistic state, status text) on top of that.
package mux
