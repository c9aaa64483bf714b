// Package mqtt provides the broker transport for the item bridge.
//
// This package manages:
//   - One connection per driver instance to the upstream broker
//   - Message publishing with QoS guarantees
//   - Topic subscriptions on behalf of the multiplexer
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The transport is deliberately thin: it exposes the narrow primitive
// set the multiplexer needs (connect, disconnect, subscribe,
// unsubscribe, publish, plus connect/loss/message callbacks) and
// nothing else. Subscription tracking, reference counting, replay and
// the reconnect loop all live in the mux package, which is why paho's
// own auto-reconnect is switched off here.
//
//	items ↔ multiplexer ↔ Transport ↔ MQTT broker
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
package mqtt
