package mux

// Transport is the narrow upstream-broker interface the multiplexer
// drives. It mirrors the handful of primitives an MQTT client offers:
// connect, disconnect, subscribe, unsubscribe, publish, plus
// callback-driven connect/loss/message events.
//
// Connect is asynchronous: it starts the handshake and returns. Success
// arrives later through the OnConnect callback, failure through the
// error return or OnConnectionLost. The multiplexer is the transport's
// only driver; implementations do not need their own reconnect logic.
type Transport interface {
	// SetCallbacks wires the transport's events into the multiplexer.
	// Must be called before Connect.
	SetCallbacks(cb Callbacks)

	// Connect starts the broker handshake.
	Connect() error

	// Disconnect tears the session down. No callbacks fire afterwards.
	Disconnect()

	// Subscribe issues one upstream subscription.
	Subscribe(topic string, qos byte) error

	// Unsubscribe removes one upstream subscription.
	Unsubscribe(topic string) error

	// Publish sends one message upstream.
	Publish(topic string, payload []byte, qos byte, retain bool) error
}

// Callbacks are the transport events the multiplexer consumes.
type Callbacks struct {
	// OnConnect fires when the handshake completes.
	OnConnect func()

	// OnConnectionLost fires when an established session drops.
	OnConnectionLost func(err error)

	// OnMessage fires for every inbound message.
	OnMessage func(topic string, payload []byte, qos byte, retained bool)
}

// Message is a cached last-known payload for a topic.
type Message struct {
	Payload  []byte
	QoS      byte
	Retained bool
}

// Subscriber receives messages and lifecycle notifications for the
// topics it subscribed to. Implementations must not block: callbacks
// run on the multiplexer's delivery path.
type Subscriber interface {
	// HandleMessage delivers one inbound payload for a subscribed topic.
	HandleMessage(topic string, payload []byte)

	// HandleConnect signals the upstream session is (re)established.
	HandleConnect()

	// HandleDisconnect signals the upstream session dropped.
	HandleDisconnect()
}
