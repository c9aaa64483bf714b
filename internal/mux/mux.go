package mux

import (
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Multiplexer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Status is the upstream session state.
type Status int

// Status values.
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// String returns the user-facing status text.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// DefaultReconnectDelay is the fixed interval between reconnect attempts.
const DefaultReconnectDelay = 30 * time.Second

// topicEntry tracks the local subscribers of one exact topic.
type topicEntry struct {
	qos  byte
	subs map[string]Subscriber
}

// Multiplexer owns the single upstream session and fans it out to local
// subscribers with reference counting and retained-message replay.
//
// All public methods are thread-safe. Subscriber callbacks are invoked
// outside the multiplexer's lock, in upstream delivery order.
type Multiplexer struct {
	transport Transport
	delay     time.Duration
	logger    Logger

	mu     sync.Mutex
	status Status
	topics map[string]*topicEntry
	cache  map[string]Message
	timer  *time.Timer
	closed bool
}

// New creates a multiplexer over the given transport.
// Call Start to begin connecting.
func New(transport Transport, reconnectDelay time.Duration) *Multiplexer {
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}
	m := &Multiplexer{
		transport: transport,
		delay:     reconnectDelay,
		logger:    noopLogger{},
		topics:    make(map[string]*topicEntry),
		cache:     make(map[string]Message),
	}
	transport.SetCallbacks(Callbacks{
		OnConnect:        m.handleConnected,
		OnConnectionLost: m.handleConnectionLost,
		OnMessage:        m.handleMessage,
	})
	return m
}

// SetLogger sets the logger for the multiplexer.
func (m *Multiplexer) SetLogger(logger Logger) {
	m.logger = logger
}

// Status returns the current session state.
func (m *Multiplexer) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start begins a connect attempt. A failed attempt schedules a retry on
// the fixed delay; Start never needs to be called twice.
func (m *Multiplexer) Start() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.status != StatusDisconnected {
		m.mu.Unlock()
		return nil
	}
	// One attempt at a time: a pending reconnect timer is cancelled
	// before a new handshake starts.
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.status = StatusConnecting
	m.mu.Unlock()

	if err := m.transport.Connect(); err != nil {
		m.logger.Warn("broker connect failed", "error", err, "retry_in", m.delay)
		m.enterDisconnected(true)
		return fmt.Errorf("connecting to broker: %w", err)
	}
	return nil
}

// Close tears the multiplexer down: disconnect notifications go out to
// every subscriber, then the socket is released. The multiplexer cannot
// be restarted afterwards.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	wasUp := m.status != StatusDisconnected
	m.status = StatusDisconnected
	subs := m.allSubscribersLocked()
	m.mu.Unlock()

	// Notify before releasing the socket.
	for _, sub := range subs {
		sub.HandleDisconnect()
	}
	if wasUp {
		m.transport.Disconnect()
	}
}

// Subscribe adds a local subscriber to an exact topic.
//
// The first subscriber on a topic triggers one upstream subscribe (or
// defers it to the next connect if the session is down). A later
// subscriber triggers none, but receives the cached last payload for
// the topic immediately if one exists.
func (m *Multiplexer) Subscribe(topic, subscriberID string, qos byte, sub Subscriber) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if subscriberID == "" || sub == nil {
		return ErrInvalidSubscriber
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	entry, exists := m.topics[topic]
	if !exists {
		entry = &topicEntry{qos: qos, subs: make(map[string]Subscriber)}
		m.topics[topic] = entry
	}
	first := len(entry.subs) == 0
	entry.subs[subscriberID] = sub

	var replay *Message
	if !first {
		if cached, ok := m.cache[topic]; ok {
			replay = &cached
		}
	}
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if first {
		if connected {
			if err := m.transport.Subscribe(topic, qos); err != nil {
				// Keep the local registration: the subscription is
				// re-issued on the next connect transition.
				m.logger.Warn("upstream subscribe failed", "topic", topic, "error", err)
			}
		}
		return nil
	}

	if replay != nil {
		sub.HandleMessage(topic, replay.Payload)
	}
	return nil
}

// Unsubscribe removes a local subscriber from a topic. The last
// subscriber leaving triggers one upstream unsubscribe and drops the
// topic entry (the cached payload is kept).
func (m *Multiplexer) Unsubscribe(topic, subscriberID string) {
	m.mu.Lock()
	entry, ok := m.topics[topic]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(entry.subs, subscriberID)
	empty := len(entry.subs) == 0
	if empty {
		delete(m.topics, topic)
	}
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if empty && connected {
		if err := m.transport.Unsubscribe(topic); err != nil {
			m.logger.Warn("upstream unsubscribe failed", "topic", topic, "error", err)
		}
	}
}

// RemoveSubscriber detaches a subscriber from every topic, issuing
// upstream unsubscribes for topics it was the last subscriber of.
// Call on consumer teardown.
func (m *Multiplexer) RemoveSubscriber(subscriberID string) {
	m.mu.Lock()
	var emptied []string
	for topic, entry := range m.topics {
		if _, ok := entry.subs[subscriberID]; !ok {
			continue
		}
		delete(entry.subs, subscriberID)
		if len(entry.subs) == 0 {
			delete(m.topics, topic)
			emptied = append(emptied, topic)
		}
	}
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if !connected {
		return
	}
	for _, topic := range emptied {
		if err := m.transport.Unsubscribe(topic); err != nil {
			m.logger.Warn("upstream unsubscribe failed", "topic", topic, "error", err)
		}
	}
}

// Publish forwards a message upstream. Only permitted while connected;
// anything else is a delivery failure, never a queue.
func (m *Multiplexer) Publish(topic string, payload []byte, qos byte, retain bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	m.mu.Lock()
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if !connected {
		m.logger.Warn("publish dropped, not connected", "topic", topic)
		return ErrNotConnected
	}
	if err := m.transport.Publish(topic, payload, qos, retain); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// SubscriberCount returns the number of local subscribers on a topic.
func (m *Multiplexer) SubscriberCount(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.topics[topic]; ok {
		return len(entry.subs)
	}
	return 0
}

// handleConnected runs when the transport completes a handshake.
// Upstream subscriptions are re-issued for every topic with at least
// one local subscriber before the connect notification fans out.
func (m *Multiplexer) handleConnected() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.status = StatusConnected
	type resub struct {
		topic string
		qos   byte
	}
	resubs := make([]resub, 0, len(m.topics))
	for topic, entry := range m.topics {
		resubs = append(resubs, resub{topic: topic, qos: entry.qos})
	}
	subs := m.allSubscribersLocked()
	m.mu.Unlock()

	for _, r := range resubs {
		if err := m.transport.Subscribe(r.topic, r.qos); err != nil {
			m.logger.Warn("upstream re-subscribe failed", "topic", r.topic, "error", err)
		}
	}
	m.logger.Info("broker connected", "topics", len(resubs))

	for _, sub := range subs {
		sub.HandleConnect()
	}
}

// handleConnectionLost runs when an established session drops.
func (m *Multiplexer) handleConnectionLost(err error) {
	m.logger.Warn("broker connection lost", "error", err, "retry_in", m.delay)
	m.enterDisconnected(true)
}

// handleMessage fans one inbound message out to the exact topic's
// subscribers. The last-message cache updates first so late joiners
// always see the newest payload. No wildcard matching happens here.
func (m *Multiplexer) handleMessage(topic string, payload []byte, qos byte, retained bool) {
	m.mu.Lock()
	m.cache[topic] = Message{Payload: payload, QoS: qos, Retained: retained}
	var targets []Subscriber
	if entry, ok := m.topics[topic]; ok {
		targets = make([]Subscriber, 0, len(entry.subs))
		for _, sub := range entry.subs {
			targets = append(targets, sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range targets {
		sub.HandleMessage(topic, payload)
	}
}

// enterDisconnected transitions to Disconnected, notifies every
// subscriber, and (when schedule is set) arms the fixed-delay retry.
func (m *Multiplexer) enterDisconnected(schedule bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.status = StatusDisconnected
	subs := m.allSubscribersLocked()
	if schedule && m.timer == nil {
		m.timer = time.AfterFunc(m.delay, func() {
			m.mu.Lock()
			m.timer = nil
			m.mu.Unlock()
			if err := m.Start(); err != nil {
				m.logger.Debug("reconnect attempt failed", "error", err)
			}
		})
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.HandleDisconnect()
	}
}

// allSubscribersLocked returns each distinct subscriber once, however
// many topics it is attached to. Callers must hold m.mu.
func (m *Multiplexer) allSubscribersLocked() []Subscriber {
	seen := make(map[string]bool)
	var subs []Subscriber
	for _, entry := range m.topics {
		for id, sub := range entry.subs {
			if seen[id] {
				continue
			}
			seen[id] = true
			subs = append(subs, sub)
		}
	}
	return subs
}
