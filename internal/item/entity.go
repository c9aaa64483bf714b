package item

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/nerrad567/itembridge/internal/statepath"
)

// Logger is the minimal logging surface entities need. It matches the
// infrastructure logging package so callers can pass a *logging.Logger
// directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the outbound slice of the topic multiplexer.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retain bool) error
}

// Notifier receives the host-facing side effects entities produce.
// The driver implements it and fans the calls out to the host
// platform's connection points, events and observable values.
type Notifier interface {
	// StateChanged reports a binary state transition for a relay
	// (true = on) or contact (true = open).
	StateChanged(itemID int, state bool)

	// EventFired reports a token that passed an event item's filter.
	// Fired on every passing token, not only on change.
	EventFired(itemID int, token string)

	// ObservableChanged reports a variable item's new value.
	ObservableChanged(itemID int, value string)

	// SensorReading reports a sensor item's new reading with its unit.
	SensorReading(itemID int, value float64, unit string)
}

// Entity is the runtime behind one item record. Implementations are
// safe for concurrent use; the multiplexer delivers messages on its
// own goroutine while commands arrive from the driver's API surface.
type Entity interface {
	// Item returns a copy of the current configuration record.
	Item() Item

	// OnMessage runs the inbound pipeline for one payload and reports
	// whether it produced a state change.
	OnMessage(payload []byte) bool

	// Reconfigure replaces the configuration record in place. When the
	// state topic changes, cached raw, extracted and parsed values are
	// discarded.
	Reconfigure(next Item)

	// Snapshot returns the current runtime state for status reporting.
	Snapshot() Snapshot

	// HandleMessage, HandleConnect and HandleDisconnect satisfy the
	// multiplexer's subscriber contract.
	HandleMessage(topic string, payload []byte)
	HandleConnect()
	HandleDisconnect()
}

// New constructs the entity variant for the record's kind. The record
// is validated first.
func New(rec Item, pub Publisher, notify Notifier, logger Logger) (Entity, error) {
	if err := Validate(&rec); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = noopLogger{}
	}
	switch rec.Kind {
	case KindRelay:
		e := &Relay{state: statepath.StateUndetermined}
		e.base.init(rec, pub, notify, logger)
		return e, nil
	case KindContact:
		e := &Contact{state: statepath.StateUndetermined}
		e.base.init(rec, pub, notify, logger)
		return e, nil
	case KindButton:
		e := &Button{}
		e.base.init(rec, pub, notify, logger)
		return e, nil
	case KindEvent:
		e := &Event{}
		e.base.init(rec, pub, notify, logger)
		return e, nil
	case KindVariable:
		e := &Variable{}
		e.base.init(rec, pub, notify, logger)
		return e, nil
	case KindSensor:
		e := &Sensor{}
		e.base.init(rec, pub, notify, logger)
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
}

// init populates the shared fields in place so kind constructors avoid
// copying the embedded mutex.
func (b *base) init(rec Item, pub Publisher, notify Notifier, logger Logger) {
	b.item = rec
	b.pub = pub
	b.notify = notify
	b.logger = logger
}

// base carries the configuration record and the shared inbound
// pipeline state: last raw payload, last extracted value and the
// current diagnostic. Kind variants embed it.
type base struct {
	mu     sync.Mutex
	item   Item
	pub    Publisher
	notify Notifier
	logger Logger

	lastRaw    []byte
	lastValue  string
	hasValue   bool
	diagnostic string
}

func (b *base) Item() Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.item
}

func (b *base) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{Item: b.item, Value: b.lastValue, Diagnostic: b.diagnostic}
}

func (b *base) HandleConnect()    {}
func (b *base) HandleDisconnect() {}

// ingest runs the shared steps of the inbound pipeline under the lock:
// cache the raw payload, then extract the configured value path. A
// failed extraction records a diagnostic and reports ok=false with the
// entity state untouched.
func (b *base) ingestLocked(payload []byte) (string, bool) {
	b.lastRaw = append(b.lastRaw[:0], payload...)

	if b.item.ValuePath == "" {
		value := string(payload)
		b.lastValue = value
		b.hasValue = true
		b.diagnostic = ""
		return value, true
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		b.diagnostic = fmt.Sprintf("payload is not valid JSON, cannot apply path %q", b.item.ValuePath)
		return "", false
	}
	extracted, ok := statepath.Extract(doc, b.item.ValuePath)
	if !ok {
		b.diagnostic = fmt.Sprintf("path %q not found in payload", b.item.ValuePath)
		return "", false
	}
	value := stringify(extracted)
	b.lastValue = value
	b.hasValue = true
	b.diagnostic = ""
	return value, true
}

// applyLocked swaps in a new configuration record. Returns true when
// the state topic changed, in which case the cached pipeline values
// are discarded so stale state cannot leak across a rebind.
func (b *base) applyLocked(next Item) bool {
	changed := next.StateTopic != b.item.StateTopic
	next.ID = b.item.ID
	b.item = next
	if changed {
		b.lastRaw = nil
		b.lastValue = ""
		b.hasValue = false
		b.diagnostic = ""
	}
	return changed
}

// publish composes an outbound command and hands it to the
// multiplexer. Transport failures are logged and returned; nothing is
// queued for retry.
func (b *base) publish(topic, payload string) error {
	if topic == "" {
		b.logger.Warn("command skipped, no command topic", "item", b.item.Name)
		return ErrNoCommandTopic
	}
	if err := b.pub.Publish(topic, []byte(payload), b.item.QoS, b.item.Retain); err != nil {
		b.logger.Warn("command publish failed",
			"item", b.item.Name,
			"topic", topic,
			"error", err,
		)
		return fmt.Errorf("publishing command for %q: %w", b.item.Name, err)
	}
	return nil
}

// stringify renders an extracted document fragment as the string the
// parser layer works on. Composite fragments are re-encoded as compact
// JSON.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
