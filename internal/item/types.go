package item

import "time"

// Kind identifies the behavior variant of an item.
type Kind string

const (
	KindRelay    Kind = "relay"
	KindContact  Kind = "contact"
	KindButton   Kind = "button"
	KindEvent    Kind = "event"
	KindVariable Kind = "variable"
	KindSensor   Kind = "sensor"
)

// AllKinds returns every valid item kind.
func AllKinds() []Kind {
	return []Kind{KindRelay, KindContact, KindButton, KindEvent, KindVariable, KindSensor}
}

// OptimisticMode controls whether a relay updates its local state on
// command issuance without waiting for the broker echo.
type OptimisticMode string

const (
	// OptimisticAuto enables optimistic updates only when no state
	// topic is configured, so there is no feedback path to wait for.
	OptimisticAuto OptimisticMode = "auto"
	OptimisticOn   OptimisticMode = "on"
	OptimisticOff  OptimisticMode = "off"
)

// SensorType selects what a sensor item measures.
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorHumidity    SensorType = "humidity"
)

// TemperatureUnit selects the unit reported for temperature sensors.
// Humidity is always reported as a percentage.
type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "celsius"
	UnitFahrenheit TemperatureUnit = "fahrenheit"
)

// Item is the persisted configuration record for one logical device.
// ID never changes after allocation; Name is unique among live items.
type Item struct {
	// Identity
	ID   int    `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Topics. An empty StateTopic means no inbound binding; an empty
	// CommandTopic means the item cannot emit commands.
	StateTopic   string `json:"state_topic,omitempty"`
	CommandTopic string `json:"command_topic,omitempty"`

	// ValuePath extracts a fragment from inbound JSON payloads before
	// parsing ("$.sensors[0].temp"). Empty passes the raw payload
	// through unchanged.
	ValuePath string `json:"value_path,omitempty"`

	// Delivery options for outbound publishes.
	QoS    byte `json:"qos"`
	Retain bool `json:"retain"`

	// Command payload markers (relay, button).
	PayloadOn    string `json:"payload_on,omitempty"`
	PayloadOff   string `json:"payload_off,omitempty"`
	PayloadPress string `json:"payload_press,omitempty"`

	// Inbound state markers for relays. When both are empty the
	// command payload markers are used instead, which covers devices
	// that echo the command payload on their state topic.
	StateOn  string `json:"state_on,omitempty"`
	StateOff string `json:"state_off,omitempty"`

	// Inbound state markers for contacts.
	PayloadOpen   string `json:"payload_open,omitempty"`
	PayloadClosed string `json:"payload_closed,omitempty"`

	// Relay-only.
	Optimistic OptimisticMode `json:"optimistic,omitempty"`

	// Event-only: comma-separated allow-list of tokens. Empty accepts
	// every token.
	EventTokens string `json:"event_tokens,omitempty"`

	// Sensor-only.
	SensorType SensorType      `json:"sensor_type,omitempty"`
	Unit       TemperatureUnit `json:"unit,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy returns an independent copy of the item. Item holds only
// value fields, so a shallow copy is a complete one; the method exists
// so callers handing records out of a cache do not depend on that
// staying true.
func (i *Item) DeepCopy() *Item {
	if i == nil {
		return nil
	}
	cpy := *i
	return &cpy
}

// Snapshot is a point-in-time view of an entity's runtime state,
// suitable for status reporting. Which fields are meaningful depends
// on the kind.
type Snapshot struct {
	Item       Item    `json:"item"`
	State      string  `json:"state,omitempty"`
	Value      string  `json:"value,omitempty"`
	Reading    float64 `json:"reading,omitempty"`
	HasReading bool    `json:"has_reading,omitempty"`
	Diagnostic string  `json:"diagnostic,omitempty"`
}
