package item

import (
	"strconv"
	"strings"
)

// Sensor is a numeric reading (temperature or humidity). Inbound
// values parse as decimals; text that does not parse is rejected with
// the state unchanged. Valid readings are change-gated and reported
// with the configured unit.
type Sensor struct {
	base
	reading    float64
	hasReading bool
}

func (s *Sensor) OnMessage(payload []byte) bool {
	s.mu.Lock()
	value, ok := s.ingestLocked(payload)
	if !ok {
		s.mu.Unlock()
		return false
	}
	reading, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		s.diagnostic = "reading " + value + " is not a number"
		s.mu.Unlock()
		return false
	}
	if s.hasReading && s.reading == reading {
		s.mu.Unlock()
		return false
	}
	s.reading = reading
	s.hasReading = true
	id := s.item.ID
	unit := s.unitLocked()
	s.mu.Unlock()

	s.notify.SensorReading(id, reading, unit)
	return true
}

// Reading returns the current reading and whether one has been seen.
func (s *Sensor) Reading() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading, s.hasReading
}

// Unit returns the unit string readings are tagged with.
func (s *Sensor) Unit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unitLocked()
}

// unitLocked resolves the reporting unit: humidity is always a
// percentage, temperature follows the configured unit and defaults to
// Celsius.
func (s *Sensor) unitLocked() string {
	if s.item.SensorType == SensorHumidity {
		return "%"
	}
	if s.item.Unit == UnitFahrenheit {
		return "°F"
	}
	return "°C"
}

func (s *Sensor) Reconfigure(next Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyLocked(next) {
		s.reading = 0
		s.hasReading = false
	}
}

func (s *Sensor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Item:       s.item,
		Reading:    s.reading,
		HasReading: s.hasReading,
		Value:      s.lastValue,
		Diagnostic: s.diagnostic,
	}
}

func (s *Sensor) HandleMessage(_ string, payload []byte) {
	if s.OnMessage(payload) {
		s.logger.Debug("sensor reading changed", "item", s.Item().Name)
	}
}
