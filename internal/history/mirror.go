package history

// Writer is the slice of the InfluxDB client the mirror writes through.
type Writer interface {
	WriteItemReading(itemID int, name string, value float64, unit string)
	WriteItemValue(itemID int, name string, value string)
}

// Resolver maps item ids to names so points can carry the item name as
// a tag. The driver implements it. Notifications arrive on the
// multiplexer's delivery path, sometimes from inside a driver
// operation, so implementations must not block on driver state.
type Resolver interface {
	ItemName(id int) string
}

// Mirror forwards sensor readings and variable values to the history
// writer. Binary state changes and event fires carry no history value
// and pass through untouched.
//
// Mirror implements item.Notifier so it can sit in a notifier fan-out.
type Mirror struct {
	writer  Writer
	resolve Resolver
}

// NewMirror builds a mirror over the given writer.
func NewMirror(writer Writer) *Mirror {
	return &Mirror{writer: writer}
}

// SetResolver installs the id-to-record lookup. Until one is set,
// points are tagged with an empty item name.
//
// The resolver is the driver, which is constructed after its notifier;
// this setter breaks that cycle.
func (m *Mirror) SetResolver(resolve Resolver) {
	m.resolve = resolve
}

func (m *Mirror) name(itemID int) string {
	if m.resolve == nil {
		return ""
	}
	return m.resolve.ItemName(itemID)
}

// StateChanged is a no-op; binary states are not mirrored.
func (m *Mirror) StateChanged(int, bool) {}

// EventFired is a no-op; event tokens are not mirrored.
func (m *Mirror) EventFired(int, string) {}

// ObservableChanged mirrors a variable item's new value.
func (m *Mirror) ObservableChanged(itemID int, value string) {
	m.writer.WriteItemValue(itemID, m.name(itemID), value)
}

// SensorReading mirrors a sensor item's new reading.
func (m *Mirror) SensorReading(itemID int, value float64, unit string) {
	m.writer.WriteItemReading(itemID, m.name(itemID), value, unit)
}
