package item

// Variable mirrors an inbound string value to a host observable and
// publishes external observable changes back out to the command topic.
// Values pass through verbatim in both directions; nothing is parsed.
type Variable struct {
	base
	value    string
	hasState bool
}

func (v *Variable) OnMessage(payload []byte) bool {
	v.mu.Lock()
	value, ok := v.ingestLocked(payload)
	if !ok {
		v.mu.Unlock()
		return false
	}
	if v.hasState && v.value == value {
		v.mu.Unlock()
		return false
	}
	v.value = value
	v.hasState = true
	id := v.item.ID
	v.mu.Unlock()

	v.notify.ObservableChanged(id, value)
	return true
}

// SetValue handles an external change to the mirrored observable: the
// value is published outward unchanged. The local cache updates too,
// so a device echoing the value back does not re-notify the host.
func (v *Variable) SetValue(value string) error {
	v.mu.Lock()
	topic := v.item.CommandTopic
	v.value = value
	v.hasState = true
	v.mu.Unlock()
	return v.publish(topic, value)
}

// Value returns the current value and whether one has been seen.
func (v *Variable) Value() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.hasState
}

func (v *Variable) Reconfigure(next Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.applyLocked(next) {
		v.value = ""
		v.hasState = false
	}
}

func (v *Variable) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Item:       v.item,
		Value:      v.value,
		Diagnostic: v.diagnostic,
	}
}

func (v *Variable) HandleMessage(_ string, payload []byte) {
	if v.OnMessage(payload) {
		v.logger.Debug("variable changed", "item", v.Item().Name)
	}
}
