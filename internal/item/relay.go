package item

import "github.com/nerrad567/itembridge/internal/statepath"

// Relay is a switchable output. Inbound state reports move the cached
// boolean; TurnOn/TurnOff publish the configured command payloads.
type Relay struct {
	base
	state statepath.State
}

// OnMessage parses the inbound payload against the relay's state
// markers and notifies the host only when the boolean actually flips.
func (r *Relay) OnMessage(payload []byte) bool {
	r.mu.Lock()
	value, ok := r.ingestLocked(payload)
	if !ok {
		r.mu.Unlock()
		return false
	}
	on, off := r.item.StateOn, r.item.StateOff
	if on == "" && off == "" {
		// Devices that echo the command payload on their state topic
		// need no separate state markers.
		on, off = r.item.PayloadOn, r.item.PayloadOff
	}
	next := statepath.Parse(value, on, off)
	if next == statepath.StateUndetermined {
		r.diagnostic = "state payload " + value + " matched neither marker"
		r.mu.Unlock()
		return false
	}
	if next == r.state {
		r.mu.Unlock()
		return false
	}
	r.state = next
	id := r.item.ID
	r.mu.Unlock()

	r.notify.StateChanged(id, next == statepath.StateTrue)
	return true
}

// TurnOn publishes the on command. Under optimistic mode the local
// state updates synchronously once the publish succeeds.
func (r *Relay) TurnOn() error { return r.command(true) }

// TurnOff publishes the off command.
func (r *Relay) TurnOff() error { return r.command(false) }

func (r *Relay) command(on bool) error {
	r.mu.Lock()
	topic := r.item.CommandTopic
	payload := r.item.PayloadOn
	if !on {
		payload = r.item.PayloadOff
	}
	optimistic := r.optimisticLocked()
	r.mu.Unlock()

	if err := r.publish(topic, payload); err != nil {
		return err
	}
	if !optimistic {
		return nil
	}

	next := statepath.StateFalse
	if on {
		next = statepath.StateTrue
	}
	r.mu.Lock()
	changed := next != r.state
	r.state = next
	id := r.item.ID
	r.mu.Unlock()
	if changed {
		r.notify.StateChanged(id, on)
	}
	return nil
}

// optimisticLocked resolves the effective optimistic mode: explicit
// on/off wins, auto activates only when no state topic exists to echo
// the real device state back.
func (r *Relay) optimisticLocked() bool {
	switch r.item.Optimistic {
	case OptimisticOn:
		return true
	case OptimisticOff:
		return false
	default:
		return r.item.StateTopic == ""
	}
}

func (r *Relay) Reconfigure(next Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyLocked(next) {
		r.state = statepath.StateUndetermined
	}
}

func (r *Relay) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Item:       r.item,
		State:      relayStateString(r.state),
		Value:      r.lastValue,
		Diagnostic: r.diagnostic,
	}
}

func (r *Relay) HandleMessage(_ string, payload []byte) {
	if r.OnMessage(payload) {
		r.logger.Debug("relay state changed", "item", r.Item().Name)
	}
}

func relayStateString(s statepath.State) string {
	switch s {
	case statepath.StateTrue:
		return "on"
	case statepath.StateFalse:
		return "off"
	default:
		return "unknown"
	}
}
