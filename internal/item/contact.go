package item

import "github.com/nerrad567/itembridge/internal/statepath"

// Contact is a binary input such as a door or window sensor. It shares
// the relay's parser with open/closed markers; the true state maps to
// "open". Contacts accept no commands.
type Contact struct {
	base
	state statepath.State
}

func (c *Contact) OnMessage(payload []byte) bool {
	c.mu.Lock()
	value, ok := c.ingestLocked(payload)
	if !ok {
		c.mu.Unlock()
		return false
	}
	next := statepath.Parse(value, c.item.PayloadOpen, c.item.PayloadClosed)
	if next == statepath.StateUndetermined {
		c.diagnostic = "state payload " + value + " matched neither marker"
		c.mu.Unlock()
		return false
	}
	if next == c.state {
		c.mu.Unlock()
		return false
	}
	c.state = next
	id := c.item.ID
	c.mu.Unlock()

	c.notify.StateChanged(id, next == statepath.StateTrue)
	return true
}

func (c *Contact) Reconfigure(next Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applyLocked(next) {
		c.state = statepath.StateUndetermined
	}
}

func (c *Contact) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Item:       c.item,
		State:      contactStateString(c.state),
		Value:      c.lastValue,
		Diagnostic: c.diagnostic,
	}
}

func (c *Contact) HandleMessage(_ string, payload []byte) {
	if c.OnMessage(payload) {
		c.logger.Debug("contact state changed", "item", c.Item().Name)
	}
}

func contactStateString(s statepath.State) string {
	switch s {
	case statepath.StateTrue:
		return "open"
	case statepath.StateFalse:
		return "closed"
	default:
		return "unknown"
	}
}
