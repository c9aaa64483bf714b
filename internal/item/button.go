package item

// Button is a stateless trigger. Pressing it publishes the configured
// payload to the command topic; inbound messages carry no state and
// are ignored.
type Button struct {
	base
}

func (b *Button) OnMessage([]byte) bool { return false }

// Press publishes the press payload.
func (b *Button) Press() error {
	b.mu.Lock()
	topic := b.item.CommandTopic
	payload := b.item.PayloadPress
	b.mu.Unlock()
	return b.publish(topic, payload)
}

func (b *Button) Reconfigure(next Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyLocked(next)
}

func (b *Button) HandleMessage(string, []byte) {}
