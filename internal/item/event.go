package item

import "strings"

// Event turns inbound tokens into host event fires. Unlike the
// stateful kinds it is not change-gated: every token that passes the
// allow-list fires, so repeated identical tokens fire repeatedly.
type Event struct {
	base
	lastToken string
}

func (e *Event) OnMessage(payload []byte) bool {
	e.mu.Lock()
	token, ok := e.ingestLocked(payload)
	if !ok {
		e.mu.Unlock()
		return false
	}
	if !e.allowedLocked(token) {
		e.diagnostic = "token " + token + " not in allow-list"
		e.mu.Unlock()
		return false
	}
	e.lastToken = token
	id := e.item.ID
	e.mu.Unlock()

	e.notify.EventFired(id, token)
	return true
}

// allowedLocked checks the token against the configured allow-list.
// The list is comma-separated with surrounding whitespace ignored; an
// empty list accepts everything.
func (e *Event) allowedLocked(token string) bool {
	list := strings.TrimSpace(e.item.EventTokens)
	if list == "" {
		return true
	}
	for _, entry := range strings.Split(list, ",") {
		if strings.TrimSpace(entry) == token {
			return true
		}
	}
	return false
}

func (e *Event) Reconfigure(next Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.applyLocked(next) {
		e.lastToken = ""
	}
}

func (e *Event) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Item:       e.item,
		Value:      e.lastToken,
		Diagnostic: e.diagnostic,
	}
}

func (e *Event) HandleMessage(_ string, payload []byte) {
	if e.OnMessage(payload) {
		e.logger.Debug("event fired", "item", e.Item().Name)
	}
}
