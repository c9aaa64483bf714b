package identity

import (
	"context"
	"sort"
	"sync"
)

// MemoryHost is a Host that keeps registrations in process memory.
// It backs deployments with no external host integration and the
// registry tests; the admin API reads it to expose live registrations.
type MemoryHost struct {
	mu    sync.Mutex
	slots map[Kind]map[int]hostSlot
}

type hostSlot struct {
	key         string
	placeholder bool
}

// NewMemoryHost returns an empty MemoryHost.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{slots: make(map[Kind]map[int]hostSlot)}
}

func (h *MemoryHost) kindSlots(kind Kind) map[int]hostSlot {
	if h.slots[kind] == nil {
		h.slots[kind] = make(map[int]hostSlot)
	}
	return h.slots[kind]
}

// Register creates or refreshes a registration. Idempotent: an
// existing slot is overwritten with the new key.
func (h *MemoryHost) Register(_ context.Context, kind Kind, id int, key string, _ map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kindSlots(kind)[id] = hostSlot{key: key}
	return nil
}

// RegisterPlaceholder records an inert slot that only holds its
// ordinal position.
func (h *MemoryHost) RegisterPlaceholder(_ context.Context, kind Kind, id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kindSlots(kind)[id] = hostSlot{placeholder: true}
	return nil
}

// Unregister removes a registration. Unknown ids are ignored.
func (h *MemoryHost) Unregister(_ context.Context, kind Kind, id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.kindSlots(kind), id)
	return nil
}

// Registered returns the ids of all live registrations for a kind in
// ascending order.
func (h *MemoryHost) Registered(_ context.Context, kind Kind) ([]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slots := h.kindSlots(kind)
	ids := make([]int, 0, len(slots))
	for id := range slots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// Key returns the key a registration was made under and whether the
// id is live. Placeholders report ok with an empty key.
func (h *MemoryHost) Key(kind Kind, id int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, ok := h.kindSlots(kind)[id]
	return slot.key, ok
}
