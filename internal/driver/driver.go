package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/itembridge/internal/identity"
	"github.com/nerrad567/itembridge/internal/item"
	"github.com/nerrad567/itembridge/internal/mux"
)

// Store namespaces.
const (
	nsItems            = "items"
	nsConnectionPoints = "connection_points"
	nsEvents           = "events"
	nsConditions       = "conditions"
	nsObservables      = "observables"
)

// Logger is the minimal logging surface the driver needs.
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

// Mux is the slice of the topic multiplexer the driver drives.
type Mux interface {
	Subscribe(topic, subscriberID string, qos byte, sub mux.Subscriber) error
	Unsubscribe(topic, subscriberID string)
	RemoveSubscriber(subscriberID string)
	Publish(topic string, payload []byte, qos byte, retain bool) error
	Status() mux.Status
}

// Store is the slice of the persistent store the driver uses for item
// records.
type Store interface {
	Get(namespace, key string) (any, bool)
	Put(ctx context.Context, namespace, key string, value any) error
	Delete(ctx context.Context, namespace, key string) error
	List(namespace string) map[string]any
}

// Driver owns the item lifecycle: it allocates identities, persists
// records, builds entity runtimes and binds them to broker topics.
type Driver struct {
	mu       sync.Mutex
	mux      Mux
	ids      *identity.Registry
	store    Store
	notify   item.Notifier
	logger   Logger
	entities map[int]item.Entity
	byName   map[string]int
	now      func() time.Time

	// names is kept under its own lock so ItemName stays callable
	// from notification paths that fire while mu is held, such as a
	// cached-payload replay during bind.
	nameMu sync.RWMutex
	names  map[int]string
}

// New builds a driver. The notifier receives the host-facing side
// effects every entity produces.
func New(m Mux, ids *identity.Registry, st Store, notify item.Notifier) *Driver {
	return &Driver{
		mux:      m,
		ids:      ids,
		store:    st,
		notify:   notify,
		logger:   noopLogger{},
		entities: make(map[int]item.Entity),
		byName:   make(map[string]int),
		names:    make(map[int]string),
		now:      time.Now,
	}
}

// SetLogger replaces the no-op default.
func (d *Driver) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// AddItem validates the record, allocates its stable id, persists it
// and binds the new entity to its state topic. The returned record
// carries the allocated id.
func (d *Driver) AddItem(ctx context.Context, rec item.Item) (item.Item, error) {
	if err := item.Validate(&rec); err != nil {
		return item.Item{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byName[rec.Name]; exists {
		return item.Item{}, fmt.Errorf("%w: %q", ErrDuplicateName, rec.Name)
	}

	namespace, idKind := identitySlot(rec.Kind)
	slot, err := d.ids.GetOrCreate(ctx, namespace, rec.Name, idKind, map[string]any{"item_kind": string(rec.Kind)})
	if err != nil {
		d.logger.Error("identity allocation failed", "item", rec.Name, "error", err)
		return item.Item{}, fmt.Errorf("allocating id for %q: %w", rec.Name, err)
	}
	rec.ID = slot.ID
	rec.CreatedAt = d.now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	// Relays and contacts additionally expose a boolean condition slot
	// so host rules can test their state.
	if rec.Kind == item.KindRelay || rec.Kind == item.KindContact {
		if _, err := d.ids.GetOrCreate(ctx, nsConditions, rec.Name, identity.KindCondition, nil); err != nil {
			d.rollbackSlot(ctx, namespace, rec.Name)
			d.logger.Error("condition allocation failed", "item", rec.Name, "error", err)
			return item.Item{}, fmt.Errorf("allocating condition for %q: %w", rec.Name, err)
		}
	}

	entity, err := item.New(rec, d.mux, d.notify, d.logger)
	if err != nil {
		d.rollbackSlot(ctx, nsConditions, rec.Name)
		d.rollbackSlot(ctx, namespace, rec.Name)
		return item.Item{}, err
	}

	if err := d.store.Put(ctx, nsItems, strconv.Itoa(rec.ID), rec); err != nil {
		d.rollbackSlot(ctx, nsConditions, rec.Name)
		d.rollbackSlot(ctx, namespace, rec.Name)
		return item.Item{}, fmt.Errorf("persisting item %q: %w", rec.Name, err)
	}

	d.setName(rec.ID, rec.Name)
	d.bind(rec, entity)
	d.entities[rec.ID] = entity
	d.byName[rec.Name] = rec.ID

	d.logger.Info("item added", "item", rec.Name, "id", rec.ID, "kind", rec.Kind)
	return rec, nil
}

// UpdateItem reconfigures a live item in place. Name and kind are
// immutable; a changed state topic rebinds the entity and discards its
// cached runtime state.
func (d *Driver) UpdateItem(ctx context.Context, id int, next item.Item) (item.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entity, ok := d.entities[id]
	if !ok {
		return item.Item{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	current := entity.Item()
	if next.Name != current.Name {
		return item.Item{}, fmt.Errorf("%w: %q", ErrNameImmutable, current.Name)
	}
	if next.Kind != current.Kind {
		return item.Item{}, fmt.Errorf("%w: %q", ErrKindImmutable, current.Name)
	}
	next.ID = id
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = d.now().UTC()
	if err := item.Validate(&next); err != nil {
		return item.Item{}, err
	}

	if err := d.store.Put(ctx, nsItems, strconv.Itoa(id), next); err != nil {
		return item.Item{}, fmt.Errorf("persisting item %q: %w", next.Name, err)
	}

	entity.Reconfigure(next)
	if current.StateTopic != next.StateTopic {
		if current.StateTopic != "" {
			d.mux.Unsubscribe(current.StateTopic, subscriberID(id))
		}
		d.bind(next, entity)
	}

	d.logger.Info("item updated", "item", next.Name, "id", id)
	return entity.Item(), nil
}

// RemoveItem deletes a live item: its topic bindings, identity slots
// and persisted record all go.
func (d *Driver) RemoveItem(ctx context.Context, id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entity, ok := d.entities[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	rec := entity.Item()

	d.mux.RemoveSubscriber(subscriberID(id))

	namespace, _ := identitySlot(rec.Kind)
	if err := d.ids.Delete(ctx, namespace, rec.Name); err != nil {
		d.logger.Warn("identity slot release failed", "item", rec.Name, "error", err)
	}
	d.rollbackSlot(ctx, nsConditions, rec.Name)

	if err := d.store.Delete(ctx, nsItems, strconv.Itoa(id)); err != nil {
		return fmt.Errorf("deleting item %q: %w", rec.Name, err)
	}

	delete(d.entities, id)
	delete(d.byName, rec.Name)
	d.clearName(id)
	d.logger.Info("item removed", "item", rec.Name, "id", id)
	return nil
}

// Restore rebuilds entities from persisted records on boot. Identity
// slots are re-registered with the host first, then every stored item
// record gets its entity and topic binding back.
func (d *Driver) Restore(ctx context.Context) error {
	namespaces := []string{nsConnectionPoints, nsEvents, nsConditions, nsObservables}
	if err := d.ids.Restore(ctx, namespaces); err != nil {
		return fmt.Errorf("restoring identity registries: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	records := make([]item.Item, 0)
	for key, value := range d.store.List(nsItems) {
		rec, ok := decodeItem(value)
		if !ok {
			d.logger.Warn("skipping undecodable item record", "key", key)
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	for _, rec := range records {
		entity, err := item.New(rec, d.mux, d.notify, d.logger)
		if err != nil {
			d.logger.Warn("skipping invalid item record", "item", rec.Name, "error", err)
			continue
		}
		d.setName(rec.ID, rec.Name)
		d.bind(rec, entity)
		d.entities[rec.ID] = entity
		d.byName[rec.Name] = rec.ID
	}

	d.logger.Info("items restored", "count", len(d.entities))
	return nil
}

// Close unbinds every entity from the multiplexer. Persistent state is
// untouched; Restore brings the items back on the next boot.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.entities {
		d.mux.RemoveSubscriber(subscriberID(id))
	}
	d.entities = make(map[int]item.Entity)
	d.byName = make(map[string]int)
	d.nameMu.Lock()
	d.names = make(map[int]string)
	d.nameMu.Unlock()
}

// ItemName returns the name of a live item, or the empty string for an
// unknown id. Unlike Item it takes only the name lock, so notifier
// callbacks triggered inside a topic bind may call it.
func (d *Driver) ItemName(id int) string {
	d.nameMu.RLock()
	defer d.nameMu.RUnlock()
	return d.names[id]
}

func (d *Driver) setName(id int, name string) {
	d.nameMu.Lock()
	d.names[id] = name
	d.nameMu.Unlock()
}

func (d *Driver) clearName(id int) {
	d.nameMu.Lock()
	delete(d.names, id)
	d.nameMu.Unlock()
}

// Item returns the configuration record of a live item.
func (d *Driver) Item(id int) (item.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entity, ok := d.entities[id]
	if !ok {
		return item.Item{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return entity.Item(), nil
}

// Snapshot returns the runtime state of a live item.
func (d *Driver) Snapshot(id int) (item.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entity, ok := d.entities[id]
	if !ok {
		return item.Snapshot{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return entity.Snapshot(), nil
}

// Snapshots returns every live item's runtime state, ascending by id.
func (d *Driver) Snapshots() []item.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]int, 0, len(d.entities))
	for id := range d.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	snaps := make([]item.Snapshot, 0, len(ids))
	for _, id := range ids {
		snaps = append(snaps, d.entities[id].Snapshot())
	}
	return snaps
}

// TurnOn issues the on command to a relay item.
func (d *Driver) TurnOn(id int) error {
	relay, err := d.relay(id)
	if err != nil {
		return err
	}
	return relay.TurnOn()
}

// TurnOff issues the off command to a relay item.
func (d *Driver) TurnOff(id int) error {
	relay, err := d.relay(id)
	if err != nil {
		return err
	}
	return relay.TurnOff()
}

// Press triggers a button item.
func (d *Driver) Press(id int) error {
	entity, err := d.entity(id)
	if err != nil {
		return err
	}
	button, ok := entity.(*item.Button)
	if !ok {
		return fmt.Errorf("%w: id %d", item.ErrNotCommandable, id)
	}
	return button.Press()
}

// SetVariable applies an external observable change to a variable
// item, publishing the value outward unchanged.
func (d *Driver) SetVariable(id int, value string) error {
	entity, err := d.entity(id)
	if err != nil {
		return err
	}
	variable, ok := entity.(*item.Variable)
	if !ok {
		return fmt.Errorf("%w: id %d", item.ErrNotCommandable, id)
	}
	return variable.SetValue(value)
}

// Status reports the user-facing driver status.
func (d *Driver) Status() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.entities) == 0 {
		return "Not configured"
	}
	status := d.mux.Status()
	if status != mux.StatusConnected {
		return status.String()
	}

	// Connected, but an item that needs a state topic without one
	// degrades the status so the operator sees the gap.
	ids := make([]int, 0, len(d.entities))
	for id := range d.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		rec := d.entities[id].Item()
		if needsStateTopic(rec) && rec.StateTopic == "" {
			return fmt.Sprintf("Connected (degraded: missing topic for %s)", rec.Name)
		}
	}
	return "Connected"
}

func (d *Driver) entity(id int) (item.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entity, ok := d.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return entity, nil
}

func (d *Driver) relay(id int) (*item.Relay, error) {
	entity, err := d.entity(id)
	if err != nil {
		return nil, err
	}
	relay, ok := entity.(*item.Relay)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", item.ErrNotCommandable, id)
	}
	return relay, nil
}

// bind subscribes an entity to its state topic. Items without a state
// topic have no inbound binding.
func (d *Driver) bind(rec item.Item, entity item.Entity) {
	if rec.StateTopic == "" {
		return
	}
	if err := d.mux.Subscribe(rec.StateTopic, subscriberID(rec.ID), rec.QoS, entity); err != nil {
		d.logger.Warn("topic binding failed", "item", rec.Name, "topic", rec.StateTopic, "error", err)
	}
}

// rollbackSlot releases an identity slot on a failed or torn-down add.
// A slot that was never allocated is not an error.
func (d *Driver) rollbackSlot(ctx context.Context, namespace, key string) {
	if err := d.ids.Delete(ctx, namespace, key); err != nil && !isNotFound(err) {
		d.logger.Warn("identity slot release failed", "namespace", namespace, "key", key, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, identity.ErrNotFound)
}

func subscriberID(id int) string {
	return "item:" + strconv.Itoa(id)
}

// identitySlot maps an item kind to the registry namespace and id kind
// its primary id comes from.
func identitySlot(kind item.Kind) (string, identity.Kind) {
	switch kind {
	case item.KindEvent:
		return nsEvents, identity.KindEvent
	case item.KindVariable, item.KindSensor:
		return nsObservables, identity.KindObservable
	default:
		return nsConnectionPoints, identity.KindConnectionPoint
	}
}

// needsStateTopic reports whether a kind is incomplete without an
// inbound binding. Relays running optimistically are self-sufficient;
// buttons are outbound-only.
func needsStateTopic(rec item.Item) bool {
	switch rec.Kind {
	case item.KindButton:
		return false
	case item.KindRelay:
		return rec.Optimistic == item.OptimisticOff
	default:
		return true
	}
}

// decodeItem converts a stored record (a generic JSON document from
// the store) back into an Item.
func decodeItem(value any) (item.Item, bool) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return item.Item{}, false
	}
	var rec item.Item
	if err := json.Unmarshal(encoded, &rec); err != nil || rec.ID == 0 {
		return item.Item{}, false
	}
	return rec, true
}
