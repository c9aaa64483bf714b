package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Store is the slice of the persistent store the registry uses.
type Store interface {
	Get(namespace, key string) (any, bool)
	Put(ctx context.Context, namespace, key string, value any) error
	Delete(ctx context.Context, namespace, key string) error
	List(namespace string) map[string]any
}

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

const (
	// storePrefix namespaces registry slots inside the shared store.
	storePrefix = "identity:"

	// metaKeyHWM holds the per-namespace allocation high-water mark.
	// It survives trailing-tombstone trimming so ids stay monotonic.
	metaKeyHWM = "!hwm"

	// tombstoneKeyPrefix retires the keys of deleted observable slots.
	tombstoneKeyPrefix = "!tombstone:"
)

// Registry allocates stable numeric ids and keeps them in sync with the
// host platform's live registrations.
//
// All public methods are thread-safe.
type Registry struct {
	store  Store
	host   Host
	ranges map[Kind]Range
	logger Logger
	mu     sync.Mutex
}

// NewRegistry creates a registry over the given store and host using
// the default per-kind id ranges.
func NewRegistry(st Store, host Host) *Registry {
	return &Registry{
		store:  st,
		host:   host,
		ranges: DefaultRanges(),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetRange overrides the managed id range for a kind.
// Must be called before any allocation.
func (r *Registry) SetRange(kind Kind, rng Range) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges[kind] = rng
}

// GetOrCreate returns the slot for (namespace, key), allocating and
// registering a new one if none exists.
//
// An existing slot is returned unchanged: its id is immutable and its
// stored registration args are not overwritten. A new slot persists
// first and registers with the host second; if the host call fails the
// persisted slot is rolled back and the error returned.
func (r *Registry) GetOrCreate(ctx context.Context, namespace, key string, kind Kind, args map[string]any) (Record, error) {
	if key == "" || strings.HasPrefix(key, "!") {
		return Record{}, ErrInvalidKey
	}
	rng, ok := r.ranges[kind]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.lookup(namespace, key); ok {
		if existing.Kind != kind {
			return Record{}, fmt.Errorf("%w: %s/%s is %s, requested %s",
				ErrKindMismatch, namespace, key, existing.Kind, kind)
		}
		return existing, nil
	}

	id, err := r.allocate(ctx, namespace, kind, rng)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Namespace: namespace,
		Key:       key,
		Kind:      kind,
		ID:        id,
		Args:      args,
	}
	if err := r.store.Put(ctx, storePrefix+namespace, key, rec); err != nil {
		return Record{}, fmt.Errorf("persisting slot %s/%s: %w", namespace, key, err)
	}
	if err := r.host.Register(ctx, kind, id, key, args); err != nil {
		// Roll back so a retry can allocate cleanly.
		if delErr := r.store.Delete(ctx, storePrefix+namespace, key); delErr != nil {
			r.logger.Error("rolling back unregistered slot failed",
				"namespace", namespace, "key", key, "error", delErr)
		}
		return Record{}, fmt.Errorf("registering %s id %d with host: %w", kind, id, err)
	}

	r.logger.Info("slot allocated",
		"namespace", namespace, "key", key, "kind", string(kind), "id", id)
	return rec, nil
}

// Lookup returns the live (non-tombstone) slot for (namespace, key).
func (r *Registry) Lookup(namespace, key string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(namespace, key)
}

// Delete removes the host registration and the persisted slot.
//
// Observable slots are tombstoned instead of removed so later ids keep
// their ordinal positions, except that a run of tombstones at the top
// of the range with nothing allocated after it is trimmed away.
func (r *Registry) Delete(ctx context.Context, namespace, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.lookup(namespace, key)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
	}

	if err := r.host.Unregister(ctx, rec.Kind, rec.ID); err != nil {
		return fmt.Errorf("unregistering %s id %d: %w", rec.Kind, rec.ID, err)
	}

	ns := storePrefix + namespace
	if err := r.store.Delete(ctx, ns, key); err != nil {
		return fmt.Errorf("deleting slot %s/%s: %w", namespace, key, err)
	}

	if rec.Kind == KindObservable {
		tomb := Record{
			Namespace: namespace,
			Kind:      rec.Kind,
			ID:        rec.ID,
			Tombstone: true,
		}
		if err := r.store.Put(ctx, ns, tombstoneKey(rec.ID), tomb); err != nil {
			return fmt.Errorf("tombstoning slot %s/%s: %w", namespace, key, err)
		}
		if err := r.trimTrailingTombstones(ctx, namespace); err != nil {
			return err
		}
	}

	r.logger.Info("slot deleted",
		"namespace", namespace, "key", key, "kind", string(rec.Kind), "id", rec.ID)
	return nil
}

// Restore re-registers every persisted slot with the host and removes
// orphaned host registrations inside the managed ranges.
//
// Slots are processed in ascending id order across all namespaces; the
// host's positional bookkeeping for observable values depends on it.
func (r *Registry) Restore(ctx context.Context, namespaces []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []Record
	for _, namespace := range namespaces {
		all = append(all, r.records(namespace)...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	persisted := make(map[Kind]map[int]bool)
	for _, rec := range all {
		ids, ok := persisted[rec.Kind]
		if !ok {
			ids = make(map[int]bool)
			persisted[rec.Kind] = ids
		}
		ids[rec.ID] = true

		if rec.Tombstone {
			if err := r.host.RegisterPlaceholder(ctx, rec.Kind, rec.ID); err != nil {
				return fmt.Errorf("restoring placeholder %s id %d: %w", rec.Kind, rec.ID, err)
			}
			continue
		}
		if err := r.host.Register(ctx, rec.Kind, rec.ID, rec.Key, rec.Args); err != nil {
			return fmt.Errorf("restoring %s id %d: %w", rec.Kind, rec.ID, err)
		}
	}

	// Orphan cleanup: live registrations inside a managed range without
	// a persisted slot are leftovers from an earlier configuration.
	// Anything outside the ranges is not ours and stays untouched.
	for kind, rng := range r.ranges {
		live, err := r.host.Registered(ctx, kind)
		if err != nil {
			return fmt.Errorf("listing host registrations for %s: %w", kind, err)
		}
		for _, id := range live {
			if !rng.Contains(id) || persisted[kind][id] {
				continue
			}
			if err := r.host.Unregister(ctx, kind, id); err != nil {
				return fmt.Errorf("removing orphan %s id %d: %w", kind, id, err)
			}
			r.logger.Warn("removed orphaned host registration",
				"kind", string(kind), "id", id)
		}
	}

	r.logger.Info("identity restore complete", "slots", len(all))
	return nil
}

// Records returns all slots in a namespace, tombstones included, in
// ascending id order.
func (r *Registry) Records(namespace string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records(namespace)
}

// lookup finds a live slot by key. Callers must hold r.mu.
func (r *Registry) lookup(namespace, key string) (Record, bool) {
	value, ok := r.store.Get(storePrefix+namespace, key)
	if !ok {
		return Record{}, false
	}
	rec, ok := decodeRecord(value)
	if !ok || rec.Tombstone {
		return Record{}, false
	}
	return rec, true
}

// records lists and decodes a namespace. Callers must hold r.mu.
func (r *Registry) records(namespace string) []Record {
	entries := r.store.List(storePrefix + namespace)
	recs := make([]Record, 0, len(entries))
	for key, value := range entries {
		if key == metaKeyHWM {
			continue
		}
		rec, ok := decodeRecord(value)
		if !ok {
			r.logger.Warn("skipping undecodable slot", "namespace", namespace, "key", key)
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs
}

// allocate picks the next id for a new slot. Callers must hold r.mu.
//
// Observable ids are strictly monotonic: max of every id ever issued
// (tracked by a persisted high-water mark) plus one. Other kinds reuse
// the lowest free id in their range, since their ids carry no ordinal
// meaning once the registration is gone.
func (r *Registry) allocate(ctx context.Context, namespace string, kind Kind, rng Range) (int, error) {
	recs := r.records(namespace)

	if kind == KindObservable {
		next := rng.Low
		if hwm, ok := r.highWaterMark(namespace); ok && hwm+1 > next {
			next = hwm + 1
		}
		for _, rec := range recs {
			if rec.ID+1 > next {
				next = rec.ID + 1
			}
		}
		if next > rng.High {
			return 0, fmt.Errorf("%w: %s range %d-%d", ErrRangeExhausted, kind, rng.Low, rng.High)
		}
		if err := r.store.Put(ctx, storePrefix+namespace, metaKeyHWM, next); err != nil {
			return 0, fmt.Errorf("persisting high-water mark: %w", err)
		}
		return next, nil
	}

	used := make(map[int]bool, len(recs))
	for _, rec := range recs {
		used[rec.ID] = true
	}
	for id := rng.Low; id <= rng.High; id++ {
		if !used[id] {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s range %d-%d", ErrRangeExhausted, kind, rng.Low, rng.High)
}

// highWaterMark reads the persisted allocation mark. Callers must hold r.mu.
func (r *Registry) highWaterMark(namespace string) (int, bool) {
	value, ok := r.store.Get(storePrefix+namespace, metaKeyHWM)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// trimTrailingTombstones deletes the run of tombstones holding the
// highest ids in a namespace. Callers must hold r.mu.
func (r *Registry) trimTrailingTombstones(ctx context.Context, namespace string) error {
	recs := r.records(namespace)
	for i := len(recs) - 1; i >= 0; i-- {
		if !recs[i].Tombstone {
			break
		}
		key := tombstoneKey(recs[i].ID)
		if err := r.store.Delete(ctx, storePrefix+namespace, key); err != nil {
			return fmt.Errorf("trimming tombstone id %d: %w", recs[i].ID, err)
		}
		r.logger.Debug("trimmed trailing tombstone", "namespace", namespace, "id", recs[i].ID)
	}
	return nil
}

// tombstoneKey retires the store key of a deleted observable slot.
func tombstoneKey(id int) string {
	return tombstoneKeyPrefix + strconv.Itoa(id)
}

// decodeRecord converts a stored value back into a Record.
func decodeRecord(value any) (Record, bool) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(encoded, &rec); err != nil {
		return Record{}, false
	}
	if rec.ID == 0 {
		return Record{}, false
	}
	return rec, true
}
