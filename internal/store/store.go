package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Store.
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

// Store is a namespaced key/value map with write-through persistence.
//
// Reads are served from an in-memory cache populated by Load. Writes
// persist through the Repository first and update the cache only on
// success, so the cache never runs ahead of durable state.
//
// All public methods are thread-safe.
type Store struct {
	repo   Repository
	cache  map[string]map[string]any // namespace -> key -> decoded value
	mu     sync.Mutex
	logger Logger
}

// New creates a new Store backed by the given repository.
// Call Load before first use to populate the cache.
func New(repo Repository) *Store {
	return &Store{
		repo:   repo,
		cache:  make(map[string]map[string]any),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load reads every persisted entry into the cache.
// This should be called once on application startup.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("loading store entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string]map[string]any, len(raw))
	count := 0
	for namespace, entries := range raw {
		ns := make(map[string]any, len(entries))
		for key, value := range entries {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				// A corrupt row should not take the whole bridge down.
				s.logger.Warn("skipping undecodable store entry",
					"namespace", namespace, "key", key, "error", err)
				continue
			}
			ns[key] = decoded
			count++
		}
		s.cache[namespace] = ns
	}

	s.logger.Info("store loaded", "entries", count, "namespaces", len(raw))
	return nil
}

// Get retrieves a value. The result is a deep copy; callers can safely
// modify it without affecting the stored value.
func (s *Store) Get(namespace, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.cache[namespace]
	if !ok {
		return nil, false
	}
	value, ok := ns[key]
	if !ok {
		return nil, false
	}
	return deepCopyValue(value), true
}

// Put stores a value, replacing any existing entry.
//
// The value must be a JSON-encodable tree (maps, slices, scalars). It is
// deep-copied before caching, so later mutations by the caller are not
// observed by the store.
func (s *Store) Put(ctx context.Context, namespace, key string, value any) error {
	if namespace == "" || key == "" {
		return ErrInvalidKey
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Put(ctx, namespace, key, encoded); err != nil {
		return err
	}

	ns, ok := s.cache[namespace]
	if !ok {
		ns = make(map[string]any)
		s.cache[namespace] = ns
	}
	// Decode the canonical encoding rather than copying the caller's
	// value directly: this normalises types (ints become float64, structs
	// become maps) so Get always returns the same shapes Load would.
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	ns[key] = decoded

	return nil
}

// Delete removes a value. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	if namespace == "" || key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, namespace, key); err != nil {
		return err
	}

	if ns, ok := s.cache[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

// Keys returns the sorted keys of a namespace.
func (s *Store) Keys(namespace string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.cache[namespace]
	keys := make([]string, 0, len(ns))
	for key := range ns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// List returns every value in a namespace, keyed by entry key.
// The returned values are deep copies.
func (s *Store) List(namespace string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.cache[namespace]
	out := make(map[string]any, len(ns))
	for key, value := range ns {
		out[key] = deepCopyValue(value)
	}
	return out
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		cpy := make(map[string]any, len(val))
		for k, elem := range val {
			cpy[k] = deepCopyValue(elem)
		}
		return cpy
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, float64, etc.) are safe to copy by value
		return v
	}
}
