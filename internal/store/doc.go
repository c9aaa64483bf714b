// Package store provides the durable key/value store backing the bridge.
//
// Every persisted shape in the bridge lives here: item records, identity
// slot records, and any other state that must survive a restart. Values
// are generic JSON trees (map[string]any, []any, scalars) grouped by
// namespace.
//
// # Semantics
//
// The store is deep-copy-on-read and deep-copy-on-write: a value handed
// to Put is cloned before caching, and a value returned from Get is a
// clone of the cached tree. Callers can never alias the store's internal
// state. Writes are read-modify-write under a single mutex, which gives
// the per-key serialization a concurrent caller set requires.
//
// # Layout
//
//   - Store: in-memory cache plus write-through persistence
//   - Repository: persistence interface (SQLite implementation provided)
//
// Usage:
//
//	repo := store.NewSQLiteRepository(db.DB)
//	st := store.New(repo)
//	if err := st.Load(ctx); err != nil { ... }
//	st.Put(ctx, "items", "12", record)
package store
