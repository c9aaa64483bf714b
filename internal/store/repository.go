package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository defines the persistence interface for store entries.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// List retrieves every entry in a namespace, keyed by entry key.
	List(ctx context.Context, namespace string) (map[string]json.RawMessage, error)

	// ListAll retrieves every entry across all namespaces.
	ListAll(ctx context.Context) (map[string]map[string]json.RawMessage, error)

	// Put inserts or replaces an entry.
	Put(ctx context.Context, namespace, key string, value json.RawMessage) error

	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, namespace, key string) error
}

// SQLiteRepository implements Repository using the store_entries table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List retrieves every entry in a namespace.
func (r *SQLiteRepository) List(ctx context.Context, namespace string) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM store_entries WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying namespace %q: %w", namespace, err)
	}
	defer rows.Close()

	entries := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning store row: %w", err)
		}
		entries[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating store rows: %w", err)
	}
	return entries, nil
}

// ListAll retrieves every entry across all namespaces.
func (r *SQLiteRepository) ListAll(ctx context.Context) (map[string]map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT namespace, key, value FROM store_entries`)
	if err != nil {
		return nil, fmt.Errorf("querying store entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]map[string]json.RawMessage)
	for rows.Next() {
		var namespace, key, value string
		if err := rows.Scan(&namespace, &key, &value); err != nil {
			return nil, fmt.Errorf("scanning store row: %w", err)
		}
		ns, ok := entries[namespace]
		if !ok {
			ns = make(map[string]json.RawMessage)
			entries[namespace] = ns
		}
		ns[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating store rows: %w", err)
	}
	return entries, nil
}

// Put inserts or replaces an entry.
func (r *SQLiteRepository) Put(ctx context.Context, namespace, key string, value json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_entries (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		namespace, key, string(value), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing store entry %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete removes an entry.
func (r *SQLiteRepository) Delete(ctx context.Context, namespace, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM store_entries WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return fmt.Errorf("deleting store entry %s/%s: %w", namespace, key, err)
	}
	return nil
}
