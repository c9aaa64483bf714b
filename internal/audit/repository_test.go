package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE activity_log (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		item_id    INTEGER,
		item_name  TEXT,
		source     TEXT NOT NULL,
		details    TEXT,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("creating activity_log table: %v", err)
	}
	return db
}

func TestCreate_GeneratesIDAndTimestamp(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	entry := &Entry{
		Action:   ActionCreate,
		ItemID:   1000,
		ItemName: "porch",
		Source:   "api",
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("ID not generated")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestList_FiltersAndPagination(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{Action: ActionCreate, ItemID: 1000, ItemName: "porch", Source: "api", CreatedAt: base},
		{Action: ActionCommand, ItemID: 1000, ItemName: "porch", Source: "api",
			Details: map[string]any{"action": "on"}, CreatedAt: base.Add(time.Minute)},
		{Action: ActionCreate, ItemID: 1001, ItemName: "door", Source: "api", CreatedAt: base.Add(2 * time.Minute)},
		{Action: ActionDelete, ItemID: 1001, ItemName: "door", Source: "api", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("all entries newest first", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 4 {
			t.Errorf("Total = %d, want 4", result.Total)
		}
		if result.Entries[0].Action != ActionDelete {
			t.Errorf("first entry action = %q, want delete", result.Entries[0].Action)
		}
	})

	t.Run("filter by action", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Action: ActionCreate})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 2 {
			t.Errorf("Total = %d, want 2", result.Total)
		}
	})

	t.Run("filter by item", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{ItemID: 1000})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 2 {
			t.Errorf("Total = %d, want 2", result.Total)
		}
		for _, e := range result.Entries {
			if e.ItemID != 1000 {
				t.Errorf("entry item_id = %d, want 1000", e.ItemID)
			}
		}
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 4 {
			t.Errorf("Total = %d, want 4", result.Total)
		}
		if len(result.Entries) != 2 {
			t.Errorf("len(Entries) = %d, want 2", len(result.Entries))
		}
	})

	t.Run("details round-trip", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Action: ActionCommand})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(result.Entries) != 1 {
			t.Fatalf("len(Entries) = %d, want 1", len(result.Entries))
		}
		if got := result.Entries[0].Details["action"]; got != "on" {
			t.Errorf("details action = %v, want on", got)
		}
	})
}

func TestList_EmptyResultIsNotNil(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Entries == nil {
		t.Error("Entries should be an empty slice, not nil")
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
}
