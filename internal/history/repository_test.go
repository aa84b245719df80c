package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the
// occupancy_history table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE occupancy_history (
			place_id TEXT PRIMARY KEY,
			place_name TEXT NOT NULL,
			date TEXT NOT NULL,
			hourly TEXT NOT NULL,
			today_stats TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestPutAndGet verifies history round-tripping through JSON columns.
func TestPutAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	h := New("place-1", "Cafe", at(9))
	h.Record(10, 20, at(9))
	h.Record(16, 20, at(13))

	if err := repo.Put(ctx, h); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := repo.Get(ctx, "place-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PlaceName != "Cafe" {
		t.Errorf("PlaceName = %q", got.PlaceName)
	}
	if len(got.Hourly) != 24 {
		t.Fatalf("len(Hourly) = %d, want 24", len(got.Hourly))
	}
	if got.Hourly[13].TotalVisitors != 16 {
		t.Errorf("hour 13 visitors = %d, want 16", got.Hourly[13].TotalVisitors)
	}
	if got.TodayStats.TotalVisitors != 26 {
		t.Errorf("TodayStats.TotalVisitors = %d, want 26", got.TodayStats.TotalVisitors)
	}
}

// TestGetNotFound verifies the sentinel error mapping.
func TestGetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "never-tracked")
	if !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("Get() error = %v, want ErrHistoryNotFound", err)
	}
}

// TestPutReplaces verifies upsert semantics for repeated updates.
func TestPutReplaces(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	h := New("place-1", "Cafe", at(9))
	h.Record(10, 20, at(9))
	if err := repo.Put(ctx, h); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}

	h.Record(16, 20, at(10))
	if err := repo.Put(ctx, h); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	got, err := repo.Get(ctx, "place-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Hourly[10].TotalVisitors != 16 {
		t.Errorf("hour 10 visitors = %d, want 16", got.Hourly[10].TotalVisitors)
	}
}

// TestDelete verifies removal is idempotent.
func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, New("place-1", "Cafe", at(9))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := repo.Delete(ctx, "place-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "place-1"); !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrHistoryNotFound", err)
	}
	if err := repo.Delete(ctx, "place-1"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}
