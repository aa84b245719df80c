package live

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crowdsight/crowdsight-core/internal/seating"
)

// setupTestDB creates an in-memory SQLite database with the live_data table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE live_data (
			place_id TEXT PRIMARY KEY,
			place_name TEXT NOT NULL,
			seats TEXT NOT NULL,
			tables TEXT NOT NULL,
			occupancy_percent INTEGER NOT NULL DEFAULT 0,
			last_update TEXT NOT NULL
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

// testSnapshot builds a small consistent snapshot.
func testSnapshot(placeID string, pct int) *Snapshot {
	return &Snapshot{
		PlaceID:   placeID,
		PlaceName: "Test Cafe",
		Seats: []seating.Seat{
			{ID: "1-1", Occupied: true},
			{ID: "1-2", Occupied: false},
			{ID: "2-1", Occupied: true},
			{ID: "2-2", Occupied: false},
		},
		Tables: []seating.Table{
			{ID: "Table 1", Seats: []seating.Seat{
				{ID: "T1-1", Occupied: true},
				{ID: "T1-2", Occupied: false},
				{ID: "T1-3", Occupied: true},
				{ID: "T1-4", Occupied: false},
			}},
		},
		OccupancyPercent: pct,
		LastUpdate:       time.Now().UTC().Truncate(time.Second),
	}
}

// TestPutAndGet verifies snapshot round-tripping through JSON columns.
func TestPutAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	snap := testSnapshot("place-1", 50)
	if err := repo.Put(ctx, snap); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := repo.Get(ctx, "place-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PlaceName != "Test Cafe" || got.OccupancyPercent != 50 {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Seats) != 4 || len(got.Tables) != 1 {
		t.Fatalf("Get() seats=%d tables=%d, want 4 and 1", len(got.Seats), len(got.Tables))
	}
	if !got.Seats[0].Occupied || got.Seats[1].Occupied {
		t.Error("seat occupied flags did not round-trip")
	}
	if !got.LastUpdate.Equal(snap.LastUpdate) {
		t.Errorf("LastUpdate = %v, want %v", got.LastUpdate, snap.LastUpdate)
	}
}

// TestGetNotFound verifies the never-analysed sentinel.
func TestGetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "never-analysed")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Get() error = %v, want ErrSnapshotNotFound", err)
	}
}

// TestPutReplaces verifies full-replace semantics.
func TestPutReplaces(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, testSnapshot("place-1", 30)); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}

	second := testSnapshot("place-1", 80)
	second.Seats = []seating.Seat{{ID: "1-1", Occupied: true}}
	second.Tables = []seating.Table{{ID: "Table 1", Seats: second.Seats}}
	if err := repo.Put(ctx, second); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	got, err := repo.Get(ctx, "place-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.OccupancyPercent != 80 || len(got.Seats) != 1 {
		t.Errorf("Get() = %+v, want fully replaced snapshot", got)
	}
}

// TestPutNilSlices verifies empty layouts store as [] not null.
func TestPutNilSlices(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	snap := &Snapshot{
		PlaceID:    "place-1",
		PlaceName:  "Empty",
		LastUpdate: time.Now().UTC(),
	}
	if err := repo.Put(ctx, snap); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := repo.Get(ctx, "place-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Seats == nil || got.Tables == nil {
		t.Error("empty layouts should decode as empty slices")
	}
}

// TestDelete verifies removal is idempotent.
func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, testSnapshot("place-1", 40)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := repo.Delete(ctx, "place-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "place-1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSnapshotNotFound", err)
	}
	if err := repo.Delete(ctx, "place-1"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

// TestOccupiedSeats verifies the convenience counter.
func TestOccupiedSeats(t *testing.T) {
	snap := testSnapshot("place-1", 50)
	if got := snap.OccupiedSeats(); got != 2 {
		t.Errorf("OccupiedSeats() = %d, want 2", got)
	}
}
