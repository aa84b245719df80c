package live

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crowdsight/crowdsight-core/internal/seating"
)

// Repository defines the interface for snapshot persistence.
type Repository interface {
	// Get retrieves the latest snapshot for a place.
	// Returns ErrSnapshotNotFound if the place has never been analysed.
	Get(ctx context.Context, placeID string) (*Snapshot, error)

	// Put stores a snapshot, replacing any previous one for the place.
	Put(ctx context.Context, snap *Snapshot) error

	// Delete removes the snapshot for a place, if any.
	Delete(ctx context.Context, placeID string) error
}

// SQLiteRepository implements Repository using SQLite. Seat and table
// structures are stored as JSON columns; they are opaque to queries
// and always read and written whole.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the latest snapshot for a place.
func (r *SQLiteRepository) Get(ctx context.Context, placeID string) (*Snapshot, error) {
	query := `
		SELECT place_id, place_name, seats, tables, occupancy_percent, last_update
		FROM live_data
		WHERE place_id = ?`

	var (
		snap       Snapshot
		seatsJSON  string
		tablesJSON string
		lastUpdate string
	)
	err := r.db.QueryRowContext(ctx, query, placeID).Scan(
		&snap.PlaceID,
		&snap.PlaceName,
		&seatsJSON,
		&tablesJSON,
		&snap.OccupancyPercent,
		&lastUpdate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(seatsJSON), &snap.Seats); err != nil {
		return nil, fmt.Errorf("unmarshalling seats: %w", err)
	}
	if err := json.Unmarshal([]byte(tablesJSON), &snap.Tables); err != nil {
		return nil, fmt.Errorf("unmarshalling tables: %w", err)
	}
	// Timestamps are written by us in RFC3339.
	snap.LastUpdate, _ = time.Parse(time.RFC3339, lastUpdate) //nolint:errcheck // Format is controlled

	return &snap, nil
}

// Put stores a snapshot, replacing any previous one for the place.
func (r *SQLiteRepository) Put(ctx context.Context, snap *Snapshot) error {
	seatsJSON, err := json.Marshal(emptyIfNilSeats(snap.Seats))
	if err != nil {
		return fmt.Errorf("marshalling seats: %w", err)
	}
	tablesJSON, err := json.Marshal(emptyIfNilTables(snap.Tables))
	if err != nil {
		return fmt.Errorf("marshalling tables: %w", err)
	}

	query := `
		INSERT INTO live_data (place_id, place_name, seats, tables, occupancy_percent, last_update)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			place_name = excluded.place_name,
			seats = excluded.seats,
			tables = excluded.tables,
			occupancy_percent = excluded.occupancy_percent,
			last_update = excluded.last_update`

	_, err = r.db.ExecContext(ctx, query,
		snap.PlaceID,
		snap.PlaceName,
		string(seatsJSON),
		string(tablesJSON),
		snap.OccupancyPercent,
		snap.LastUpdate.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a place, if any.
func (r *SQLiteRepository) Delete(ctx context.Context, placeID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM live_data WHERE place_id = ?", placeID,
	); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// emptyIfNilSeats keeps stored JSON as [] rather than null.
func emptyIfNilSeats(seats []seating.Seat) []seating.Seat {
	if seats == nil {
		return []seating.Seat{}
	}
	return seats
}

// emptyIfNilTables keeps stored JSON as [] rather than null.
func emptyIfNilTables(tables []seating.Table) []seating.Table {
	if tables == nil {
		return []seating.Table{}
	}
	return tables
}
