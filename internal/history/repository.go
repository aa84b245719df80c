package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for history persistence.
type Repository interface {
	// Get retrieves the history record for a place.
	// Returns ErrHistoryNotFound if no snapshot has been tracked yet.
	Get(ctx context.Context, placeID string) (*History, error)

	// Put stores a history record, replacing any previous one.
	Put(ctx context.Context, h *History) error

	// Delete removes the history for a place, if any.
	Delete(ctx context.Context, placeID string) error
}

// SQLiteRepository implements Repository using SQLite. Bucket and
// stats structures are stored as JSON columns and read and written
// whole; there is no per-bucket query path.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the history record for a place.
func (r *SQLiteRepository) Get(ctx context.Context, placeID string) (*History, error) {
	query := `
		SELECT place_id, place_name, date, hourly, today_stats
		FROM occupancy_history
		WHERE place_id = ?`

	var (
		h          History
		date       string
		hourlyJSON string
		statsJSON  string
	)
	err := r.db.QueryRowContext(ctx, query, placeID).Scan(
		&h.PlaceID,
		&h.PlaceName,
		&date,
		&hourlyJSON,
		&statsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("querying history: %w", err)
	}

	if err := json.Unmarshal([]byte(hourlyJSON), &h.Hourly); err != nil {
		return nil, fmt.Errorf("unmarshalling hourly buckets: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &h.TodayStats); err != nil {
		return nil, fmt.Errorf("unmarshalling today stats: %w", err)
	}
	// Timestamps are written by us in RFC3339.
	h.Date, _ = time.Parse(time.RFC3339, date) //nolint:errcheck // Format is controlled

	return &h, nil
}

// Put stores a history record, replacing any previous one.
func (r *SQLiteRepository) Put(ctx context.Context, h *History) error {
	hourlyJSON, err := json.Marshal(h.Hourly)
	if err != nil {
		return fmt.Errorf("marshalling hourly buckets: %w", err)
	}
	statsJSON, err := json.Marshal(h.TodayStats)
	if err != nil {
		return fmt.Errorf("marshalling today stats: %w", err)
	}

	query := `
		INSERT INTO occupancy_history (place_id, place_name, date, hourly, today_stats)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			place_name = excluded.place_name,
			date = excluded.date,
			hourly = excluded.hourly,
			today_stats = excluded.today_stats`

	_, err = r.db.ExecContext(ctx, query,
		h.PlaceID,
		h.PlaceName,
		h.Date.UTC().Format(time.RFC3339),
		string(hourlyJSON),
		string(statsJSON),
	)
	if err != nil {
		return fmt.Errorf("storing history: %w", err)
	}
	return nil
}

// Delete removes the history for a place, if any.
func (r *SQLiteRepository) Delete(ctx context.Context, placeID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM occupancy_history WHERE place_id = ?", placeID,
	); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}
