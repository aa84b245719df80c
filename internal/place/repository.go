package place

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for place persistence operations.
// This abstraction allows for different implementations (SQLite, mock,
// etc.) and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a place by its unique identifier.
	// Returns ErrPlaceNotFound if the place does not exist.
	GetByID(ctx context.Context, id string) (*Place, error)

	// List retrieves all places ordered by name.
	List(ctx context.Context) ([]Place, error)

	// Create inserts a new place.
	// Returns ErrPlaceExists if a place with the same ID already exists.
	Create(ctx context.Context, p *Place) error

	// Update modifies an existing place.
	// Returns ErrPlaceNotFound if the place does not exist.
	Update(ctx context.Context, p *Place) error

	// Delete removes a place by ID.
	// Returns ErrPlaceNotFound if the place does not exist.
	Delete(ctx context.Context, id string) error

	// SetImage records a newly uploaded image for the place.
	SetImage(ctx context.Context, id, imageURL string) error

	// SetVideo records a newly uploaded video and clears the analysed
	// flag until the next analysis run completes.
	SetVideo(ctx context.Context, id, videoURL string, uploadedAt time.Time) error

	// MarkVideoAnalyzed flags the current video as analysed.
	MarkVideoAnalyzed(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const placeColumns = `id, name, description, capacity, image_url, video_url,
	video_analyzed, video_uploaded_at, created_at, updated_at`

// GetByID retrieves a place by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPlace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("querying place by id: %w", err)
	}
	return p, nil
}

// List retrieves all places ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var places []Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning place row: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating places: %w", err)
	}
	return places, nil
}

// Create inserts a new place.
func (r *SQLiteRepository) Create(ctx context.Context, p *Place) error {
	if err := p.Validate(); err != nil {
		return err
	}

	exists, err := r.exists(ctx, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrPlaceExists
	}

	query := `
		INSERT INTO places (` + placeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Capacity,
		p.ImageURL,
		p.VideoURL,
		boolToInt(p.VideoAnalyzed),
		nullableTime(p.VideoUploadedAt),
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting place: %w", err)
	}
	return nil
}

// Update modifies an existing place.
func (r *SQLiteRepository) Update(ctx context.Context, p *Place) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE places
		SET name = ?, description = ?, capacity = ?, image_url = ?,
			video_url = ?, video_analyzed = ?, video_uploaded_at = ?,
			updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.Capacity,
		p.ImageURL,
		p.VideoURL,
		boolToInt(p.VideoAnalyzed),
		nullableTime(p.VideoUploadedAt),
		time.Now().UTC().Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating place: %w", err)
	}
	return requireRowAffected(result)
}

// Delete removes a place by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM places WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting place: %w", err)
	}
	return requireRowAffected(result)
}

// SetImage records a newly uploaded image for the place.
func (r *SQLiteRepository) SetImage(ctx context.Context, id, imageURL string) error {
	query := `UPDATE places SET image_url = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		imageURL,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("setting place image: %w", err)
	}
	return requireRowAffected(result)
}

// SetVideo records a newly uploaded video and clears the analysed flag.
func (r *SQLiteRepository) SetVideo(ctx context.Context, id, videoURL string, uploadedAt time.Time) error {
	query := `
		UPDATE places
		SET video_url = ?, video_analyzed = 0, video_uploaded_at = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		videoURL,
		uploadedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("setting place video: %w", err)
	}
	return requireRowAffected(result)
}

// MarkVideoAnalyzed flags the current video as analysed.
func (r *SQLiteRepository) MarkVideoAnalyzed(ctx context.Context, id string) error {
	query := `UPDATE places SET video_analyzed = 1, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("marking video analysed: %w", err)
	}
	return requireRowAffected(result)
}

// exists checks whether a place ID is already taken.
func (r *SQLiteRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM places WHERE id = ?", id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking place existence: %w", err)
	}
	return count > 0, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanPlace reads one place row.
func scanPlace(s scanner) (*Place, error) {
	var (
		p             Place
		videoAnalyzed int
		videoUploaded sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Capacity,
		&p.ImageURL,
		&p.VideoURL,
		&videoAnalyzed,
		&videoUploaded,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.VideoAnalyzed = videoAnalyzed != 0
	if videoUploaded.Valid {
		if t, err := time.Parse(time.RFC3339, videoUploaded.String); err == nil {
			p.VideoUploadedAt = &t
		}
	}
	// Timestamps are written by us in RFC3339; parse errors leave zero values.
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &p, nil
}

// requireRowAffected maps a zero-row UPDATE or DELETE to ErrPlaceNotFound.
func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrPlaceNotFound
	}
	return nil
}

// boolToInt converts a bool for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableTime formats an optional timestamp for storage.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
