package place

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the places table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE places (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			video_url TEXT NOT NULL DEFAULT '',
			video_analyzed INTEGER NOT NULL DEFAULT 0,
			video_uploaded_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
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

// testPlace creates a place for testing.
func testPlace(id, name string) *Place {
	now := time.Now().UTC().Truncate(time.Second)
	return &Place{
		ID:        id,
		Name:      name,
		Capacity:  20,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestCreateAndGetByID verifies round-tripping a place.
func TestCreateAndGetByID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	p := testPlace("place-1", "Reading Room")
	p.Description = "Second floor"

	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "place-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Reading Room" || got.Description != "Second floor" || got.Capacity != 20 {
		t.Errorf("GetByID() = %+v, want stored fields back", got)
	}
	if got.VideoAnalyzed {
		t.Error("new place should not be marked video-analysed")
	}
}

// TestGetByIDNotFound verifies the sentinel error mapping.
func TestGetByIDNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrPlaceNotFound", err)
	}
}

// TestCreateDuplicate verifies duplicate IDs are rejected.
func TestCreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testPlace("place-1", "First")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(ctx, testPlace("place-1", "Second"))
	if !errors.Is(err, ErrPlaceExists) {
		t.Errorf("duplicate Create() error = %v, want ErrPlaceExists", err)
	}
}

// TestCreateValidation verifies invalid places never reach the database.
func TestCreateValidation(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*Place)
		wantErr error
	}{
		{"empty name", func(p *Place) { p.Name = "" }, ErrInvalidName},
		{"whitespace name", func(p *Place) { p.Name = "   " }, ErrInvalidName},
		{"zero capacity", func(p *Place) { p.Capacity = 0 }, ErrInvalidCapacity},
		{"negative capacity", func(p *Place) { p.Capacity = -5 }, ErrInvalidCapacity},
		{"absurd capacity", func(p *Place) { p.Capacity = MaxCapacity + 1 }, ErrInvalidCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPlace("place-x", "Valid Name")
			tt.mutate(p)
			if err := repo.Create(ctx, p); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestList verifies ordering and completeness.
func TestList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Zeta Cafe", "Alpha Bar", "Mid Lounge"} {
		p := testPlace("place-"+name, name)
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	places, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(places) != 3 {
		t.Fatalf("List() returned %d places, want 3", len(places))
	}
	if places[0].Name != "Alpha Bar" || places[2].Name != "Zeta Cafe" {
		t.Errorf("List() not ordered by name: %s, %s, %s",
			places[0].Name, places[1].Name, places[2].Name)
	}
}

// TestUpdate verifies field updates and the not-found path.
func TestUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	p := testPlace("place-1", "Old Name")
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	p.Name = "New Name"
	p.Capacity = 50
	if err := repo.Update(ctx, p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "place-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "New Name" || got.Capacity != 50 {
		t.Errorf("updated place = %+v", got)
	}

	missing := testPlace("missing", "Ghost")
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrPlaceNotFound", err)
	}
}

// TestDelete verifies removal and the not-found path.
func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testPlace("place-1", "Doomed")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Delete(ctx, "place-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "place-1"); !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrPlaceNotFound", err)
	}
	if err := repo.Delete(ctx, "place-1"); !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("second Delete() error = %v, want ErrPlaceNotFound", err)
	}
}

// TestMediaUpdates verifies the image and video upload bookkeeping.
func TestMediaUpdates(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testPlace("place-1", "Cafe")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("SetImage", func(t *testing.T) {
		if err := repo.SetImage(ctx, "place-1", "/uploads/abc.jpg"); err != nil {
			t.Fatalf("SetImage() error = %v", err)
		}
		got, _ := repo.GetByID(ctx, "place-1")
		if got.ImageURL != "/uploads/abc.jpg" {
			t.Errorf("ImageURL = %q", got.ImageURL)
		}
	})

	t.Run("SetVideo clears analysed flag", func(t *testing.T) {
		uploaded := time.Now().UTC().Truncate(time.Second)
		if err := repo.SetVideo(ctx, "place-1", "/uploads/clip.mp4", uploaded); err != nil {
			t.Fatalf("SetVideo() error = %v", err)
		}
		got, _ := repo.GetByID(ctx, "place-1")
		if got.VideoURL != "/uploads/clip.mp4" {
			t.Errorf("VideoURL = %q", got.VideoURL)
		}
		if got.VideoAnalyzed {
			t.Error("VideoAnalyzed should be cleared on upload")
		}
		if got.VideoUploadedAt == nil || !got.VideoUploadedAt.Equal(uploaded) {
			t.Errorf("VideoUploadedAt = %v, want %v", got.VideoUploadedAt, uploaded)
		}
	})

	t.Run("MarkVideoAnalyzed", func(t *testing.T) {
		if err := repo.MarkVideoAnalyzed(ctx, "place-1"); err != nil {
			t.Fatalf("MarkVideoAnalyzed() error = %v", err)
		}
		got, _ := repo.GetByID(ctx, "place-1")
		if !got.VideoAnalyzed {
			t.Error("VideoAnalyzed should be set")
		}
	})

	t.Run("missing place yields sentinel", func(t *testing.T) {
		if err := repo.SetImage(ctx, "nope", "/uploads/x.jpg"); !errors.Is(err, ErrPlaceNotFound) {
			t.Errorf("SetImage(missing) error = %v, want ErrPlaceNotFound", err)
		}
	})
}
