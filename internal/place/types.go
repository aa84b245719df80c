package place

import (
	"strings"
	"time"
)

// Validation limits.
const (
	// maxNameLength bounds place names for storage and display.
	maxNameLength = 100

	// MaxCapacity bounds how many seats a single place may declare.
	MaxCapacity = 10000
)

// Place represents a monitored venue.
type Place struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Capacity is the number of seats synthesized for this place.
	Capacity int `json:"capacity"`

	// ImageURL and VideoURL point at the most recently uploaded
	// analysis sources, relative to the upload directory.
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`

	// VideoAnalyzed records whether the current video has produced an
	// occupancy reading yet.
	VideoAnalyzed   bool       `json:"video_analyzed"`
	VideoUploadedAt *time.Time `json:"video_uploaded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks a place for storable field values.
//
// Returns:
//   - error: ErrInvalidName or ErrInvalidCapacity describing the first
//     problem found, nil when the place is valid
func (p *Place) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > maxNameLength {
		return ErrInvalidName
	}
	if p.Capacity < 1 || p.Capacity > MaxCapacity {
		return ErrInvalidCapacity
	}
	return nil
}
