package live

import (
	"time"

	"github.com/crowdsight/crowdsight-core/internal/seating"
)

// Snapshot is one complete, internally consistent occupancy reading
// for a place. The table seats mirror the flat seat list's occupied
// flags positionally, so both views always report the same count.
type Snapshot struct {
	PlaceID   string `json:"place_id"`
	PlaceName string `json:"place_name"`

	Seats  []seating.Seat  `json:"seats"`
	Tables []seating.Table `json:"tables"`

	// OccupancyPercent is the heuristic estimate the seats were
	// generated from, 0-100.
	OccupancyPercent int `json:"occupancy_percent"`

	LastUpdate time.Time `json:"last_update"`
}

// OccupiedSeats counts the occupied seats in the flat list.
func (s *Snapshot) OccupiedSeats() int {
	n := 0
	for _, seat := range s.Seats {
		if seat.Occupied {
			n++
		}
	}
	return n
}
