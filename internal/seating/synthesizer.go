package seating

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Table layout constants.
const (
	// seatsPerTableTarget is the nominal table size used to decide
	// how many tables a capacity is split into.
	seatsPerTableTarget = 6

	// minTableSeats and tableSeatSpread bound the random per-table
	// seat count: 4 + [0,4] gives tables of 4-8 seats.
	minTableSeats   = 4
	tableSeatSpread = 4
)

// Domain errors for the seating package.
var (
	// ErrInvalidCapacity is returned when a place's capacity is below 1.
	// Upstream should treat this as a data-integrity problem in the
	// place record, not a transient failure.
	ErrInvalidCapacity = errors.New("seating: capacity must be at least 1")

	// ErrSeatCountMismatch is returned when occupancy is applied to a
	// seat list whose length does not match the stated capacity.
	ErrSeatCountMismatch = errors.New("seating: seat count does not match capacity")
)

// Seat is one position in a place. IDs are stable human-readable
// labels: "row-col" in the grid layout, "Tn-m" in the table layout.
type Seat struct {
	ID       string `json:"id"`
	Occupied bool   `json:"occupied"`
}

// Table groups an ordered run of seats.
type Table struct {
	ID    string `json:"id"`
	Seats []Seat `json:"seats"`
}

// Synthesizer generates seat and table layouts. The random source
// drives table sizing and occupancy scatter; inject a fixed seed in
// tests for reproducible layouts.
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer drawing randomness from rng.
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// Grid lays capacity seats out in a near-square grid.
//
// Columns are ceil(sqrt(capacity)) and rows follow; seat i maps to
// id "{row+1}-{col+1}". The last row may be partial.
func (s *Synthesizer) Grid(capacity int) ([]Seat, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	cols := int(math.Ceil(math.Sqrt(float64(capacity))))
	seats := make([]Seat, capacity)
	for i := range seats {
		row, col := i/cols, i%cols
		seats[i] = Seat{ID: fmt.Sprintf("%d-%d", row+1, col+1)}
	}
	return seats, nil
}

// Tables splits capacity seats into max(1, ceil(capacity/6)) tables.
//
// Each table except the last gets a random 4-8 seats (bounded by what
// remains); the last table absorbs the remainder and may fall outside
// that range. Seat counts always sum to exactly capacity.
func (s *Synthesizer) Tables(capacity int) ([]Table, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	numTables := int(math.Ceil(float64(capacity) / seatsPerTableTarget))
	if numTables < 1 {
		numTables = 1
	}

	tables := make([]Table, 0, numTables)
	remaining := capacity
	for n := 1; n <= numTables; n++ {
		count := minTableSeats + s.rng.Intn(tableSeatSpread+1)
		if n == numTables || count > remaining {
			count = remaining
		}

		seats := make([]Seat, count)
		for m := range seats {
			seats[m] = Seat{ID: fmt.Sprintf("T%d-%d", n, m+1)}
		}
		tables = append(tables, Table{
			ID:    fmt.Sprintf("Table %d", n),
			Seats: seats,
		})
		remaining -= count

		if remaining == 0 {
			break
		}
	}
	return tables, nil
}

// OccupiedCount returns the number of seats that must be occupied for
// a given percentage of capacity.
func OccupiedCount(occupancyPercent, capacity int) int {
	return int(math.Round(float64(occupancyPercent) / 100 * float64(capacity)))
}

// ApplyOccupancy marks exactly OccupiedCount(occupancyPercent,
// capacity) seats occupied, chosen uniformly at random, and clears
// the rest. The seat slice is mutated in place.
//
// The shuffle guarantees the count invariant exactly while varying
// which seats appear taken between runs.
func (s *Synthesizer) ApplyOccupancy(seats []Seat, occupancyPercent, capacity int) error {
	if capacity < 1 {
		return ErrInvalidCapacity
	}
	if len(seats) != capacity {
		return fmt.Errorf("%w: %d seats for capacity %d", ErrSeatCountMismatch, len(seats), capacity)
	}

	occupied := OccupiedCount(occupancyPercent, capacity)

	indices := make([]int, capacity)
	for i := range indices {
		indices[i] = i
	}
	s.rng.Shuffle(capacity, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	for i := range seats {
		seats[i].Occupied = false
	}
	for _, idx := range indices[:occupied] {
		seats[idx].Occupied = true
	}
	return nil
}

// MirrorTables copies occupied flags from the flat seat list onto the
// table layout positionally, walking tables in order. The two layouts
// are built from the same capacity so the counts line up; any excess
// table seats are left unoccupied rather than guessed.
func MirrorTables(tables []Table, seats []Seat) {
	i := 0
	for t := range tables {
		for m := range tables[t].Seats {
			if i < len(seats) {
				tables[t].Seats[m].Occupied = seats[i].Occupied
			} else {
				tables[t].Seats[m].Occupied = false
			}
			i++
		}
	}
}
