// Package seating turns a scalar occupancy percentage into a
// structured seat and table map for a place.
//
// Layouts are synthetic: the system knows a place's capacity, not its
// floor plan. Grid() arranges seats in a near-square grid and Tables()
// groups the same capacity into tables of 4-8 seats. Both layouts are
// regenerated wholesale on every analysis run and never individually
// mutated.
//
// ApplyOccupancy marks an exact number of seats occupied, scattered
// uniformly via a Fisher-Yates shuffle, and MirrorTables copies those
// flags positionally onto the table layout so the two views always
// agree. The random source is injected for test determinism.
package seating
