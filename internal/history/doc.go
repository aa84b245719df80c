// Package history accumulates per-place occupancy trends.
//
// Each place carries 24 hourly buckets that are nudged incrementally
// as snapshots arrive: the bucket average is folded towards the new
// reading, the peak is raised monotonically and the visitor count
// grows by the occupied seats seen. Day-level stats (overall average,
// peak window, a wait-time estimate) are recomputed from the buckets
// on every update.
//
// The buckets describe hour-of-day, not a rolling window, so a place
// that is busy every lunchtime shows it regardless of which day the
// samples came from.
package history
