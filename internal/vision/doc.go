// Package vision implements the pixel-level heuristics that turn an
// image into an occupancy estimate.
//
// The pipeline has three stages:
//   - Decode: bytes in, bounded-resolution RGBA grid out
//   - Extract: grid in, three scalar signals out (brightness, edge
//     density, skin-tone density)
//   - Score: signals in, occupancy percent out
//
// There is no trained model here. The signals are cheap proxies:
// edge density stands in for structural clutter, skin-tone density
// for visible people, and darkness for activity. The scorer combines
// them with fixed weights and adds a small jitter so repeated runs
// over the same image do not produce a suspiciously static reading.
//
// Extraction is fully deterministic. The only randomness lives in the
// scorer, which takes an explicit *rand.Rand so tests can fix seeds.
//
// Grids are capped at a working width (default 320px) on decode,
// which bounds the cost of the O(width*height) signal passes
// regardless of source resolution.
package vision
