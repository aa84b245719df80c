// Package analysis orchestrates occupancy runs: it feeds a place's
// uploaded image or video through the vision pipeline, synthesizes
// the seat and table map and commits the resulting snapshot.
//
// Runs are all-or-nothing. A snapshot is only written after scoring
// and synthesis both succeeded, so readers never observe a
// half-updated seat map, and a failed run leaves the previous
// snapshot untouched.
//
// Concurrent runs for different places proceed independently. Runs
// for the same place are serialised by a per-place lock; without it,
// two uploads racing through analysis could interleave their seat
// synthesis writes.
//
// The engine returns snapshots to its caller rather than broadcasting
// them itself. Whoever triggered the run (the upload handlers) owns
// fan-out to websocket, MQTT and telemetry sinks.
package analysis
