package live

import "errors"

// Domain errors for the live package.
var (
	// ErrSnapshotNotFound is returned when a place has no stored
	// snapshot yet, i.e. no analysis run has completed for it.
	ErrSnapshotNotFound = errors.New("live: snapshot not found")
)
