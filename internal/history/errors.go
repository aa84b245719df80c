package history

import "errors"

// Domain errors for the history package.
var (
	// ErrHistoryNotFound is returned when a place has no history
	// record yet.
	ErrHistoryNotFound = errors.New("history: not found")
)
