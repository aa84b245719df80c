package place

import "errors"

// Domain errors for the place package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, place.ErrPlaceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrPlaceNotFound is returned when a place ID does not exist.
	ErrPlaceNotFound = errors.New("place: not found")

	// ErrPlaceExists is returned when creating a place with an ID that already exists.
	ErrPlaceExists = errors.New("place: already exists")

	// ErrInvalidName is returned when a place name is empty or too long.
	ErrInvalidName = errors.New("place: invalid name")

	// ErrInvalidCapacity is returned when capacity is below 1 or implausibly large.
	ErrInvalidCapacity = errors.New("place: invalid capacity")
)
