package database

import "errors"

var (
	// ErrSlotConflict means another pending or confirmed booking holds an
	// overlapping window on the same court and date.
	ErrSlotConflict = errors.New("time slot is already booked")

	// ErrConcurrentModification means an optimistic version check failed.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	ErrBookingNotFound  = errors.New("booking not found")
	ErrCourtNotFound    = errors.New("court not found")
	ErrFacilityNotFound = errors.New("facility not found")
)
