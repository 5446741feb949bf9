// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrInsufficientSeats indicates that a reservation asked for
// more seats than the destination has left, while ErrConflict signals
// that an operation cannot proceed due to existing dependent records
// (e.g. deleting a destination with reservations).
package repository

import (
	"errors"
	"strings"
)

// ErrDestinationNotFound is returned when the referenced destination
// does not exist. Handlers translate this into an HTTP 404 response.
var ErrDestinationNotFound = errors.New("destination not found")

// ErrReservationNotFound is returned when the referenced reservation
// does not exist. Handlers translate this into an HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrInsufficientSeats is returned when a seat reservation asks for more
// seats than the destination currently has available. The capacity check
// and the decrement are a single statement, so this error is reliable
// under concurrent bookings.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrSeatDrift is returned when a seat release would push the available
// counter above the destination's total capacity. The workflow never
// releases twice for the same reservation, so seeing this error means
// the inventory has drifted and the transaction must be rolled back.
var ErrSeatDrift = errors.New("seat release exceeds total capacity")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as attempting to delete a
// destination that still has reservations. Handlers translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a unique constraint
// (client email, reservation number). Callers decide whether to retry.
var ErrDuplicate = errors.New("duplicate entry")

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "1062")
}
