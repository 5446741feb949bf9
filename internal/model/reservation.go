package model

// Reservation records a booking of N seats on a destination by a client.
// The total price is frozen at creation time (destination price at that
// moment times the traveler count) and is never recomputed, even when the
// destination's price later changes.
//
// Fields:
//  ID              – primary key identifier.
//  Numero          – human-readable unique reservation number (RES-YYYY-XXXXXXXX).
//  DestinationID   – destination being booked.
//  Client          – client who owns the reservation.
//  NombrePersonnes – traveler count, fixed at creation.
//  DateVoyage      – travel date (YYYY-MM-DD).
//  PrixTotal       – total price computed at creation.
//  Statut          – lifecycle status, see the Status* constants.
//  Commentaires    – optional free-text comment.
//  DateReservation – creation timestamp (RFC3339).
type Reservation struct {
	ID              uint64  `json:"id"`
	Numero          string  `json:"numeroReservation"`
	DestinationID   uint64  `json:"destinationId"`
	Client          Client  `json:"client"`
	NombrePersonnes uint32  `json:"nombrePersonnes"`
	DateVoyage      string  `json:"dateVoyage"`
	PrixTotal       float64 `json:"prixTotal"`
	Statut          string  `json:"statut"`
	Commentaires    string  `json:"commentaires"`
	DateReservation string  `json:"dateReservation"`
}

// Reservation lifecycle statuses.  The wire values match the public API.
const (
	StatusPending   = "en_attente"
	StatusConfirmed = "confirmee"
	StatusCancelled = "annulee"
	StatusCompleted = "terminee"
)

// Statuses lists every valid reservation status, in display order.
var Statuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// ValidStatus reports whether s is one of the four reservation statuses.
func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// transitions maps a status to the set of statuses it may move to.
// terminee is terminal.
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {StatusPending, StatusConfirmed},
	StatusCompleted: {},
}

// CanTransition reports whether a reservation may move from one status to
// another.  A transition to the same status is allowed; callers treat it
// as a no-op with no inventory effect.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, v := range transitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// HoldsSeats reports whether a reservation in the given status consumes
// seats on its destination.  Every status except annulee holds its seats.
func HoldsSeats(status string) bool {
	return status != StatusCancelled
}

// SeatDelta returns the inventory effect of a status transition on the
// destination's available seats, in units of the reservation's traveler
// count: -1 means seats must be reserved, +1 means seats must be released,
// 0 means no inventory effect.  Transitions between two seat-holding
// statuses (e.g. en_attente -> confirmee) never touch inventory.
func SeatDelta(from, to string) int {
	switch {
	case HoldsSeats(from) && !HoldsSeats(to):
		return +1
	case !HoldsSeats(from) && HoldsSeats(to):
		return -1
	default:
		return 0
	}
}
