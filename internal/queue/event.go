// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published to the reservation.events queue.
const (
	EventReservationCreated       = "reservation.created"
	EventReservationStatusChanged = "reservation.status_changed"
	EventReservationDeleted       = "reservation.deleted"
)

// ReservationEvent is published whenever a reservation is created, changes
// status or is deleted.  It carries enough information for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type ReservationEvent struct {
	Type            string  `json:"type"`
	ReservationID   uint64  `json:"reservation_id"`
	Numero          string  `json:"numero"`
	DestinationID   uint64  `json:"destination_id"`
	DestinationNom  string  `json:"destination_nom,omitempty"`
	ClientEmail     string  `json:"client_email"`
	NombrePersonnes uint32  `json:"nombre_personnes"`
	PrixTotal       float64 `json:"prix_total,omitempty"`
	Statut          string  `json:"statut"`
	OccurredAt      string  `json:"occurred_at"`
}
