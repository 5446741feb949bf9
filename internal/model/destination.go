package model

// Destination represents a bookable travel package sold by the agency.
// Seat inventory lives on the destination row itself: TotalSeats is the
// capacity fixed at creation and AvailableSeats is the mutable counter
// adjusted by the reservation workflow.  The invariant
// 0 <= AvailableSeats <= TotalSeats is enforced by the repository layer.
//
// Fields:
//  ID             – primary key identifier.
//  Nom            – destination name (e.g. "Paris, France").
//  Description    – marketing description shown to clients.
//  Prix           – price per person.
//  Duree          – trip duration in days.
//  Image          – illustration URL, may be empty.
//  Categorie      – enumerated tag (ville, plage, culture, ...).
//  Activites      – activities included in the package.
//  DateDepart     – departure date (YYYY-MM-DD).
//  TotalSeats     – capacity as originally set, never mutated.
//  AvailableSeats – seats still open for booking.
//  Disponible     – whether the destination is shown as bookable.
type Destination struct {
	ID             uint64     `json:"id"`
	Nom            string     `json:"nom"`
	Description    string     `json:"description"`
	Prix           float64    `json:"prix"`
	Duree          uint32     `json:"duree"`
	Image          string     `json:"image,omitempty"`
	Categorie      string     `json:"categorie"`
	Activites      []Activity `json:"activites"`
	DateDepart     string     `json:"dateDepart"`
	TotalSeats     uint32     `json:"capaciteTotale"`
	AvailableSeats uint32     `json:"placesDisponibles"`
	Disponible     bool       `json:"disponible"`
}

// Activity is a single named activity attached to a destination.
type Activity struct {
	ID            uint64 `json:"id"`
	DestinationID uint64 `json:"-"`
	Nom           string `json:"nom"`
}
