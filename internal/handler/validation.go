package handler

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// clientInput carries the client block of a reservation request.
type clientInput struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// reservationRequest is the typed shape of POST /api/reservations.
// Fields are validated explicitly, field by field, rather than accessed
// optimistically off a loose map.
type reservationRequest struct {
	DestinationID   int64       `json:"destinationId"`
	Client          clientInput `json:"client"`
	NombrePersonnes int         `json:"nombrePersonnes"`
	DateVoyage      string      `json:"dateVoyage"`
	Commentaires    string      `json:"commentaires"`
}

const dateLayout = "2006-01-02"

// validateReservation checks every rule of a reservation request and
// returns the full list of violations; it never short-circuits.  The
// travel date must be strictly after today's date (time of day ignored).
func validateReservation(req reservationRequest, now time.Time) []string {
	erreurs := make([]string, 0)

	if req.DestinationID <= 0 {
		erreurs = append(erreurs, "ID de destination invalide")
	}
	if runeLen(req.Client.Nom) < 2 {
		erreurs = append(erreurs, "Le nom du client doit contenir au moins 2 caractères")
	}
	if runeLen(req.Client.Prenom) < 2 {
		erreurs = append(erreurs, "Le prénom du client doit contenir au moins 2 caractères")
	}
	if !strings.Contains(req.Client.Email, "@") {
		erreurs = append(erreurs, "Email invalide")
	}
	// Telephone is optional; when present it needs at least 10 digits.
	if t := strings.TrimSpace(req.Client.Telephone); t != "" && digitCount(t) < 10 {
		erreurs = append(erreurs, "Numéro de téléphone invalide")
	}
	if req.NombrePersonnes < 1 || req.NombrePersonnes > 10 {
		erreurs = append(erreurs, "Le nombre de personnes doit être entre 1 et 10")
	}
	if req.DateVoyage == "" {
		erreurs = append(erreurs, "Date de voyage manquante")
	} else if d, err := time.Parse(dateLayout, req.DateVoyage); err != nil {
		erreurs = append(erreurs, "Date de voyage invalide")
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if !d.After(today) {
			erreurs = append(erreurs, "La date de voyage doit être dans le futur")
		}
	}

	return erreurs
}

// runeLen counts characters, not bytes, so accented names are measured
// the way users read them.
func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// destinationRequest is the typed shape of POST /api/destinations.
type destinationRequest struct {
	Nom               string   `json:"nom"`
	Description       string   `json:"description"`
	Prix              float64  `json:"prix"`
	Duree             int      `json:"duree"`
	Image             string   `json:"image"`
	Categorie         string   `json:"categorie"`
	Activites         []string `json:"activites"`
	DateDepart        string   `json:"dateDepart"`
	PlacesDisponibles *int     `json:"placesDisponibles"`
}

// validateDestination checks the rules for creating a destination and
// returns the full list of violations.
func validateDestination(req destinationRequest) []string {
	erreurs := make([]string, 0)

	if runeLen(req.Nom) < 3 {
		erreurs = append(erreurs, "Le nom doit contenir au moins 3 caractères")
	}
	if runeLen(req.Description) < 10 {
		erreurs = append(erreurs, "La description doit contenir au moins 10 caractères")
	}
	if req.Prix <= 0 {
		erreurs = append(erreurs, "Le prix doit être supérieur à 0")
	}
	if req.Duree <= 0 {
		erreurs = append(erreurs, "La durée doit être supérieure à 0")
	}
	if strings.TrimSpace(req.Categorie) == "" {
		erreurs = append(erreurs, "La catégorie est obligatoire")
	}
	if req.DateDepart != "" {
		if _, err := time.Parse(dateLayout, req.DateDepart); err != nil {
			erreurs = append(erreurs, "Date de départ invalide")
		}
	}
	if req.PlacesDisponibles != nil && *req.PlacesDisponibles < 0 {
		erreurs = append(erreurs, "Le nombre de places doit être positif")
	}

	return erreurs
}
