package handler

import (
	"testing"
	"time"
)

// A fixed "now" keeps the future-date checks deterministic.
var testNow = time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

func validRequest() reservationRequest {
	return reservationRequest{
		DestinationID: 1,
		Client: clientInput{
			Nom:       "Dupont",
			Prenom:    "Marie",
			Email:     "marie.dupont@example.com",
			Telephone: "+33 6 12 34 56 78",
		},
		NombrePersonnes: 2,
		DateVoyage:      "2025-07-01",
	}
}

func TestValidateReservation_OK(t *testing.T) {
	if erreurs := validateReservation(validRequest(), testNow); len(erreurs) != 0 {
		t.Fatalf("expected no errors, got %v", erreurs)
	}
}

func TestValidateReservation_OptionalPhone(t *testing.T) {
	req := validRequest()
	req.Client.Telephone = ""
	if erreurs := validateReservation(req, testNow); len(erreurs) != 0 {
		t.Fatalf("empty phone should be accepted, got %v", erreurs)
	}
}

func TestValidateReservation_SingleField(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*reservationRequest)
		want   string
	}{
		{
			name:   "missing destination",
			mutate: func(r *reservationRequest) { r.DestinationID = 0 },
			want:   "ID de destination invalide",
		},
		{
			name:   "short nom",
			mutate: func(r *reservationRequest) { r.Client.Nom = "D" },
			want:   "Le nom du client doit contenir au moins 2 caractères",
		},
		{
			name:   "whitespace prenom",
			mutate: func(r *reservationRequest) { r.Client.Prenom = "  M " },
			want:   "Le prénom du client doit contenir au moins 2 caractères",
		},
		{
			name:   "email without at sign",
			mutate: func(r *reservationRequest) { r.Client.Email = "marie.example.com" },
			want:   "Email invalide",
		},
		{
			name:   "phone too short",
			mutate: func(r *reservationRequest) { r.Client.Telephone = "06 12 34" },
			want:   "Numéro de téléphone invalide",
		},
		{
			name:   "zero travelers",
			mutate: func(r *reservationRequest) { r.NombrePersonnes = 0 },
			want:   "Le nombre de personnes doit être entre 1 et 10",
		},
		{
			name:   "too many travelers",
			mutate: func(r *reservationRequest) { r.NombrePersonnes = 11 },
			want:   "Le nombre de personnes doit être entre 1 et 10",
		},
		{
			name:   "missing date",
			mutate: func(r *reservationRequest) { r.DateVoyage = "" },
			want:   "Date de voyage manquante",
		},
		{
			name:   "malformed date",
			mutate: func(r *reservationRequest) { r.DateVoyage = "01/07/2025" },
			want:   "Date de voyage invalide",
		},
		{
			name:   "date in the past",
			mutate: func(r *reservationRequest) { r.DateVoyage = "2025-06-01" },
			want:   "La date de voyage doit être dans le futur",
		},
		{
			name:   "date is today",
			mutate: func(r *reservationRequest) { r.DateVoyage = "2025-06-15" },
			want:   "La date de voyage doit être dans le futur",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest()
			c.mutate(&req)
			erreurs := validateReservation(req, testNow)
			if len(erreurs) != 1 {
				t.Fatalf("expected exactly one error, got %v", erreurs)
			}
			if erreurs[0] != c.want {
				t.Errorf("got %q, want %q", erreurs[0], c.want)
			}
		})
	}
}

// Length minimums count characters, not bytes: a single accented letter
// is one character even though UTF-8 encodes it on two bytes.
func TestValidateReservation_AccentedLengths(t *testing.T) {
	req := validRequest()
	req.Client.Nom = "É"
	req.Client.Prenom = "Ä"
	erreurs := validateReservation(req, testNow)
	if len(erreurs) != 2 {
		t.Fatalf("one-character accented names must be rejected, got %v", erreurs)
	}

	req = validRequest()
	req.Client.Nom = "Lê"
	req.Client.Prenom = "Aï"
	if erreurs := validateReservation(req, testNow); len(erreurs) != 0 {
		t.Fatalf("two-character accented names must pass, got %v", erreurs)
	}
}

func TestValidateDestination_AccentedLengths(t *testing.T) {
	req := destinationRequest{
		Nom:         "Éze", // 3 characters, 4 bytes
		Description: "Village perché", // 14 characters
		Prix:        980,
		Duree:       3,
		Categorie:   "culture",
	}
	if erreurs := validateDestination(req); len(erreurs) != 0 {
		t.Fatalf("expected no errors, got %v", erreurs)
	}

	req.Nom = "Éé" // 2 characters but 4 bytes
	erreurs := validateDestination(req)
	if len(erreurs) != 1 || erreurs[0] != "Le nom doit contenir au moins 3 caractères" {
		t.Fatalf("two-character name must fail the 3-character minimum, got %v", erreurs)
	}
}

// Every broken field must be reported in one pass, not just the first.
func TestValidateReservation_CollectsAllErrors(t *testing.T) {
	req := reservationRequest{
		DestinationID:   0,
		Client:          clientInput{Nom: "", Prenom: "", Email: "not-an-email", Telephone: "123"},
		NombrePersonnes: 0,
		DateVoyage:      "",
	}
	erreurs := validateReservation(req, testNow)
	if len(erreurs) != 7 {
		t.Fatalf("expected 7 errors, got %d: %v", len(erreurs), erreurs)
	}
}

func TestValidateDestination(t *testing.T) {
	places := -1
	cases := []struct {
		name string
		req  destinationRequest
		want int
	}{
		{
			name: "valid",
			req: destinationRequest{
				Nom:         "Santorin",
				Description: "Île grecque aux maisons blanches",
				Prix:        1250,
				Duree:       7,
				Categorie:   "plage",
				DateDepart:  "2025-09-01",
			},
			want: 0,
		},
		{
			name: "all fields invalid",
			req: destinationRequest{
				Nom:               "Sa",
				Description:       "courte",
				Prix:              0,
				Duree:             0,
				Categorie:         " ",
				DateDepart:        "bientôt",
				PlacesDisponibles: &places,
			},
			want: 7,
		},
		{
			name: "optional date omitted",
			req: destinationRequest{
				Nom:         "Kyoto",
				Description: "Temples et jardins japonais",
				Prix:        2100,
				Duree:       10,
				Categorie:   "culture",
			},
			want: 0,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			erreurs := validateDestination(c.req)
			if len(erreurs) != c.want {
				t.Errorf("expected %d errors, got %d: %v", c.want, len(erreurs), erreurs)
			}
		})
	}
}
