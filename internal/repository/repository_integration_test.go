package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/adrienvx/travel-agency-api/internal/model"
)

// These tests run against a real MySQL instance with the schema from
// migrations/schema.sql applied.  Set TEST_DATABASE_DSN to enable them,
// e.g. "root@tcp(localhost:3306)/voyage_test?parseTime=true&loc=UTC".

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping database tests")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping test database: %v", err)
	}
	t.Cleanup(func() {
		for _, table := range []string{"reservations", "activites", "clients", "destinations"} {
			_, _ = db.Exec("DELETE FROM " + table)
		}
		db.Close()
	})
	for _, table := range []string{"reservations", "activites", "clients", "destinations"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}
	return db
}

func seedDestination(t *testing.T, db *sql.DB, seats uint32) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO destinations
        (nom, description, prix, duree, categorie, date_depart, total_seats, available_seats, disponible)
        VALUES ('Santorin', 'Île grecque aux maisons blanches', 1250.00, 7, 'plage', '2030-09-01', ?, ?, TRUE)`,
		seats, seats)
	if err != nil {
		t.Fatal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return uint64(id)
}

func availableSeats(t *testing.T, db *sql.DB, id uint64) uint32 {
	t.Helper()
	var n uint32
	if err := db.QueryRow(`SELECT available_seats FROM destinations WHERE id = ?`, id).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestReserveSeatsTx_Insufficient(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewDestinationRepo(db)
	destID := seedDestination(t, db, 3)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if err := repo.ReserveSeatsTx(ctx, tx, destID, 4); !errors.Is(err, ErrInsufficientSeats) {
		t.Fatalf("expected ErrInsufficientSeats, got %v", err)
	}
	if err := repo.ReserveSeatsTx(ctx, tx, destID, 3); err != nil {
		t.Fatalf("reserving the exact remainder should succeed, got %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if n := availableSeats(t, db, destID); n != 0 {
		t.Errorf("available_seats = %d, want 0", n)
	}
}

// Two clients race for the last seats; exactly one booking must win and
// the ledger must never go negative.
func TestReserveSeatsTx_Concurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewDestinationRepo(db)
	destID := seedDestination(t, db, 5)

	reserve := func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := repo.ReserveSeatsTx(ctx, tx, destID, 4); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	results := make(chan error, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			results <- reserve()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientSeats):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("got %d successes and %d capacity rejections, want 1 and 1", ok, insufficient)
	}
	if n := availableSeats(t, db, destID); n != 1 {
		t.Errorf("available_seats = %d, want 1", n)
	}
}

func TestReleaseSeatsTx_RefusesOverflow(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewDestinationRepo(db)
	destID := seedDestination(t, db, 10)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	// All seats are free; any release would push past the capacity.
	if err := repo.ReleaseSeatsTx(ctx, tx, destID, 1); !errors.Is(err, ErrSeatDrift) {
		t.Fatalf("expected ErrSeatDrift, got %v", err)
	}
}

func TestFindOrCreateTx_ReusesClientByEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewClientRepo(db)

	create := func(c model.Client) model.Client {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := repo.FindOrCreateTx(ctx, tx, c)
		if err != nil {
			_ = tx.Rollback()
			t.Fatal(err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatal(err)
		}
		return got
	}

	first := create(model.Client{Nom: "Dupont", Prenom: "Marie", Email: "Marie.Dupont@Example.com"})
	if first.Email != "marie.dupont@example.com" {
		t.Errorf("stored email = %q, want normalized form", first.Email)
	}
	second := create(model.Client{Nom: "Autre", Prenom: "Nom", Email: "  marie.dupont@example.COM "})
	if second.ID != first.ID {
		t.Errorf("same email produced two clients: %d and %d", first.ID, second.ID)
	}
}

func TestReservationRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	destRepo := NewDestinationRepo(db)
	clientRepo := NewClientRepo(db)
	resRepo := NewReservationRepo(db)
	destID := seedDestination(t, db, 10)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := destRepo.ReserveSeatsTx(ctx, tx, destID, 2); err != nil {
		t.Fatal(err)
	}
	client, err := clientRepo.FindOrCreateTx(ctx, tx, model.Client{
		Nom: "Dupont", Prenom: "Marie", Email: "marie@example.com", Telephone: "0612345678",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := ReservationRecord{
		DestinationID:   destID,
		ClientID:        client.ID,
		NombrePersonnes: 2,
		DateVoyage:      time.Date(2030, 9, 1, 0, 0, 0, 0, time.UTC),
		PrixTotal:       2500,
		Statut:          model.StatusPending,
		Commentaires:    "chambre avec vue",
	}
	if err := resRepo.CreateTx(ctx, tx, &rec); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	got, err := resRepo.GetByNumero(ctx, rec.Numero)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID || got.Statut != model.StatusPending || got.PrixTotal != 2500 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.DateVoyage != "2030-09-01" {
		t.Errorf("DateVoyage = %q, want 2030-09-01", got.DateVoyage)
	}
	if got.Client.Email != "marie@example.com" {
		t.Errorf("client email = %q", got.Client.Email)
	}

	if _, err := resRepo.GetByNumero(ctx, "RES-2030-DEADBEEF"); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}
}

// Cancelling releases the seats once; a repeated cancel through the
// same-status path must not release them again.
func TestCancelReleasesSeatsOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	destRepo := NewDestinationRepo(db)
	clientRepo := NewClientRepo(db)
	resRepo := NewReservationRepo(db)
	destID := seedDestination(t, db, 10)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := destRepo.ReserveSeatsTx(ctx, tx, destID, 3); err != nil {
		t.Fatal(err)
	}
	client, err := clientRepo.FindOrCreateTx(ctx, tx, model.Client{
		Nom: "Martin", Prenom: "Luc", Email: "luc@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := ReservationRecord{
		DestinationID:   destID,
		ClientID:        client.ID,
		NombrePersonnes: 3,
		DateVoyage:      time.Date(2030, 9, 1, 0, 0, 0, 0, time.UTC),
		PrixTotal:       3750,
		Statut:          model.StatusPending,
	}
	if err := resRepo.CreateTx(ctx, tx, &rec); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if n := availableSeats(t, db, destID); n != 7 {
		t.Fatalf("available_seats after booking = %d, want 7", n)
	}

	// Apply the cancel transition the way the status endpoint does.
	cancel := func() {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		locked, err := resRepo.GetForUpdateTx(ctx, tx, rec.ID)
		if err != nil {
			t.Fatal(err)
		}
		if model.SeatDelta(locked.Statut, model.StatusCancelled) == +1 {
			if err := destRepo.ReleaseSeatsTx(ctx, tx, destID, locked.NombrePersonnes); err != nil {
				t.Fatal(err)
			}
		}
		if err := resRepo.UpdateStatusTx(ctx, tx, rec.ID, model.StatusCancelled); err != nil {
			t.Fatal(err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatal(err)
		}
	}

	cancel()
	if n := availableSeats(t, db, destID); n != 10 {
		t.Fatalf("available_seats after cancel = %d, want 10", n)
	}
	cancel() // second cancel is a no-op
	if n := availableSeats(t, db, destID); n != 10 {
		t.Fatalf("available_seats after repeated cancel = %d, want 10", n)
	}
}

func TestDestinationCreate_Atomic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewDestinationRepo(db)

	d := model.Destination{
		Nom:            "Marrakech",
		Description:    "Souks, palais et désert",
		Prix:           890,
		Duree:          5,
		Categorie:      "culture",
		DateDepart:     "2030-10-01",
		TotalSeats:     20,
		AvailableSeats: 20,
		Disponible:     true,
		Activites:      []model.Activity{{Nom: "Visite des souks"}, {Nom: "Excursion désert"}},
	}
	if err := repo.Create(ctx, &d); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Activites) != 2 {
		t.Fatalf("activities = %d, want 2", len(got.Activites))
	}

	// An activity too long for the column makes the second insert fail;
	// the destination row must roll back with it.
	bad := model.Destination{
		Nom:            "Atlantide",
		Description:    "N'existe pas vraiment",
		Prix:           1,
		Duree:          1,
		Categorie:      "plage",
		DateDepart:     "2030-10-01",
		TotalSeats:     5,
		AvailableSeats: 5,
		Disponible:     true,
		Activites:      []model.Activity{{Nom: strings.Repeat("x", 300)}},
	}
	if err := repo.Create(ctx, &bad); err == nil {
		t.Fatal("expected the oversized activity to fail the insert")
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM destinations WHERE nom = 'Atlantide'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("destination row survived a failed activities insert")
	}
}

func TestDestinationDelete_ConflictWithReservations(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	destRepo := NewDestinationRepo(db)
	clientRepo := NewClientRepo(db)
	resRepo := NewReservationRepo(db)
	destID := seedDestination(t, db, 10)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	client, err := clientRepo.FindOrCreateTx(ctx, tx, model.Client{
		Nom: "Durand", Prenom: "Paul", Email: "paul@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := ReservationRecord{
		DestinationID:   destID,
		ClientID:        client.ID,
		NombrePersonnes: 1,
		DateVoyage:      time.Date(2030, 9, 1, 0, 0, 0, 0, time.UTC),
		PrixTotal:       1250,
		Statut:          model.StatusPending,
	}
	if err := resRepo.CreateTx(ctx, tx, &rec); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := destRepo.Delete(ctx, destID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := destRepo.Delete(ctx, destID+9999); !errors.Is(err, ErrDestinationNotFound) {
		t.Fatalf("expected ErrDestinationNotFound, got %v", err)
	}
}
