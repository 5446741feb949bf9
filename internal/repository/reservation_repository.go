package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/adrienvx/travel-agency-api/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Writes that
// must stay consistent with the seat ledger take a *sql.Tx; the caller
// owns the transaction and commits only when both the reservation write
// and the matching seat mutation have succeeded.  All timestamp fields
// are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// ReservationRecord mirrors the schema of the reservations table.  It is
// used internally by the repository when constructing or scanning rows.
// Business logic should use the model.Reservation type instead.
type ReservationRecord struct {
	ID              uint64
	Numero          string
	DestinationID   uint64
	ClientID        uint64
	NombrePersonnes uint32
	DateVoyage      time.Time
	PrixTotal       float64
	Statut          string
	Commentaires    string
	CreatedAt       time.Time
}

// GenerateReservationNumber builds a reservation number of the form
// RES-<year>-<8 hex chars>.  The random suffix comes from crypto/rand;
// uniqueness is ultimately enforced by the UNIQUE index on the numero
// column, with CreateTx retrying on a collision.
func GenerateReservationNumber() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("RES-%d-%s", time.Now().UTC().Year(), strings.ToUpper(hex.EncodeToString(b))), nil
}

// createAttempts bounds how many fresh numbers CreateTx tries before
// giving up on a duplicate-key collision.
const createAttempts = 3

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  A fresh reservation number is generated for the insert
// and regenerated when it collides with an existing one.  The generated
// ID, numero and creation timestamp are populated on the provided record.
// The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *ReservationRecord) error {
	const q = `INSERT INTO reservations
               (numero, destination_id, client_id, nombre_personnes, date_voyage, prix_total, statut, commentaires)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		numero, err := GenerateReservationNumber()
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, q,
			numero, res.DestinationID, res.ClientID, res.NombrePersonnes,
			res.DateVoyage.Format("2006-01-02"), res.PrixTotal, res.Statut, res.Commentaires)
		if err != nil {
			if isDuplicateKey(err) {
				lastErr = ErrDuplicate
				continue
			}
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)
		res.Numero = numero
		const sel = `SELECT created_at FROM reservations WHERE id = ?`
		return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
	}
	return lastErr
}

const reservationColumns = `r.id, r.numero, r.destination_id, r.nombre_personnes, r.date_voyage,
       r.prix_total, r.statut, r.commentaires, r.created_at,
       c.id, c.nom, c.prenom, c.email, c.telephone`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	var dateVoyage, createdAt time.Time
	var commentaires sql.NullString
	var phone sql.NullString
	if err := row.Scan(
		&res.ID, &res.Numero, &res.DestinationID, &res.NombrePersonnes, &dateVoyage,
		&res.PrixTotal, &res.Statut, &commentaires, &createdAt,
		&res.Client.ID, &res.Client.Nom, &res.Client.Prenom, &res.Client.Email, &phone,
	); err != nil {
		return nil, err
	}
	if commentaires.Valid {
		res.Commentaires = commentaires.String
	}
	if phone.Valid {
		res.Client.Telephone = phone.String
	}
	res.DateVoyage = dateVoyage.UTC().Format("2006-01-02")
	res.DateReservation = createdAt.UTC().Format(time.RFC3339)
	return &res, nil
}

// GetByID returns a reservation with its client.  It returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
               FROM reservations r JOIN clients c ON c.id = r.client_id
               WHERE r.id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// GetByNumero returns a reservation looked up by its public number.
func (r *ReservationRepo) GetByNumero(ctx context.Context, numero string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
               FROM reservations r JOIN clients c ON c.id = r.client_id
               WHERE r.numero = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, numero))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// ReservationFilter restricts the rows returned by List.  Empty string
// and nil fields are ignored.  Email matches as a case-insensitive
// substring; the date bounds apply to the travel date.
type ReservationFilter struct {
	Statut    string
	Email     string
	DateDebut *time.Time
	DateFin   *time.Time
}

// List returns reservations matching the filter, newest first.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations r JOIN clients c ON c.id = r.client_id
              WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if f.Statut != "" {
		query += ` AND r.statut = ?`
		args = append(args, f.Statut)
	}
	if f.Email != "" {
		query += ` AND c.email LIKE ?`
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(f.Email))+"%")
	}
	if f.DateDebut != nil {
		query += ` AND r.date_voyage >= ?`
		args = append(args, f.DateDebut.Format("2006-01-02"))
	}
	if f.DateFin != nil {
		query += ` AND r.date_voyage <= ?`
		args = append(args, f.DateFin.Format("2006-01-02"))
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// GetForUpdateTx loads the fields needed to change or delete a
// reservation and locks the row for the remainder of the transaction, so
// concurrent lifecycle operations on the same reservation serialize and
// a seat release can never run twice.  Returns ErrReservationNotFound
// when absent.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*ReservationRecord, error) {
	const q = `SELECT id, numero, destination_id, client_id, nombre_personnes, statut
               FROM reservations WHERE id = ? FOR UPDATE`
	var rec ReservationRecord
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.Numero, &rec.DestinationID, &rec.ClientID, &rec.NombrePersonnes, &rec.Statut)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateStatusTx sets the status of a reservation within the given
// transaction.  The caller has already validated the transition and
// applied any seat effect.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, statut string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET statut = ? WHERE id = ?`, statut, id)
	return err
}

// DeleteTx removes a reservation row within the given transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// DashboardStats aggregates reservation counts and revenue for the
// agency dashboard.  ChiffreAffaires only counts confirmed reservations;
// MoyennePrix averages over every reservation regardless of status.
type DashboardStats struct {
	Total           int     `json:"total"`
	EnAttente       int     `json:"en_attente"`
	Confirmees      int     `json:"confirmees"`
	Annulees        int     `json:"annulees"`
	Terminees       int     `json:"terminees"`
	ChiffreAffaires float64 `json:"chiffre_affaires"`
	MoyennePrix     float64 `json:"moyenne_prix"`
}

// Stats computes the dashboard aggregates in a single query.
func (r *ReservationRepo) Stats(ctx context.Context) (DashboardStats, error) {
	const q = `SELECT COUNT(*),
                      COALESCE(SUM(statut = 'en_attente'), 0),
                      COALESCE(SUM(statut = 'confirmee'), 0),
                      COALESCE(SUM(statut = 'annulee'), 0),
                      COALESCE(SUM(statut = 'terminee'), 0),
                      COALESCE(SUM(CASE WHEN statut = 'confirmee' THEN prix_total ELSE 0 END), 0),
                      COALESCE(AVG(prix_total), 0)
               FROM reservations`
	var s DashboardStats
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Total, &s.EnAttente, &s.Confirmees, &s.Annulees, &s.Terminees,
		&s.ChiffreAffaires, &s.MoyennePrix)
	return s, err
}
