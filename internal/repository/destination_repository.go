package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/adrienvx/travel-agency-api/internal/model"
)

// DestinationRepo provides CRUD operations for destinations and their
// activities, plus the seat-inventory ledger.  The available_seats column
// on the destinations row is the single source of truth for remaining
// capacity; ReserveSeatsTx and ReleaseSeatsTx mutate it with conditional
// UPDATE statements so the capacity check and the decrement are one
// atomic operation against the row.
type DestinationRepo struct {
	db *sql.DB
}

// NewDestinationRepo returns a new DestinationRepo bound to the given database.
func NewDestinationRepo(db *sql.DB) *DestinationRepo { return &DestinationRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *DestinationRepo) DB() *sql.DB { return r.db }

// ListFilter restricts the destinations returned by List.  Nil pointer
// fields are ignored.
type ListFilter struct {
	Categorie  string
	PrixMax    *float64
	Disponible *bool
}

// SearchFilter drives full-text-ish search across destinations.  Q is
// matched case-insensitively against the name, the description and the
// activity names.  The remaining bounds are optional.
type SearchFilter struct {
	Q        string
	PrixMin  *float64
	PrixMax  *float64
	DureeMin *uint32
	DureeMax *uint32
}

const destinationColumns = `id, nom, description, prix, duree, image, categorie, date_depart, total_seats, available_seats, disponible`

func scanDestination(row interface{ Scan(...interface{}) error }) (*model.Destination, error) {
	var d model.Destination
	var image sql.NullString
	var dateDepart time.Time
	if err := row.Scan(
		&d.ID, &d.Nom, &d.Description, &d.Prix, &d.Duree, &image, &d.Categorie,
		&dateDepart, &d.TotalSeats, &d.AvailableSeats, &d.Disponible,
	); err != nil {
		return nil, err
	}
	if image.Valid {
		d.Image = image.String
	}
	d.DateDepart = dateDepart.UTC().Format("2006-01-02")
	d.Activites = []model.Activity{}
	return &d, nil
}

// List returns all destinations matching the filter, with their
// activities populated.  Results are ordered by id.
func (r *DestinationRepo) List(ctx context.Context, f ListFilter) ([]model.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if f.Categorie != "" {
		query += ` AND LOWER(categorie) = LOWER(?)`
		args = append(args, f.Categorie)
	}
	if f.PrixMax != nil {
		query += ` AND prix <= ?`
		args = append(args, *f.PrixMax)
	}
	if f.Disponible != nil {
		query += ` AND disponible = ?`
		args = append(args, *f.Disponible)
	}
	query += ` ORDER BY id`
	return r.queryDestinations(ctx, query, args...)
}

// Search returns destinations whose name, description or activities match
// the query term, further narrowed by the optional price and duration
// bounds.  The caller validates that Q is non-empty.
func (r *DestinationRepo) Search(ctx context.Context, f SearchFilter) ([]model.Destination, error) {
	like := "%" + strings.TrimSpace(f.Q) + "%"
	query := `SELECT ` + destinationColumns + ` FROM destinations d
              WHERE (d.nom LIKE ? OR d.description LIKE ?
                     OR EXISTS (SELECT 1 FROM activites a WHERE a.destination_id = d.id AND a.nom LIKE ?))`
	args := []interface{}{like, like, like}
	if f.PrixMin != nil {
		query += ` AND d.prix >= ?`
		args = append(args, *f.PrixMin)
	}
	if f.PrixMax != nil {
		query += ` AND d.prix <= ?`
		args = append(args, *f.PrixMax)
	}
	if f.DureeMin != nil {
		query += ` AND d.duree >= ?`
		args = append(args, *f.DureeMin)
	}
	if f.DureeMax != nil {
		query += ` AND d.duree <= ?`
		args = append(args, *f.DureeMax)
	}
	query += ` ORDER BY d.id`
	return r.queryDestinations(ctx, query, args...)
}

// queryDestinations runs a destination SELECT and populates the activities
// of every returned row with a single IN query.
func (r *DestinationRepo) queryDestinations(ctx context.Context, query string, args ...interface{}) ([]model.Destination, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dests := make([]model.Destination, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		index[d.ID] = len(dests)
		dests = append(dests, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dests) == 0 {
		return dests, nil
	}
	ids := make([]interface{}, 0, len(dests))
	placeholders := make([]string, 0, len(dests))
	for _, d := range dests {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	actQuery := `SELECT id, destination_id, nom FROM activites
                 WHERE destination_id IN (` + strings.Join(placeholders, ",") + `)
                 ORDER BY destination_id, id`
	arows, err := r.db.QueryContext(ctx, actQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var a model.Activity
		if err := arows.Scan(&a.ID, &a.DestinationID, &a.Nom); err != nil {
			return nil, err
		}
		if idx, ok := index[a.DestinationID]; ok {
			dests[idx].Activites = append(dests[idx].Activites, a)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}
	return dests, nil
}

// GetByID returns a single destination with its activities.  It returns
// ErrDestinationNotFound when no row exists.
func (r *DestinationRepo) GetByID(ctx context.Context, id uint64) (*model.Destination, error) {
	const q = `SELECT ` + destinationColumns + ` FROM destinations WHERE id = ?`
	d, err := scanDestination(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDestinationNotFound
		}
		return nil, err
	}
	const actQ = `SELECT id, destination_id, nom FROM activites WHERE destination_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, actQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.DestinationID, &a.Nom); err != nil {
			return nil, err
		}
		d.Activites = append(d.Activites, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// GetForBookingTx loads the name, pricing and availability fields of a
// destination inside an existing transaction.  It is used by the
// reservation workflow, which needs a consistent view of the price while
// it reserves seats.  Returns ErrDestinationNotFound when absent.
func (r *DestinationRepo) GetForBookingTx(ctx context.Context, tx *sql.Tx, id uint64) (nom string, prix float64, disponible bool, err error) {
	const q = `SELECT nom, prix, disponible FROM destinations WHERE id = ?`
	err = tx.QueryRowContext(ctx, q, id).Scan(&nom, &prix, &disponible)
	if err == sql.ErrNoRows {
		return "", 0, false, ErrDestinationNotFound
	}
	return nom, prix, disponible, err
}

// Create inserts a destination and its activities in one transaction, so
// a destination never appears without the activities it was created with.
// The generated ID is written back to d.  AvailableSeats is seeded from
// TotalSeats by the caller; both are persisted as given.
func (r *DestinationRepo) Create(ctx context.Context, d *model.Destination) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO destinations
               (nom, description, prix, duree, image, categorie, date_depart, total_seats, available_seats, disponible)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var image interface{}
	if d.Image != "" {
		image = d.Image
	}
	res, err := tx.ExecContext(ctx, q,
		d.Nom, d.Description, d.Prix, d.Duree, image, d.Categorie,
		d.DateDepart, d.TotalSeats, d.AvailableSeats, d.Disponible)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	if len(d.Activites) > 0 {
		query := `INSERT INTO activites (destination_id, nom) VALUES `
		args := make([]interface{}, 0, len(d.Activites)*2)
		for i, a := range d.Activites {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, d.ID, a.Nom)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DestinationUpdate carries the optional fields of a partial update.
// Nil fields are left untouched.
type DestinationUpdate struct {
	Nom         *string
	Description *string
	Prix        *float64
	Duree       *uint32
	Image       *string
	Categorie   *string
	DateDepart  *string
	Disponible  *bool
}

// Update applies the non-nil fields of u to the destination.  It returns
// ErrDestinationNotFound when the row does not exist.  Seat counters are
// deliberately not updatable here; only the ledger mutates them.
func (r *DestinationRepo) Update(ctx context.Context, id uint64, u DestinationUpdate) error {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Nom != nil {
		add("nom", *u.Nom)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Prix != nil {
		add("prix", *u.Prix)
	}
	if u.Duree != nil {
		add("duree", *u.Duree)
	}
	if u.Image != nil {
		add("image", *u.Image)
	}
	if u.Categorie != nil {
		add("categorie", strings.ToLower(*u.Categorie))
	}
	if u.DateDepart != nil {
		add("date_depart", *u.DateDepart)
	}
	if u.Disponible != nil {
		add("disponible", *u.Disponible)
	}
	if len(sets) == 0 {
		// Nothing to change; still verify existence so callers get a 404.
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM destinations WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrDestinationNotFound
		}
		return err
	}
	query := `UPDATE destinations SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either absent or unchanged values; distinguish with a lookup.
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM destinations WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrDestinationNotFound
		}
		return err
	}
	return nil
}

// Delete removes a destination that has no reservations.  It returns
// ErrConflict when reservations still reference it and
// ErrDestinationNotFound when it does not exist.  The existence check,
// the reservation count and the delete run in one transaction.
func (r *DestinationRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE destination_id = ?`, id).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM destinations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDestinationNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReserveSeatsTx decrements available_seats by count within the given
// transaction.  The availability check and the decrement are a single
// conditional UPDATE, so two concurrent reservations can never both pass
// a stale check.  Returns ErrInsufficientSeats when fewer than count
// seats remain and ErrDestinationNotFound when the row is absent.
func (r *DestinationRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, count uint32) error {
	const q = `UPDATE destinations
               SET available_seats = available_seats - ?
               WHERE id = ? AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, count, id, count)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM destinations WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrDestinationNotFound
	}
	if err != nil {
		return err
	}
	return ErrInsufficientSeats
}

// ReleaseSeatsTx increments available_seats by count within the given
// transaction.  The update refuses to push the counter above
// total_seats; a refused release means the ledger and the reservations
// table disagree and the caller must roll back.
func (r *DestinationRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, count uint32) error {
	const q = `UPDATE destinations
               SET available_seats = available_seats + ?
               WHERE id = ? AND available_seats + ? <= total_seats`
	res, err := tx.ExecContext(ctx, q, count, id, count)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM destinations WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrDestinationNotFound
	}
	if err != nil {
		return err
	}
	return ErrSeatDrift
}
