package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/adrienvx/travel-agency-api/internal/model"
)

// ClientRepo persists clients.  A client is identified by its normalized
// email; the reservation workflow reuses an existing row instead of
// creating a duplicate when the same email books again.
type ClientRepo struct{ db *sql.DB }

// NewClientRepo returns a new ClientRepo bound to the given database.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

// NormalizeEmail trims surrounding whitespace and lower-cases an email
// address.  All lookups and inserts go through this normalization.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindOrCreateTx resolves a client by email within the given transaction,
// inserting a new row when none exists.  Name fields are stored trimmed.
// When two transactions race on the same new email, the loser's insert
// hits the unique index; it is retried once as a lookup so both callers
// end up with the same client row.
func (r *ClientRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, c model.Client) (model.Client, error) {
	email := NormalizeEmail(c.Email)
	found, err := r.getByEmailTx(ctx, tx, email)
	if err == nil {
		return found, nil
	}
	if err != sql.ErrNoRows {
		return model.Client{}, err
	}
	var phone interface{}
	if t := strings.TrimSpace(c.Telephone); t != "" {
		phone = t
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO clients (nom, prenom, email, telephone) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(c.Nom), strings.TrimSpace(c.Prenom), email, phone)
	if err != nil {
		if isDuplicateKey(err) {
			return r.getByEmailTx(ctx, tx, email)
		}
		return model.Client{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Client{}, err
	}
	return model.Client{
		ID:        uint64(id),
		Nom:       strings.TrimSpace(c.Nom),
		Prenom:    strings.TrimSpace(c.Prenom),
		Email:     email,
		Telephone: strings.TrimSpace(c.Telephone),
	}, nil
}

// GetByEmail fetches a client by normalized email.  sql.ErrNoRows is
// returned when the client does not exist.
func (r *ClientRepo) GetByEmail(ctx context.Context, email string) (model.Client, error) {
	return r.getByEmail(ctx, r.db, NormalizeEmail(email))
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *ClientRepo) getByEmailTx(ctx context.Context, tx *sql.Tx, email string) (model.Client, error) {
	return r.getByEmail(ctx, tx, email)
}

func (r *ClientRepo) getByEmail(ctx context.Context, q queryRower, email string) (model.Client, error) {
	var c model.Client
	var phone sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT id, nom, prenom, email, telephone FROM clients WHERE email = ? LIMIT 1`,
		email).Scan(&c.ID, &c.Nom, &c.Prenom, &c.Email, &phone)
	if err != nil {
		return model.Client{}, err
	}
	if phone.Valid {
		c.Telephone = phone.String
	}
	return c, nil
}
