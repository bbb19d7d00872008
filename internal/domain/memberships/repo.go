package memberships

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ db *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

const membershipCols = `id, customer_name, customer_email, location_id, plan_id, starts_on, ends_on, status, notes, created_at, updated_at`

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(
		&m.ID,
		&m.CustomerName,
		&m.CustomerEmail,
		&m.LocationID,
		&m.PlanID,
		&m.StartsOn,
		&m.EndsOn,
		&m.Status,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// List returns memberships, optionally narrowed to one status.
func (r *Repo) List(ctx context.Context, status Status) ([]Membership, error) {
	const q = `SELECT ` + membershipCols + `
	           FROM memberships
	           WHERE $1 = '' OR status = $1
	           ORDER BY starts_on DESC, customer_name`
	rows, err := r.db.Query(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Membership, error) {
	m, err := scanMembership(r.db.QueryRow(ctx, `SELECT `+membershipCols+` FROM memberships WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Create(ctx context.Context, m Membership) (*Membership, error) {
	const q = `
INSERT INTO memberships (id, customer_name, customer_email, location_id, plan_id, starts_on, ends_on, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING ` + membershipCols
	out, err := scanMembership(r.db.QueryRow(ctx, q,
		m.ID, m.CustomerName, m.CustomerEmail, m.LocationID, m.PlanID, m.StartsOn, m.EndsOn, string(m.Status), m.Notes))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) Update(ctx context.Context, m Membership) (*Membership, error) {
	const q = `
UPDATE memberships
SET customer_name = $2,
    customer_email = $3,
    location_id = $4,
    plan_id = $5,
    starts_on = $6,
    ends_on = $7,
    status = $8,
    notes = $9,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + membershipCols
	out, err := scanMembership(r.db.QueryRow(ctx, q,
		m.ID, m.CustomerName, m.CustomerEmail, m.LocationID, m.PlanID, m.StartsOn, m.EndsOn, string(m.Status), m.Notes))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM memberships WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
