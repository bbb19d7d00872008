package admins

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM admins WHERE email = lower($1)
	`, email)

	var a Admin
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Upsert creates the admin or replaces the password hash of an existing one.
func (r *Repo) Upsert(ctx context.Context, a Admin) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, email, password_hash)
		VALUES ($1, lower($2), $3)
		ON CONFLICT (email)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at    = now()
		RETURNING id, email, password_hash, created_at, updated_at
	`, a.ID, a.Email, a.PasswordHash)

	var out Admin
	if err := row.Scan(&out.ID, &out.Email, &out.PasswordHash, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
