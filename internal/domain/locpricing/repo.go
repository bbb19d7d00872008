package locpricing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ db *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

func scanOverride(row pgx.Row) (Override, error) {
	var (
		o   Override
		raw []byte
	)
	if err := row.Scan(&o.LocationID, &o.Name, &raw, &o.UpdatedAt); err != nil {
		return o, err
	}
	o.Prices = Pricing{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &o.Prices); err != nil {
			return o, err
		}
	}
	return o, nil
}

// Get returns ok=false when the location has no override.
func (r *Repo) Get(ctx context.Context, locationID string) (*Override, bool, error) {
	o, err := scanOverride(r.db.QueryRow(ctx, `
		SELECT location_id, name, prices, updated_at
		FROM location_pricing
		WHERE location_id = $1
	`, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &o, true, nil
}

func (r *Repo) List(ctx context.Context) ([]Override, error) {
	rows, err := r.db.Query(ctx, `
		SELECT location_id, name, prices, updated_at
		FROM location_pricing
		ORDER BY name, location_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Override{}
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Upsert replaces the override for the location. Last writer wins.
func (r *Repo) Upsert(ctx context.Context, o Override) (*Override, error) {
	raw, err := json.Marshal(o.Prices)
	if err != nil {
		return nil, err
	}
	out, err := scanOverride(r.db.QueryRow(ctx, `
		INSERT INTO location_pricing (location_id, name, prices)
		VALUES ($1, $2, $3)
		ON CONFLICT (location_id)
		DO UPDATE SET name = EXCLUDED.name, prices = EXCLUDED.prices, updated_at = NOW()
		RETURNING location_id, name, prices, updated_at
	`, o.LocationID, o.Name, raw))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) Delete(ctx context.Context, locationID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM location_pricing WHERE location_id = $1`, locationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
