package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrSlugTaken
		case "23503":
			return ErrInUse
		}
	}
	return err
}

func execOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* Locations */

const locationCols = `id, slug, name, city, address, active, created_at`

func scanLocation(row pgx.Row) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Slug, &l.Name, &l.City, &l.Address, &l.Active, &l.CreatedAt)
	return l, err
}

func (r *Repo) ListLocations(ctx context.Context, onlyActive bool) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+locationCols+`
		FROM locations
		WHERE active OR NOT $1
		ORDER BY name
	`, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) GetLocation(ctx context.Context, id string) (*Location, error) {
	l, err := scanLocation(r.pool.QueryRow(ctx, `SELECT `+locationCols+` FROM locations WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *Repo) CreateLocation(ctx context.Context, l Location) (*Location, error) {
	out, err := scanLocation(r.pool.QueryRow(ctx, `
		INSERT INTO locations (id, slug, name, city, address, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+locationCols,
		l.ID, l.Slug, l.Name, l.City, l.Address, l.Active))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *Repo) UpdateLocation(ctx context.Context, l Location) (*Location, error) {
	out, err := scanLocation(r.pool.QueryRow(ctx, `
		UPDATE locations SET slug=$2, name=$3, city=$4, address=$5, active=$6, updated_at=NOW()
		WHERE id=$1
		RETURNING `+locationCols,
		l.ID, l.Slug, l.Name, l.City, l.Address, l.Active))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *Repo) DeleteLocation(ctx context.Context, id string) error {
	return execOne(r.pool.Exec(ctx, `DELETE FROM locations WHERE id=$1`, id))
}

/* Plans */

const planCols = `id, name, type, description, pricing, active, created_at`

func scanPlan(row pgx.Row) (Plan, error) {
	var (
		p   Plan
		raw []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Description, &raw, &p.Active, &p.CreatedAt); err != nil {
		return p, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Pricing); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (r *Repo) ListPlans(ctx context.Context, onlyActive bool) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+planCols+`
		FROM plans
		WHERE active OR NOT $1
		ORDER BY sort_order, name
	`, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetPlan(ctx context.Context, id string) (*Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planCols+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *Repo) CreatePlan(ctx context.Context, p Plan) (*Plan, error) {
	raw, err := json.Marshal(p.Pricing)
	if err != nil {
		return nil, err
	}
	out, err := scanPlan(r.pool.QueryRow(ctx, `
		INSERT INTO plans (id, name, type, description, pricing, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+planCols,
		p.ID, p.Name, string(p.Type), p.Description, raw, p.Active))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *Repo) UpdatePlan(ctx context.Context, p Plan) (*Plan, error) {
	raw, err := json.Marshal(p.Pricing)
	if err != nil {
		return nil, err
	}
	out, err := scanPlan(r.pool.QueryRow(ctx, `
		UPDATE plans SET name=$2, type=$3, description=$4, pricing=$5, active=$6, updated_at=NOW()
		WHERE id=$1
		RETURNING `+planCols,
		p.ID, p.Name, string(p.Type), p.Description, raw, p.Active))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *Repo) DeletePlan(ctx context.Context, id string) error {
	return execOne(r.pool.Exec(ctx, `DELETE FROM plans WHERE id=$1`, id))
}

/* Add-ons */

const addOnCols = `id, name, description, price, active, created_at`

func scanAddOn(row pgx.Row) (AddOn, error) {
	var a AddOn
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Price, &a.Active, &a.CreatedAt)
	return a, err
}

func (r *Repo) ListAddOns(ctx context.Context, onlyActive bool) ([]AddOn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+addOnCols+`
		FROM add_ons
		WHERE active OR NOT $1
		ORDER BY name
	`, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AddOn{}
	for rows.Next() {
		a, err := scanAddOn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) GetAddOn(ctx context.Context, id string) (*AddOn, error) {
	a, err := scanAddOn(r.pool.QueryRow(ctx, `SELECT `+addOnCols+` FROM add_ons WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *Repo) CreateAddOn(ctx context.Context, a AddOn) (*AddOn, error) {
	out, err := scanAddOn(r.pool.QueryRow(ctx, `
		INSERT INTO add_ons (id, name, description, price, active)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+addOnCols,
		a.ID, a.Name, a.Description, a.Price, a.Active))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *Repo) UpdateAddOn(ctx context.Context, a AddOn) (*AddOn, error) {
	out, err := scanAddOn(r.pool.QueryRow(ctx, `
		UPDATE add_ons SET name=$2, description=$3, price=$4, active=$5, updated_at=NOW()
		WHERE id=$1
		RETURNING `+addOnCols,
		a.ID, a.Name, a.Description, a.Price, a.Active))
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (r *Repo) DeleteAddOn(ctx context.Context, id string) error {
	return execOne(r.pool.Exec(ctx, `DELETE FROM add_ons WHERE id=$1`, id))
}
