package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("wizard: session not found")

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Get(ctx context.Context, id string) (*Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT step, draft, updated_at FROM wizard_sessions WHERE id = $1`, id)
	var (
		step int
		raw  []byte
		at   time.Time
	)
	if err := row.Scan(&step, &raw, &at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &Record{ID: id, Step: Step(step), Draft: d, UpdatedAt: at}, nil
}

func (r *Repo) Save(ctx context.Context, rec Record) (time.Time, error) {
	raw, err := json.Marshal(rec.Draft)
	if err != nil {
		return time.Time{}, err
	}
	var at time.Time
	err = r.pool.QueryRow(ctx, `
		INSERT INTO wizard_sessions (id, step, draft, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (id) DO UPDATE SET
		  step=$2, draft=$3, updated_at=now()
		RETURNING updated_at
	`, rec.ID, int(rec.Step), raw).Scan(&at)
	return at, err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM wizard_sessions WHERE id = $1`, id)
	return err
}

// DeleteStale drops sessions untouched since before cutoff and returns how many went.
func (r *Repo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wizard_sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
