package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const paymentCols = `id, session_id, method, amount, currency, status, failure_reason, order_snapshot, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(&p.ID, &p.SessionID, &p.Method, &p.Amount, &p.Currency, &p.Status,
		&p.FailureReason, &p.Order, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p Payment) (*Payment, error) {
	if len(p.Order) == 0 {
		p.Order = []byte(`{}`)
	}
	return scanPayment(r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, session_id, method, amount, currency, status, failure_reason, order_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+paymentCols,
		p.ID, p.SessionID, string(p.Method), p.Amount, p.Currency, string(p.Status), p.FailureReason, []byte(p.Order)))
}

func (r *Repo) Get(ctx context.Context, id string) (*Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id=$1`, id))
}

// SetStatus moves a pending payment to status. Settled payments are left alone.
func (r *Repo) SetStatus(ctx context.Context, id string, status Status) (*Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `
		UPDATE payments SET status=$2, updated_at=NOW()
		WHERE id=$1 AND status='pending'
		RETURNING `+paymentCols, id, string(status)))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := r.Get(ctx, id); getErr == nil {
			return nil, ErrAlreadySettled
		}
	}
	return p, err
}
