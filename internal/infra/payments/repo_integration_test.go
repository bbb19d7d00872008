package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/cowork-booking/internal/testutil"
)

func TestRepoSetStatusOnlyMovesPending(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.TruncateAll(t, pool)

	repo := NewRepo(pool)
	ctx := context.Background()

	p, err := repo.Create(ctx, Payment{
		ID: "pay-1", SessionID: "s1", Method: MethodUPI, Amount: 902500, Currency: "INR",
		Status: StatusPending, Order: []byte(`{"plan_id":"hot"}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if string(p.Order) == "" {
		t.Fatalf("order snapshot not stored")
	}

	if _, err := repo.SetStatus(ctx, "pay-1", StatusPaid); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := repo.SetStatus(ctx, "pay-1", StatusFailed); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	if _, err := repo.SetStatus(ctx, "nope", StatusPaid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
