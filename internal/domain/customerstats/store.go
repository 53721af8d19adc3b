package customerstats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storepay/internal/infra/dbx"

	"github.com/shopspring/decimal"
)

var QueryTimeoutDuration = 5 * time.Second

type Store interface {
	UpdateCustomerStats(ctx context.Context, email string, orderTotal decimal.Decimal) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{q: q}
}

// UpdateCustomerStats records one more paid order for the customer.
func (r *Repository) UpdateCustomerStats(ctx context.Context, email string, orderTotal decimal.Decimal) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("customer stats: empty email")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.q.Exec(ctx, `
INSERT INTO customers (email, total_orders, total_spent, last_order_at)
VALUES ($1, 1, $2::numeric, now())
ON CONFLICT (email) DO UPDATE
   SET total_orders  = customers.total_orders + 1,
       total_spent   = customers.total_spent + EXCLUDED.total_spent,
       last_order_at = now()
`, email, orderTotal.StringFixed(2))
	if err != nil {
		return fmt.Errorf("update customer stats for %s: %w", email, err)
	}
	return nil
}
