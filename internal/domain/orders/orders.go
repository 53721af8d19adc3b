package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storepay/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var QueryTimeoutDuration = 5 * time.Second

const orderColumns = `id, order_number, payment_status, total::text, email,
       payment_reference, paid_at, created_at, updated_at`

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{q: q}
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o     Order
		total string
		email *string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.PaymentStatus, &total, &email,
		&o.PaymentReference, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse order total %q: %w", total, err)
	}
	o.Total = d
	if email != nil {
		o.Email = *email
	}
	return &o, nil
}

func (r *Repository) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	o, err := scanOrder(r.q.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE order_number = $1`, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", orderNumber, err)
	}
	return o, nil
}

// MarkPaid is the single synchronization point of the payment flow. The
// payment_status predicate makes the UPDATE a compare-and-set: concurrent
// callers, in this process or another, serialize on the row lock and only
// the first one sees a pending row.
func (r *Repository) MarkPaid(ctx context.Context, orderNumber, providerRef string) (*Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	o, err := scanOrder(r.q.QueryRow(ctx, `
UPDATE orders
   SET payment_status = 'paid',
       payment_reference = $2,
       paid_at = now(),
       updated_at = now()
 WHERE order_number = $1
   AND payment_status = 'pending'
RETURNING `+orderColumns, orderNumber, providerRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mark order %s paid: %w", orderNumber, err)
	}
	return o, true, nil
}

func (r *Repository) MarkFailed(ctx context.Context, orderNumber string) (bool, error) {
	return r.transition(ctx, orderNumber, PaymentPending, PaymentFailed)
}

func (r *Repository) Reopen(ctx context.Context, orderNumber string) (bool, error) {
	return r.transition(ctx, orderNumber, PaymentFailed, PaymentPending)
}

func (r *Repository) transition(ctx context.Context, orderNumber string, from, to PaymentStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.q.Exec(ctx, `
UPDATE orders
   SET payment_status = $3,
       updated_at = now()
 WHERE order_number = $1
   AND payment_status = $2`, orderNumber, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("order %s %s->%s: %w", orderNumber, from, to, err)
	}
	return tag.RowsAffected() == 1, nil
}
