package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentCanceled PaymentStatus = "canceled"
)

// Order is the slice of the order row the payment flow reads and writes.
// Orders are created elsewhere; this package never inserts them.
type Order struct {
	ID               int64           `json:"id"`
	OrderNumber      string          `json:"order_number"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	Total            decimal.Decimal `json:"total"`
	Email            string          `json:"email"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (o *Order) IsPaid() bool {
	return o != nil && o.PaymentStatus == PaymentPaid
}

type Store interface {
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// MarkPaid moves a pending order to paid. The bool is false when no row
	// was transitioned (already paid, failed, or missing).
	MarkPaid(ctx context.Context, orderNumber, providerRef string) (*Order, bool, error)
	MarkFailed(ctx context.Context, orderNumber string) (bool, error)
	// Reopen moves a failed order back to pending so a fresh session can be started.
	Reopen(ctx context.Context, orderNumber string) (bool, error)
}
