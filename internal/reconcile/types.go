package reconcile

import (
	"context"
	"errors"

	"storepay/internal/domain/orders"
	"storepay/internal/payments"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=types.go -destination=mocks/collaborators.go -package=mocks

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrStoreWrite    = errors.New("order store write failed")
	// ErrNotPayable is returned when a completed payment arrives for an order
	// that is neither pending nor paid. The money needs manual follow-up.
	ErrNotPayable = errors.New("order is not awaiting payment")
)

// OrderStore is the atomic order boundary. MarkPaid and MarkFailed only act
// on pending rows.
type OrderStore interface {
	GetByNumber(ctx context.Context, orderNumber string) (*orders.Order, error)
	MarkPaid(ctx context.Context, orderNumber, providerRef string) (*orders.Order, bool, error)
	MarkFailed(ctx context.Context, orderNumber string) (bool, error)
}

type StatsUpdater interface {
	UpdateCustomerStats(ctx context.Context, email string, orderTotal decimal.Decimal) error
}

type Notifier interface {
	NotifyOrderPaid(ctx context.Context, order orders.Order, provider payments.Provider) error
}

type Status string

const (
	StatusPaid           Status = "paid"
	StatusAlreadyPaid    Status = "already_paid"
	StatusPending        Status = "pending"
	StatusFailed         Status = "failed"
	StatusAmountMismatch Status = "amount_mismatch"
)

type Outcome struct {
	Status Status
	Order  *orders.Order
}

// Success is true for both the winning transition and any replay of it.
func (o Outcome) Success() bool {
	return o.Status == StatusPaid || o.Status == StatusAlreadyPaid
}

// ErrorCode is the failure code shown on the order's payment page.
func (o Outcome) ErrorCode() string {
	switch o.Status {
	case StatusPending:
		return payments.ErrCodeNotCompleted
	case StatusFailed:
		return payments.ErrCodeDeclined
	case StatusAmountMismatch:
		return payments.ErrCodeAmountMismatch
	default:
		return ""
	}
}
