package storage

import (
	"context"
	"fmt"
	"strings"

	"storepay/internal/domain/customerstats"
	"storepay/internal/domain/orders"
	"storepay/internal/domain/paymentsrepo"
	"storepay/internal/domain/pushtokens"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool          *pgxpool.Pool
	Orders        orders.Store
	PaymentLogs   paymentsrepo.LogsStore
	CustomerStats customerstats.Store
	PushTokens    pushtokens.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:          db,
		Orders:        orders.NewRepository(db),
		PaymentLogs:   paymentsrepo.NewLogsRepository(db),
		CustomerStats: customerstats.NewRepository(db),
		PushTokens:    pushtokens.NewRepository(db),
	}
}

// PaymentTx is a tx-scoped set of repos for the paid transition.
type PaymentTx struct {
	Orders      orders.Store
	PaymentLogs paymentsrepo.LogsStore
}

// WithPaymentTx runs fn atomically.
func (c *Container) WithPaymentTx(ctx context.Context, fn func(s *PaymentTx) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // safe even if already committed
	}()

	s := &PaymentTx{
		Orders:      orders.NewRepository(tx),
		PaymentLogs: paymentsrepo.NewLogsRepository(tx),
	}

	if err := fn(s); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (c *Container) GetByNumber(ctx context.Context, orderNumber string) (*orders.Order, error) {
	return c.Orders.GetByNumber(ctx, orderNumber)
}

// MarkPaid commits the compare-and-set transition together with its
// payment_logs row, so every paid order has exactly one paid entry.
func (c *Container) MarkPaid(ctx context.Context, orderNumber, providerRef string) (*orders.Order, bool, error) {
	var (
		paid         *orders.Order
		transitioned bool
	)
	err := c.WithPaymentTx(ctx, func(s *PaymentTx) error {
		o, ok, err := s.Orders.MarkPaid(ctx, orderNumber, providerRef)
		if err != nil || !ok {
			return err
		}
		if err := s.PaymentLogs.InsertPaymentLog(ctx, orderNumber, providerOf(providerRef), paymentsrepo.LogPaid, map[string]string{
			"reference": providerRef,
		}); err != nil {
			return err
		}
		paid, transitioned = o, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return paid, transitioned, nil
}

func (c *Container) MarkFailed(ctx context.Context, orderNumber string) (bool, error) {
	return c.Orders.MarkFailed(ctx, orderNumber)
}

func (c *Container) Reopen(ctx context.Context, orderNumber string) (bool, error) {
	return c.Orders.Reopen(ctx, orderNumber)
}

// providerOf reads the gateway prefix of a recorded reference such as
// "paystack:ORD-1001-R01".
func providerOf(ref string) string {
	if p, _, ok := strings.Cut(ref, ":"); ok {
		return p
	}
	return ""
}
