package reconcile

import (
	"context"
	"errors"
	"fmt"

	"storepay/internal/domain/orders"
	"storepay/internal/monitoring"
	"storepay/internal/payments"

	"go.uber.org/zap"
)

const (
	taskCustomerStats = "customer_stats"
	taskConfirmation  = "confirmation"
)

// Service turns a verified provider session into at most one paid
// transition of the local order.
type Service struct {
	orders     OrderStore
	stats      StatsUpdater
	notifier   Notifier
	dispatcher *Dispatcher
	logger     *zap.SugaredLogger
}

func NewService(store OrderStore, stats StatsUpdater, notifier Notifier, dispatcher *Dispatcher, logger *zap.SugaredLogger) *Service {
	return &Service{
		orders:     store,
		stats:      stats,
		notifier:   notifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *Service) Reconcile(ctx context.Context, orderNumber string, sess payments.Session) (Outcome, error) {
	out, err := s.reconcile(ctx, orderNumber, sess)
	result := string(out.Status)
	if err != nil {
		result = "error"
	}
	monitoring.TickReconcile(string(sess.Provider), result)
	return out, err
}

func (s *Service) reconcile(ctx context.Context, orderNumber string, sess payments.Session) (Outcome, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return Outcome{}, fmt.Errorf("load order %s: %w", orderNumber, err)
	}

	if order.IsPaid() {
		return Outcome{Status: StatusAlreadyPaid, Order: order}, nil
	}

	if !sess.Completed() {
		return s.notCompleted(ctx, order, sess), nil
	}

	if sess.AmountMinorUnits > 0 {
		if want := payments.ToMinorUnits(order.Total); want != sess.AmountMinorUnits {
			s.logger.Errorw("verified amount does not match order total",
				"order", orderNumber,
				"provider", sess.Provider,
				"ref", sess.ProviderReference,
				"want", want,
				"got", sess.AmountMinorUnits,
			)
			return Outcome{Status: StatusAmountMismatch, Order: order}, nil
		}
	}

	updated, transitioned, err := s.orders.MarkPaid(ctx, orderNumber, sess.ProviderReference)
	if err != nil {
		return Outcome{Order: order}, fmt.Errorf("%w: mark %s paid: %v", ErrStoreWrite, orderNumber, err)
	}

	if !transitioned {
		// someone else won the compare-and-set, or the order left pending
		current, err := s.orders.GetByNumber(ctx, orderNumber)
		if err != nil {
			return Outcome{Order: order}, fmt.Errorf("%w: reload %s: %v", ErrStoreWrite, orderNumber, err)
		}
		if current.IsPaid() {
			return Outcome{Status: StatusAlreadyPaid, Order: current}, nil
		}
		s.logger.Errorw("completed payment for order that is not pending",
			"order", orderNumber,
			"provider", sess.Provider,
			"ref", sess.ProviderReference,
			"status", current.PaymentStatus,
		)
		return Outcome{Order: current}, fmt.Errorf("%w: %s is %s", ErrNotPayable, orderNumber, current.PaymentStatus)
	}

	s.logger.Infow("order paid", "order", orderNumber, "provider", sess.Provider, "ref", sess.ProviderReference)
	s.dispatchPaid(*updated, sess.Provider)
	return Outcome{Status: StatusPaid, Order: updated}, nil
}

func (s *Service) notCompleted(ctx context.Context, order *orders.Order, sess payments.Session) Outcome {
	if sess.Status != payments.StatusFailed {
		return Outcome{Status: StatusPending, Order: order}
	}

	if _, err := s.orders.MarkFailed(ctx, order.OrderNumber); err != nil {
		// the customer can still retry; a pending row is harmless
		s.logger.Warnw("could not mark order failed", "order", order.OrderNumber, "provider", sess.Provider, "err", err)
	}
	return Outcome{Status: StatusFailed, Order: order}
}

func (s *Service) dispatchPaid(order orders.Order, provider payments.Provider) {
	if s.stats != nil {
		s.dispatcher.Enqueue(Task{
			Name:  taskCustomerStats,
			Order: order.OrderNumber,
			Run: func(ctx context.Context) error {
				return s.stats.UpdateCustomerStats(ctx, order.Email, order.Total)
			},
		})
	}
	if s.notifier != nil {
		s.dispatcher.Enqueue(Task{
			Name:  taskConfirmation,
			Order: order.OrderNumber,
			Run: func(ctx context.Context) error {
				return s.notifier.NotifyOrderPaid(ctx, order, provider)
			},
		})
	}
}
