package payments

import (
	"context"
	"time"
)

const (
	defaultVerifyAttempts = 3
	defaultVerifyBackoff  = 200 * time.Millisecond
)

// PaymentManager selects a Gateway by explicit provider tag.
type PaymentManager struct {
	gateways map[Provider]Gateway

	verifyAttempts int
	verifyBackoff  time.Duration
}

func NewPaymentManager() *PaymentManager {
	return &PaymentManager{
		gateways:       make(map[Provider]Gateway),
		verifyAttempts: defaultVerifyAttempts,
		verifyBackoff:  defaultVerifyBackoff,
	}
}

// SetVerifyRetry overrides the verify retry policy. attempts < 1 disables retries.
func (m *PaymentManager) SetVerifyRetry(attempts int, backoff time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	m.verifyAttempts = attempts
	m.verifyBackoff = backoff
}

func (m *PaymentManager) RegisterGateway(p Provider, gateway Gateway) {
	m.gateways[p] = gateway
}

func (m *PaymentManager) Registered(p Provider) bool {
	_, ok := m.gateways[p]
	return ok
}

func (m *PaymentManager) gateway(p Provider) (Gateway, error) {
	g, ok := m.gateways[p]
	if !ok {
		return nil, &Error{Kind: KindConfig, Provider: p, Err: ErrGatewayNotRegistered}
	}
	return g, nil
}

func (m *PaymentManager) CreateSession(ctx context.Context, p Provider, req SessionRequest) (SessionResponse, error) {
	g, err := m.gateway(p)
	if err != nil {
		return SessionResponse{}, err
	}
	if req.OrderNumber == "" {
		return SessionResponse{}, &Error{Kind: KindValidation, Provider: p, Err: ErrMissingCorrelation}
	}
	return g.CreateSession(ctx, req)
}

// VerifySession asks the provider for the authoritative session state,
// retrying transient failures with exponential backoff bounded by ctx.
func (m *PaymentManager) VerifySession(ctx context.Context, p Provider, req VerifyRequest) (Session, error) {
	g, err := m.gateway(p)
	if err != nil {
		return Session{}, err
	}
	if req.OrderNumber == "" || req.Token == "" {
		return Session{}, &Error{Kind: KindValidation, Provider: p, Err: ErrMissingCorrelation}
	}

	var (
		sess  Session
		delay = m.verifyBackoff
	)
	for attempt := 1; ; attempt++ {
		sess, err = g.VerifySession(ctx, req)
		if err == nil || !IsTransient(err) || attempt >= m.verifyAttempts {
			return sess, err
		}

		select {
		case <-ctx.Done():
			return sess, err
		case <-time.After(delay):
		}
		delay *= 2
	}
}
