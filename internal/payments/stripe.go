package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// stripe rejects charges below 50 of the smallest unit, except for GHS
// where the floor is lower.
const (
	stripeMinMinor    = 50
	stripeMinMinorGHS = 10
)

type StripeConfig struct {
	SecretKey string
	Currency  string
	Timeout   time.Duration
}

func (c StripeConfig) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return &Error{Kind: KindConfig, Provider: ProviderCard, Err: fmt.Errorf("%w: STRIPE_SECRET_KEY", ErrMissingCredentials)}
	}
	return nil
}

// checkoutSessions is the subset of the Stripe checkout session client we use.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeAdapter struct {
	cfg      StripeConfig
	urls     ReturnURLs
	sessions checkoutSessions
}

func NewStripeAdapter(cfg StripeConfig, urls ReturnURLs) (*StripeAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Currency == "" {
		cfg.Currency = "ghs"
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &StripeAdapter{
		cfg:      cfg,
		urls:     urls,
		sessions: &session.Client{B: newStripeBackend(cfg.Timeout), Key: cfg.SecretKey},
	}, nil
}

// newStripeBackend bounds every card call by timeout. Network retries stay
// with PaymentManager so one hung request cannot eat the capture budget.
func newStripeBackend(timeout time.Duration) stripe.Backend {
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})
}

func stripeMinimum(currency string) int64 {
	if strings.EqualFold(currency, "ghs") {
		return stripeMinMinorGHS
	}
	return stripeMinMinor
}

func (a *StripeAdapter) CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = a.cfg.Currency
	}
	minor, err := checkMinimum(ProviderCard, req.Amount, stripeMinimum(currency))
	if err != nil {
		return SessionResponse{}, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderNumber),
		SuccessURL:        stripe.String(a.urls.CardSuccess(req.OrderNumber)),
		CancelURL:         stripe.String(a.urls.Cancel(req.OrderNumber)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + req.OrderNumber),
					},
					UnitAmount: stripe.Int64(minor),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("order_number", req.OrderNumber)

	s, err := a.sessions.New(params)
	if err != nil {
		return SessionResponse{}, stripeError(err)
	}
	if s.URL == "" {
		return SessionResponse{}, newError(KindTerminal, ProviderCard, "%w: session %s has no url", ErrProviderResponse, s.ID)
	}
	return SessionResponse{RedirectURL: s.URL, ProviderReference: s.ID}, nil
}

func (a *StripeAdapter) VerifySession(ctx context.Context, req VerifyRequest) (Session, error) {
	if strings.TrimSpace(req.Token) == "" {
		return Session{}, &Error{Kind: KindValidation, Provider: ProviderCard, Err: ErrMissingCorrelation}
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := a.sessions.Get(req.Token, params)
	if err != nil {
		return Session{}, stripeError(err)
	}

	if owner := stripeSessionOrder(s); owner != "" && owner != req.OrderNumber {
		return Session{}, newError(KindValidation, ProviderCard, "%w: session %s is for order %s", ErrCorrelationMismatch, s.ID, owner)
	}

	ref := s.ID
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		ref = s.PaymentIntent.ID
	}
	return Session{
		Provider:          ProviderCard,
		ProviderReference: "stripe:" + ref,
		AmountMinorUnits:  s.AmountTotal,
		Currency:          strings.ToUpper(string(s.Currency)),
		Status:            mapStripeStatus(s),
		ProviderState:     fmt.Sprintf("%s/%s", s.Status, s.PaymentStatus),
	}, nil
}

func stripeSessionOrder(s *stripe.CheckoutSession) string {
	if s.ClientReferenceID != "" {
		return s.ClientReferenceID
	}
	return s.Metadata["order_number"]
}

func mapStripeStatus(s *stripe.CheckoutSession) SessionStatus {
	switch s.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return StatusCompleted
	}
	if s.Status == stripe.CheckoutSessionStatusExpired {
		return StatusFailed
	}
	return StatusPending
}

// stripeError classifies SDK errors: 5xx, 429 and api_error are retryable,
// authentication failures are configuration problems.
func stripeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return newError(KindTransient, ProviderCard, "%w: %v", ErrProviderRequest, err)
	}
	wrapped := fmt.Errorf("%w: %s (%s)", ErrProviderRequest, se.Msg, se.Type)
	switch {
	case se.HTTPStatusCode >= 500, se.HTTPStatusCode == http.StatusTooManyRequests, se.Type == stripe.ErrorTypeAPI:
		return &Error{Kind: KindTransient, Provider: ProviderCard, Err: wrapped}
	case se.HTTPStatusCode == http.StatusUnauthorized, se.HTTPStatusCode == http.StatusForbidden:
		return &Error{Kind: KindConfig, Provider: ProviderCard, Err: wrapped}
	case se.HTTPStatusCode == http.StatusNotFound:
		return &Error{Kind: KindTerminal, Provider: ProviderCard, Err: fmt.Errorf("%w: %s", ErrProviderResponse, se.Msg)}
	default:
		return &Error{Kind: KindTerminal, Provider: ProviderCard, Err: wrapped}
	}
}
