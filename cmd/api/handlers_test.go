package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storepay/internal/domain/orders"
	"storepay/internal/payments"
	"storepay/internal/payments/mocks"
	"storepay/internal/ratelimiter"
	"storepay/internal/reconcile"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type stubOrders struct {
	mu       sync.Mutex
	orders   map[string]orders.Order
	reopened []string
}

func (s *stubOrders) GetByNumber(_ context.Context, n string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[n]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &o, nil
}

func (s *stubOrders) Reopen(_ context.Context, n string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reopened = append(s.reopened, n)
	o := s.orders[n]
	o.PaymentStatus = orders.PaymentPending
	s.orders[n] = o
	return true, nil
}

type stubReconciler struct {
	mu    sync.Mutex
	calls []payments.Session
	out   reconcile.Outcome
	err   error
}

func (s *stubReconciler) Reconcile(_ context.Context, _ string, sess payments.Session) (reconcile.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sess)
	return s.out, s.err
}

type stubWebhooks struct{ valid bool }

func (s stubWebhooks) VerifyWebhookSignature([]byte, string) bool { return s.valid }

type testApp struct {
	app        *application
	handler    http.Handler
	gateway    *mocks.MockGateway
	orders     *stubOrders
	reconciler *stubReconciler
}

func newTestApp(t *testing.T, p payments.Provider) *testApp {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)

	pm := payments.NewPaymentManager()
	pm.SetVerifyRetry(1, time.Millisecond)
	pm.RegisterGateway(p, gw)

	store := &stubOrders{orders: map[string]orders.Order{
		"ORD-1001": {OrderNumber: "ORD-1001", PaymentStatus: orders.PaymentPending, Total: decimal.RequireFromString("50.00"), Email: "ama@example.com"},
		"ORD-PAID": {OrderNumber: "ORD-PAID", PaymentStatus: orders.PaymentPaid, Total: decimal.RequireFromString("10.00")},
		"ORD-FAIL": {OrderNumber: "ORD-FAIL", PaymentStatus: orders.PaymentFailed, Total: decimal.RequireFromString("10.00")},
	}}
	rec := &stubReconciler{out: reconcile.Outcome{Status: reconcile.StatusPaid}}
	limiter := ratelimiter.NewFixedWindowLimiter(5, time.Minute)
	t.Cleanup(limiter.Close)

	app := &application{
		config: config{
			rateLimiter: ratelimiter.Config{RequestsPerTimeFrame: 5, TimeFrame: time.Minute, Enabled: true},
			providers:   providersConfig{timeout: time.Second},
		},
		logger:      zap.NewNop().Sugar(),
		payments:    pm,
		orders:      store,
		reconciler:  rec,
		rateLimiter: limiter,
		webhooks:    stubWebhooks{valid: true},
		urls:        payments.NewReturnURLs("https://shop.example.com"),
	}
	return &testApp{app: app, handler: app.mount(), gateway: gw, orders: store, reconciler: rec}
}

func (ta *testApp) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:51234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

func TestCreateSessionHandler(t *testing.T) {
	t.Run("creates session for pending order", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.gateway.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payments.SessionRequest) (payments.SessionResponse, error) {
				assert.Equal(t, "ORD-1001", req.OrderNumber)
				assert.True(t, req.Amount.Equal(decimal.RequireFromString("50")))
				assert.Equal(t, "ama@example.com", req.CustomerEmail)
				return payments.SessionResponse{RedirectURL: "https://checkout.paystack.com/abc", ProviderReference: "ORD-1001-R1"}, nil
			})

		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/session", `{"orderNumber":"ORD-1001","amount":"50.00"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true,"redirectUrl":"https://checkout.paystack.com/abc","providerReference":"ORD-1001-R1"}`, rr.Body.String())
	})

	t.Run("unknown order", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		rr := ta.do(http.MethodPost, "/v1/payments/card/session", `{"orderNumber":"ORD-404","amount":"1.00"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("already paid", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		rr := ta.do(http.MethodPost, "/v1/payments/card/session", `{"orderNumber":"ORD-PAID","amount":"10.00"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("amount must match order", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		rr := ta.do(http.MethodPost, "/v1/payments/card/session", `{"orderNumber":"ORD-1001","amount":"5.00"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("failed order is reopened", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		ta.gateway.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(payments.SessionResponse{RedirectURL: "https://checkout.stripe.com/c/pay/cs_1", ProviderReference: "cs_1"}, nil)

		rr := ta.do(http.MethodPost, "/v1/payments/card/session", `{"orderNumber":"ORD-FAIL","amount":10}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"ORD-FAIL"}, ta.orders.reopened)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		rr := ta.do(http.MethodPost, "/v1/payments/wallet/session", `{"orderNumber":"ORD-1001","amount":"50.00"}`)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("provider validation error", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.gateway.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(payments.SessionResponse{}, &payments.Error{Kind: payments.KindValidation, Provider: payments.ProviderMobileMoney, Err: payments.ErrAmountTooSmall})

		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/session", `{"orderNumber":"ORD-1001","amount":"50.00"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("provider outage", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.gateway.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(payments.SessionResponse{}, &payments.Error{Kind: payments.KindTransient, Provider: payments.ProviderMobileMoney, Err: payments.ErrProviderRequest})

		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/session", `{"orderNumber":"ORD-1001","amount":"50.00"}`)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestRateLimiterMiddleware(t *testing.T) {
	ta := newTestApp(t, payments.ProviderCard)

	// unknown orders still count against the window
	for i := 0; i < 5; i++ {
		rr := ta.do(http.MethodPost, "/v1/payments/card/session", `{"orderNumber":"ORD-404","amount":"1.00"}`)
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	rr := ta.do(http.MethodPost, "/v1/payments/card/session", `{"orderNumber":"ORD-404","amount":"1.00"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.NotEqual(t, "0", rr.Header().Get("X-RateLimit-Reset"))
}

func TestReturnHandlers(t *testing.T) {
	t.Run("missing order number never reaches the provider", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		rr := ta.do(http.MethodGet, "/v1/payments/card/return?session_id=cs_1", "")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "https://shop.example.com/?error=missing_params", rr.Header().Get("Location"))
		assert.Empty(t, rr.Body.String())
		assert.Empty(t, ta.reconciler.calls)
	})

	t.Run("paid redirects to success page", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderWallet)
		ta.gateway.EXPECT().VerifySession(gomock.Any(), payments.VerifyRequest{OrderNumber: "ORD-1001", Token: "5O190127TN364715T"}).
			Return(payments.Session{Provider: payments.ProviderWallet, Status: payments.StatusCompleted, ProviderReference: "paypal:3C6"}, nil)

		rr := ta.do(http.MethodGet, "/v1/payments/wallet/return?order=ORD-1001&token=5O190127TN364715T", "")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "https://shop.example.com/order-success?order=ORD-1001&payment_success=true", rr.Header().Get("Location"))
		assert.Len(t, ta.reconciler.calls, 1)
	})

	t.Run("card still unpaid", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderCard)
		ta.reconciler.out = reconcile.Outcome{Status: reconcile.StatusPending}
		ta.gateway.EXPECT().VerifySession(gomock.Any(), gomock.Any()).
			Return(payments.Session{Provider: payments.ProviderCard, Status: payments.StatusPending}, nil)

		rr := ta.do(http.MethodGet, "/v1/payments/card/return?order=ORD-1001&session_id=cs_1", "")
		assert.Equal(t, "https://shop.example.com/pay/ORD-1001?error=not_paid", rr.Header().Get("Location"))
	})

	t.Run("verify outage keeps order untouched", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.gateway.EXPECT().VerifySession(gomock.Any(), gomock.Any()).
			Return(payments.Session{}, &payments.Error{Kind: payments.KindTransient, Provider: payments.ProviderMobileMoney, Err: payments.ErrProviderRequest})

		rr := ta.do(http.MethodGet, "/v1/payments/mobile-money/return?order=ORD-1001&trxref=ORD-1001-R1&reference=ORD-1001-R1", "")
		assert.Equal(t, "https://shop.example.com/pay/ORD-1001?error=verify_failed", rr.Header().Get("Location"))
		assert.Empty(t, ta.reconciler.calls)
	})

	t.Run("unknown order", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.reconciler.err = reconcile.ErrOrderNotFound
		ta.gateway.EXPECT().VerifySession(gomock.Any(), gomock.Any()).
			Return(payments.Session{Provider: payments.ProviderMobileMoney, Status: payments.StatusCompleted}, nil)

		rr := ta.do(http.MethodGet, "/v1/payments/mobile-money/return?order=ORD-9&reference=ORD-9-R1", "")
		assert.Equal(t, "https://shop.example.com/pay/ORD-9?error=order_not_found", rr.Header().Get("Location"))
	})
}

func TestMobileMoneyWebhookHandler(t *testing.T) {
	event := `{"event":"charge.success","data":{"reference":"ORD-1001-R1","status":"success","metadata":{"order_number":"ORD-1001"}}}`

	t.Run("rejects bad signature", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.app.webhooks = stubWebhooks{valid: false}
		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/webhook", event)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, ta.reconciler.calls)
	})

	t.Run("verifies and reconciles", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.gateway.EXPECT().VerifySession(gomock.Any(), payments.VerifyRequest{OrderNumber: "ORD-1001", Token: "ORD-1001-R1"}).
			Return(payments.Session{Provider: payments.ProviderMobileMoney, Status: payments.StatusCompleted}, nil)

		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/webhook", event)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, ta.reconciler.calls, 1)
	})

	t.Run("asks for redelivery on outage", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		ta.gateway.EXPECT().VerifySession(gomock.Any(), gomock.Any()).
			Return(payments.Session{}, &payments.Error{Kind: payments.KindTransient, Provider: payments.ProviderMobileMoney, Err: payments.ErrProviderRequest})

		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/webhook", event)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("ignores other events", func(t *testing.T) {
		ta := newTestApp(t, payments.ProviderMobileMoney)
		rr := ta.do(http.MethodPost, "/v1/payments/mobile-money/webhook", `{"event":"transfer.success","data":{"reference":"x"}}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, ta.reconciler.calls)
	})
}

func TestHealthRequiresBasicAuth(t *testing.T) {
	ta := newTestApp(t, payments.ProviderCard)
	ta.app.config.auth.basic = basicConfig{user: "ops", pass: "secret"}

	rr := ta.do(http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.SetBasicAuth("ops", "secret")
	rr = httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"card"`)
}

func TestServerTimeoutsOutlastCapture(t *testing.T) {
	for _, providerTimeout := range []time.Duration{0, 10 * time.Second, 30 * time.Second} {
		app := &application{config: config{providers: providersConfig{timeout: providerTimeout}}}

		assert.Greater(t, app.requestTimeout(), app.captureTimeout(), providerTimeout)
		assert.Greater(t, app.writeTimeout(), app.requestTimeout(), providerTimeout)
	}
}
