package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storepay/internal/domain/orders"
	"storepay/internal/domain/paymentsrepo"
	"storepay/internal/domain/pushtokens"
	"storepay/internal/monitoring"
	"storepay/internal/payments"
	"storepay/internal/ratelimiter"
	"storepay/internal/reconcile"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type orderStore interface {
	GetByNumber(ctx context.Context, orderNumber string) (*orders.Order, error)
	Reopen(ctx context.Context, orderNumber string) (bool, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, orderNumber string, sess payments.Session) (reconcile.Outcome, error)
}

type webhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type application struct {
	config      config
	logger      *zap.SugaredLogger
	payments    *payments.PaymentManager
	orders      orderStore
	reconciler  reconciler
	paymentLogs paymentsrepo.LogsStore
	pushTokens  pushtokens.Store
	rateLimiter ratelimiter.Limiter
	webhooks    webhookVerifier
	urls        payments.ReturnURLs
	dispatcher  *reconcile.Dispatcher
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(app.requestTimeout()))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/metrics", monitoring.Handler().ServeHTTP)

		// back office, same credentials as health
		r.Group(func(r chi.Router) {
			r.Use(app.BasicAuthMiddleware())

			r.Get("/orders/{orderNumber}/payment-logs", app.listPaymentLogsHandler)

			r.Route("/merchant/push-tokens", func(r chi.Router) {
				r.Put("/", app.savePushTokenHandler)
				r.Delete("/", app.removePushTokenHandler)
				r.Post("/prune", app.pruneStaleTokensHandler)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(app.RateLimiterMiddleware).Post("/{provider}/session", app.createSessionHandler)

			// provider return redirects, never answered with a body
			r.Get("/card/return", app.cardReturnHandler)
			r.Get("/wallet/return", app.walletReturnHandler)
			r.Get("/mobile-money/return", app.mobileMoneyReturnHandler)

			r.Post("/mobile-money/webhook", app.mobileMoneyWebhookHandler)
		})
	})
	return r
}

// requestTimeout leaves a capture room to finish and still redirect.
func (app *application) requestTimeout() time.Duration {
	return max(60*time.Second, app.captureTimeout()+5*time.Second)
}

// writeTimeout outlasts requestTimeout so the redirect is never cut off.
func (app *application) writeTimeout() time.Duration {
	return app.requestTimeout() + 5*time.Second
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: app.writeTimeout(),
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		err := srv.Shutdown(ctx)
		// in-flight requests are done; let queued side effects finish
		if app.dispatcher != nil {
			if derr := app.dispatcher.Close(ctx); derr != nil {
				app.logger.Warnw("side effects still running at shutdown", "err", derr)
			}
		}
		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
