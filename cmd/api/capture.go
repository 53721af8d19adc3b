package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"storepay/internal/domain/paymentsrepo"
	"storepay/internal/monitoring"
	"storepay/internal/payments"
	"storepay/internal/reconcile"
)

const paystackSignatureHeader = "x-paystack-signature"

// captureResult is what a verify plus reconcile pass resolved to.
type captureResult struct {
	paid      bool
	code      string // failure code for the order page
	retryable bool
}

// GET /v1/payments/card/return?order=&session_id=
func (app *application) cardReturnHandler(w http.ResponseWriter, r *http.Request) {
	app.handleReturn(w, r, payments.ProviderCard)
}

// GET /v1/payments/wallet/return?order=&token=
func (app *application) walletReturnHandler(w http.ResponseWriter, r *http.Request) {
	app.handleReturn(w, r, payments.ProviderWallet)
}

// GET /v1/payments/mobile-money/return?order=&reference=
func (app *application) mobileMoneyReturnHandler(w http.ResponseWriter, r *http.Request) {
	app.handleReturn(w, r, payments.ProviderMobileMoney)
}

func (app *application) handleReturn(w http.ResponseWriter, r *http.Request, p payments.Provider) {
	req, err := payments.ParseReturn(p, r.URL.Query())
	if err != nil {
		// nothing to attribute the failure to, even if one half is present
		app.logger.Warnw("return without correlation", "provider", p, "query", r.URL.RawQuery)
		app.redirect(w, r, app.urls.GenericFailure(payments.ErrCodeMissingParams))
		return
	}

	app.audit(req.OrderNumber, p, paymentsrepo.LogRedirect, r.URL.Query())

	res := app.capture(r.Context(), p, req)
	if res.paid {
		app.redirect(w, r, app.urls.Success(req.OrderNumber))
		return
	}
	app.redirect(w, r, app.urls.OrderFailure(req.OrderNumber, res.code))
}

// POST /v1/payments/mobile-money/webhook
func (app *application) mobileMoneyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if app.webhooks == nil {
		app.paymentErrorResponse(w, r, &payments.Error{
			Kind:     payments.KindConfig,
			Provider: payments.ProviderMobileMoney,
			Err:      payments.ErrGatewayNotRegistered,
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.webhooks.VerifyWebhookSignature(body, r.Header.Get(paystackSignatureHeader)) {
		app.logger.Warnw("webhook signature mismatch", "provider", payments.ProviderMobileMoney, "remote", r.RemoteAddr)
		writeJSONError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	ev, err := payments.ParsePaystackWebhook(body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// acknowledge everything we do not act on so the provider stops retrying
	if ev.Event != "charge.success" || ev.OrderNumber == "" || ev.Reference == "" {
		app.logger.Infow("webhook ignored", "event", ev.Event, "order", ev.OrderNumber, "ref", ev.Reference)
		w.WriteHeader(http.StatusOK)
		return
	}

	app.audit(ev.OrderNumber, payments.ProviderMobileMoney, paymentsrepo.LogWebhook, json.RawMessage(body))

	// the signed event is only a hint; the verify call is authoritative
	res := app.capture(r.Context(), payments.ProviderMobileMoney, payments.VerifyRequest{
		OrderNumber: ev.OrderNumber,
		Token:       ev.Reference,
	})
	if res.retryable {
		writeJSONError(w, http.StatusBadGateway, "temporary failure, retry later")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (app *application) captureTimeout() time.Duration {
	t := app.config.providers.timeout
	if t <= 0 {
		t = 10 * time.Second
	}
	// room for the verify retries plus the order writes
	return 3*t + 5*time.Second
}

// capture verifies the provider session and reconciles the order. Once the
// provider has been asked, the work continues even if the client goes away.
func (app *application) capture(parent context.Context, p payments.Provider, req payments.VerifyRequest) captureResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), app.captureTimeout())
	defer cancel()

	started := time.Now()
	sess, err := app.payments.VerifySession(ctx, p, req)
	if err != nil {
		kind := payments.KindOf(err)
		monitoring.ObserveVerify(string(p), kind.String(), started)
		app.logger.Errorw("payment verify failed", "provider", p, "order", req.OrderNumber, "kind", kind, "err", err)
		app.audit(req.OrderNumber, p, paymentsrepo.LogError, map[string]string{
			"stage": "verify",
			"kind":  kind.String(),
			"error": err.Error(),
		})
		code := payments.ErrCodeVerifyFailed
		if kind == payments.KindConfig {
			code = payments.ErrCodeConfig
		}
		return captureResult{code: code, retryable: kind == payments.KindTransient}
	}
	monitoring.ObserveVerify(string(p), string(sess.Status), started)
	app.audit(req.OrderNumber, p, paymentsrepo.LogVerified, sess)

	out, err := app.reconciler.Reconcile(ctx, req.OrderNumber, sess)
	if err != nil {
		app.logger.Errorw("reconcile failed", "provider", p, "order", req.OrderNumber, "ref", sess.ProviderReference, "err", err)
		if errors.Is(err, reconcile.ErrOrderNotFound) {
			return captureResult{code: payments.ErrCodeOrderNotFound}
		}
		return captureResult{code: payments.ErrCodeUpdateFailed, retryable: errors.Is(err, reconcile.ErrStoreWrite)}
	}

	if out.Success() {
		return captureResult{paid: true}
	}

	code := out.ErrorCode()
	if p == payments.ProviderCard && out.Status == reconcile.StatusPending {
		code = payments.ErrCodeNotPaid
	}
	app.logger.Infow("payment not completed", "provider", p, "order", req.OrderNumber, "status", out.Status, "state", sess.ProviderState)
	return captureResult{code: code}
}
