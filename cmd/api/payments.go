package main

import (
	"errors"
	"fmt"
	"net/http"

	"storepay/internal/domain/orders"
	"storepay/internal/domain/paymentsrepo"
	"storepay/internal/monitoring"
	"storepay/internal/payments"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createSessionPayload struct {
	OrderNumber   string          `json:"orderNumber" validate:"required,ordernumber"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerEmail string          `json:"customerEmail" validate:"omitempty,email,max=254"`
}

type createSessionResponse struct {
	Success           bool   `json:"success"`
	RedirectURL       string `json:"redirectUrl"`
	ProviderReference string `json:"providerReference"`
}

// POST /v1/payments/{provider}/session
func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	provider, err := payments.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload createSessionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	order, err := app.orders.GetByNumber(ctx, payload.OrderNumber)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	switch order.PaymentStatus {
	case orders.PaymentPaid:
		app.conflictResponse(w, r, fmt.Errorf("order %s is already paid", order.OrderNumber))
		return
	case orders.PaymentCanceled:
		app.conflictResponse(w, r, fmt.Errorf("order %s was canceled", order.OrderNumber))
		return
	}

	// the client echoes the total it showed; the stored total is what we charge
	if !payload.Amount.Equal(order.Total) {
		app.badRequestResponse(w, r, fmt.Errorf("amount %s does not match order total", payload.Amount.String()))
		return
	}

	if order.PaymentStatus == orders.PaymentFailed {
		if _, err := app.orders.Reopen(ctx, order.OrderNumber); err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	email := payload.CustomerEmail
	if email == "" {
		email = order.Email
	}

	resp, err := app.payments.CreateSession(ctx, provider, payments.SessionRequest{
		OrderNumber:   order.OrderNumber,
		Amount:        order.Total,
		CustomerEmail: email,
	})
	if err != nil {
		monitoring.TickSessionCreated(string(provider), payments.KindOf(err).String())
		app.audit(order.OrderNumber, provider, paymentsrepo.LogError, map[string]string{
			"stage": "create_session",
			"error": err.Error(),
		})
		app.paymentErrorResponse(w, r, err)
		return
	}

	monitoring.TickSessionCreated(string(provider), "ok")
	app.audit(order.OrderNumber, provider, paymentsrepo.LogSessionCreated, resp)
	app.logger.Infow("payment session created", "provider", provider, "order", order.OrderNumber, "ref", resp.ProviderReference)

	if err := writeJSON(w, http.StatusOK, createSessionResponse{
		Success:           true,
		RedirectURL:       resp.RedirectURL,
		ProviderReference: resp.ProviderReference,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
