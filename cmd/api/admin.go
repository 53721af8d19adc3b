package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storepay/internal/domain/orders"
	"storepay/internal/domain/paymentsrepo"
	"storepay/internal/params"

	"github.com/go-chi/chi/v5"
)

var logTypes = map[paymentsrepo.LogType]bool{
	paymentsrepo.LogSessionCreated: true,
	paymentsrepo.LogRedirect:       true,
	paymentsrepo.LogWebhook:        true,
	paymentsrepo.LogVerified:       true,
	paymentsrepo.LogPaid:           true,
	paymentsrepo.LogError:          true,
}

// GET /v1/orders/{orderNumber}/payment-logs?type=&page=&limit=
func (app *application) listPaymentLogsHandler(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if !orderNumberRe.MatchString(orderNumber) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid order number %q", orderNumber))
		return
	}

	q := r.URL.Query()
	logType := paymentsrepo.LogType(strings.TrimSpace(q.Get("type")))
	if logType != "" && !logTypes[logType] {
		app.badRequestResponse(w, r, fmt.Errorf("unknown log type %q", logType))
		return
	}

	order, err := app.orders.GetByNumber(r.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	pg := params.ParsePagination(q)

	logs, total, err := app.paymentLogs.List(r.Context(), orderNumber, logType, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"order":      order,
		"logs":       logs,
		"pagination": pg,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type savePushTokenPayload struct {
	Token      string          `json:"token" validate:"required,expotoken"`
	DeviceInfo json.RawMessage `json:"device_info"`
}

type removePushTokenPayload struct {
	Token string `json:"token" validate:"required"`
}

// {"older_than": "2160h"} drops devices silent for 90 days.
type pruneStaleTokensPayload struct {
	OlderThan string `json:"older_than" validate:"required"`
}

// PUT /v1/merchant/push-tokens
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload savePushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.pushTokens.AddOrUpdateMerchantToken(r.Context(), payload.Token, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/merchant/push-tokens
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload removePushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	removed, err := app.pushTokens.RemoveMerchantToken(r.Context(), payload.Token)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !removed {
		app.notFoundResponse(w, r, errors.New("push token not registered"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/merchant/push-tokens/prune
func (app *application) pruneStaleTokensHandler(w http.ResponseWriter, r *http.Request) {
	var payload pruneStaleTokensPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dur, err := time.ParseDuration(payload.OlderThan)
	if err != nil || dur <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid older_than %q", payload.OlderThan))
		return
	}

	n, err := app.pushTokens.PruneStaleTokens(r.Context(), dur)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.logger.Infow("pruned merchant push tokens", "count", n, "older_than", dur)

	if err := app.jsonResponse(w, http.StatusOK, map[string]int64{"removed": n}); err != nil {
		app.internalServerError(w, r, err)
	}
}
