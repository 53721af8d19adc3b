package main

import (
	"net/http"
	"strconv"

	"storepay/internal/payments"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter int) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+strconv.Itoa(retryAfter)+"s")
}

// paymentErrorResponse maps a gateway error to a status by its Kind.
func (app *application) paymentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch payments.KindOf(err) {
	case payments.KindValidation:
		app.badRequestResponse(w, r, err)
	case payments.KindConfig:
		app.logger.Errorw("payment provider misconfigured", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "payment provider is not configured")
	case payments.KindTransient:
		app.logger.Warnw("payment provider unavailable", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadGateway, "payment provider is unavailable, please retry")
	case payments.KindTerminal:
		app.logger.Errorw("payment provider rejected request", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadGateway, "payment provider rejected the request")
	default:
		app.internalServerError(w, r, err)
	}
}
