package main

import (
	"net/http"

	"storepay/internal/payments"
)

var version = "0.3.0"

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	providers := make([]string, 0, 3)
	for _, p := range []payments.Provider{payments.ProviderCard, payments.ProviderWallet, payments.ProviderMobileMoney} {
		if app.payments.Registered(p) {
			providers = append(providers, string(p))
		}
	}

	data := map[string]any{
		"status":    "ok",
		"env":       app.config.env,
		"version":   version,
		"providers": providers,
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
