package main

import (
	"context"
	"net/http"
	"time"

	"storepay/internal/domain/paymentsrepo"
	"storepay/internal/payments"
	"storepay/internal/reconcile"
)

const auditTimeout = 5 * time.Second

// redirect sends the browser to an outcome page. Return handlers never
// write a body.
func (app *application) redirect(w http.ResponseWriter, _ *http.Request, target string) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusSeeOther)
}

// audit appends a payment_logs row off the request path.
func (app *application) audit(orderNumber string, p payments.Provider, logType paymentsrepo.LogType, payload any) {
	if app.paymentLogs == nil || app.dispatcher == nil {
		return
	}
	app.dispatcher.Enqueue(reconcile.Task{
		Name:  "payment_log",
		Order: orderNumber,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, auditTimeout)
			defer cancel()
			return app.paymentLogs.InsertPaymentLog(ctx, orderNumber, string(p), logType, payload)
		},
	})
}
