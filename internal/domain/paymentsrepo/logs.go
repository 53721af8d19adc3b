package paymentsrepo

import (
	"context"
	"time"
)

type LogType string

const (
	LogSessionCreated LogType = "session_created"
	LogRedirect       LogType = "redirect"
	LogWebhook        LogType = "webhook"
	LogVerified       LogType = "verified"
	LogPaid           LogType = "paid"
	LogError          LogType = "error"
)

// PaymentLog is an append-only audit row for provider traffic on an order.
type PaymentLog struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"order_number"`
	Provider    string    `json:"provider"`
	LogType     LogType   `json:"log_type"`
	Payload     any       `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var QueryTimeoutDuration = 5 * time.Second

type LogsStore interface {
	InsertPaymentLog(ctx context.Context, orderNumber, provider string, logType LogType, payload any) error
	List(ctx context.Context, orderNumber string, logType LogType, limit, offset int) ([]PaymentLog, int, error)
}
