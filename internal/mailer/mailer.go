package mailer

import (
	"context"
	"embed"
)

const (
	FromName                  = "Storepay"
	maxRetires                = 3
	OrderConfirmationTemplate = "order_confirmation.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(ctx context.Context, templateFile, email string, data any) error
}
