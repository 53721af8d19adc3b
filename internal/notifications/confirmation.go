package notifications

import (
	"context"
	"fmt"

	"storepay/internal/domain/orders"
	"storepay/internal/mailer"
	"storepay/internal/payments"

	"go.uber.org/multierr"
)

// Confirmer sends the customer receipt and the merchant push once an order
// is paid. Either channel may be disabled by leaving it nil.
type Confirmer struct {
	mailer         mailer.Client
	push           PushSender
	merchantTokens TokenSource
	urls           payments.ReturnURLs
	siteName       string
	currency       string
}

func NewConfirmer(m mailer.Client, push PushSender, merchantTokens TokenSource, urls payments.ReturnURLs, siteName, currency string) *Confirmer {
	return &Confirmer{
		mailer:         m,
		push:           push,
		merchantTokens: merchantTokens,
		urls:           urls,
		siteName:       siteName,
		currency:       currency,
	}
}

func (c *Confirmer) NotifyOrderPaid(ctx context.Context, order orders.Order, provider payments.Provider) error {
	total := payments.ToDecimalString(order.Total)
	var err error

	if c.mailer != nil && order.Email != "" {
		data := map[string]string{
			"OrderNumber": order.OrderNumber,
			"Total":       total,
			"Currency":    c.currency,
			"OrderURL":    c.urls.Success(order.OrderNumber),
			"SiteName":    c.siteName,
		}
		if sendErr := c.mailer.Send(ctx, mailer.OrderConfirmationTemplate, order.Email, data); sendErr != nil {
			err = multierr.Append(err, fmt.Errorf("confirmation email: %w", sendErr))
		}
	}

	if c.push != nil && c.merchantTokens != nil {
		tokens, listErr := c.merchantTokens.ListMerchantTokens(ctx)
		if listErr != nil {
			err = multierr.Append(err, fmt.Errorf("merchant tokens: %w", listErr))
		}
		if pushErr := SendOrderPaidPush(ctx, c.push, tokens, order.OrderNumber, total, string(provider)); pushErr != nil {
			err = multierr.Append(err, fmt.Errorf("merchant push: %w", pushErr))
		}
	}
	return err
}
