package notifications

import (
	"context"
	"fmt"

	"github.com/9ssi7/exponent"
)

//go:generate mockgen -source=push.go -destination=mocks/push.go -package=mocks

// PushSender is the slice of the Expo client we publish through.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
}

type ExpoAdapter struct {
	client *exponent.Client
}

func NewExpoAdapter(c *exponent.Client) *ExpoAdapter {
	return &ExpoAdapter{client: c}
}

func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.Publish(ctx, msgs)
}

// SendOrderPaidPush tells every merchant device that an order was paid.
func SendOrderPaidPush(ctx context.Context, push PushSender, tokens []string, orderNumber, amount, provider string) error {
	if len(tokens) == 0 {
		return nil
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: "New paid order",
			Body:  fmt.Sprintf("Order %s paid: %s via %s", orderNumber, amount, provider),
			// the app routes on screen when the notification is tapped
			Data: map[string]string{
				"type":        "order_paid",
				"orderNumber": orderNumber,
				"screen":      "merchant-orders-screen",
			},
		})
	}

	_, err := push.Publish(ctx, msgs)
	return err
}
