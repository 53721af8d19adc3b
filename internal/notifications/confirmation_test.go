package notifications_test

import (
	"context"
	"errors"
	"testing"

	"storepay/internal/domain/orders"
	"storepay/internal/notifications"
	"storepay/internal/notifications/mocks"
	"storepay/internal/payments"

	"github.com/9ssi7/exponent"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type sentMail struct {
	template string
	email    string
	data     any
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, templateFile, email string, data any) error {
	f.sent = append(f.sent, sentMail{templateFile, email, data})
	return f.err
}

func paidOrder() orders.Order {
	return orders.Order{
		OrderNumber:   "ORD-1001",
		PaymentStatus: orders.PaymentPaid,
		Total:         decimal.RequireFromString("50"),
		Email:         "ama@example.com",
	}
}

func TestConfirmer_NotifyOrderPaid(t *testing.T) {
	ctrl := gomock.NewController(t)
	push := mocks.NewMockPushSender(ctrl)
	mail := &fakeMailer{}
	c := notifications.NewConfirmer(mail, push, notifications.StaticTokens{"ExponentPushToken[a]", "ExponentPushToken[b]"},
		payments.NewReturnURLs("https://shop.example.com"), "Storepay", "GHS")

	push.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
			require.Len(t, msgs, 2)
			assert.Equal(t, "Order ORD-1001 paid: 50.00 via mobile-money", msgs[0].Body)
			assert.Equal(t, "ORD-1001", msgs[0].Data["orderNumber"])
			return nil, nil
		})

	require.NoError(t, c.NotifyOrderPaid(context.Background(), paidOrder(), payments.ProviderMobileMoney))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ama@example.com", mail.sent[0].email)
	data := mail.sent[0].data.(map[string]string)
	assert.Equal(t, "50.00", data["Total"])
	assert.Equal(t, "https://shop.example.com/order-success?order=ORD-1001&payment_success=true", data["OrderURL"])
}

func TestConfirmer_CombinesFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	push := mocks.NewMockPushSender(ctrl)
	mail := &fakeMailer{err: errors.New("smtp: 421")}
	c := notifications.NewConfirmer(mail, push, notifications.StaticTokens{"ExponentPushToken[a]"},
		payments.NewReturnURLs("https://shop.example.com"), "Storepay", "GHS")

	push.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil, errors.New("expo: 503"))

	err := c.NotifyOrderPaid(context.Background(), paidOrder(), payments.ProviderCard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation email")
	assert.Contains(t, err.Error(), "merchant push")
}

func TestConfirmer_SkipsMissingChannels(t *testing.T) {
	mail := &fakeMailer{}
	c := notifications.NewConfirmer(mail, nil, nil, payments.NewReturnURLs("https://shop.example.com"), "Storepay", "GHS")

	o := paidOrder()
	o.Email = ""
	require.NoError(t, c.NotifyOrderPaid(context.Background(), o, payments.ProviderWallet))
	assert.Empty(t, mail.sent)
}

type failingTokens struct{}

func (failingTokens) ListMerchantTokens(context.Context) ([]string, error) {
	return nil, errors.New("db down")
}

func TestTokens_MergesAndDedupes(t *testing.T) {
	src := notifications.Tokens{
		notifications.StaticTokens{"ExponentPushToken[a]", "ExponentPushToken[b]"},
		nil,
		failingTokens{},
		notifications.StaticTokens{"ExponentPushToken[b]", "ExponentPushToken[c]"},
	}

	tokens, err := src.ListMerchantTokens(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, []string{"ExponentPushToken[a]", "ExponentPushToken[b]", "ExponentPushToken[c]"}, tokens)
}

func TestConfirmer_PushesDespiteTokenStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	push := mocks.NewMockPushSender(ctrl)
	tokens := notifications.Tokens{notifications.StaticTokens{"ExponentPushToken[a]"}, failingTokens{}}
	c := notifications.NewConfirmer(nil, push, tokens, payments.NewReturnURLs("https://shop.example.com"), "Storepay", "GHS")

	push.EXPECT().Publish(gomock.Any(), gomock.Len(1)).Return(nil, nil)

	err := c.NotifyOrderPaid(context.Background(), paidOrder(), payments.ProviderCard)
	assert.ErrorContains(t, err, "merchant tokens")
}
