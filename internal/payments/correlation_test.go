package payments

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnURLs(t *testing.T) {
	u := NewReturnURLs("https://shop.example.com/")

	assert.Equal(t, "https://shop.example.com", u.Base())
	assert.Equal(t,
		"https://shop.example.com/v1/payments/card/return?order=ORD-1001&session_id={CHECKOUT_SESSION_ID}",
		u.CardSuccess("ORD-1001"))
	assert.Equal(t, "https://shop.example.com/v1/payments/wallet/return?order=ORD-1001", u.WalletReturn("ORD-1001"))
	assert.Equal(t, "https://shop.example.com/v1/payments/mobile-money/return?order=ORD-1001", u.MobileMoneyReturn("ORD-1001"))
	assert.Equal(t, "https://shop.example.com/pay/ORD-1001?canceled=1", u.Cancel("ORD-1001"))
	assert.Equal(t, "https://shop.example.com/order-success?order=ORD-1001&payment_success=true", u.Success("ORD-1001"))
	assert.Equal(t, "https://shop.example.com/pay/ORD-1001?error=not_paid", u.OrderFailure("ORD-1001", ErrCodeNotPaid))
	assert.Equal(t, "https://shop.example.com/?error=missing_params", u.GenericFailure(ErrCodeMissingParams))
}

func TestParseReturn(t *testing.T) {
	t.Run("card", func(t *testing.T) {
		req, err := ParseReturn(ProviderCard, url.Values{"order": {"ORD-1001"}, "session_id": {"cs_test_1"}})
		require.NoError(t, err)
		assert.Equal(t, VerifyRequest{OrderNumber: "ORD-1001", Token: "cs_test_1"}, req)
	})

	t.Run("mobile money falls back to trxref", func(t *testing.T) {
		req, err := ParseReturn(ProviderMobileMoney, url.Values{"order": {"ORD-1001"}, "trxref": {"ORD-1001-R1"}})
		require.NoError(t, err)
		assert.Equal(t, "ORD-1001-R1", req.Token)
	})

	t.Run("mobile money prefers reference", func(t *testing.T) {
		req, err := ParseReturn(ProviderMobileMoney, url.Values{
			"order":     {"ORD-1001"},
			"reference": {"ref-a"},
			"trxref":    {"ref-b"},
		})
		require.NoError(t, err)
		assert.Equal(t, "ref-a", req.Token)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := ParseReturn(ProviderWallet, url.Values{"token": {"5O190127TN364715T"}})
		assert.ErrorIs(t, err, ErrMissingCorrelation)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := ParseReturn(ProviderWallet, url.Values{"order": {"ORD-1001"}, "session_id": {"cs_1"}})
		assert.ErrorIs(t, err, ErrMissingCorrelation)
	})
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Mobile-Money ")
	require.NoError(t, err)
	assert.Equal(t, ProviderMobileMoney, p)

	_, err = ParseProvider("crypto")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
