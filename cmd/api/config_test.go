package main

import (
	"testing"
	"time"

	"storepay/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(mapLookup(map[string]string{
		"APP_URL":             "https://shop.example.com",
		"DB_ADDR":             "postgres://localhost/storepay",
		"PAYSTACK_SECRET_KEY": "sk_test_1",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.addr)
	assert.Equal(t, 5, cfg.rateLimiter.RequestsPerTimeFrame)
	assert.Equal(t, 60*time.Second, cfg.rateLimiter.TimeFrame)
	assert.True(t, cfg.rateLimiter.Enabled)
	assert.Equal(t, 10*time.Second, cfg.providers.timeout)
	require.NotNil(t, cfg.providers.paystack)
	assert.Equal(t, "GHS", cfg.providers.paystack.Currency)
	assert.Nil(t, cfg.providers.stripe)
	assert.Nil(t, cfg.providers.paypal)
	assert.False(t, cfg.mail.enabled)
}

func TestLoadConfig_ReportsEveryProblem(t *testing.T) {
	_, err := loadConfig(mapLookup(map[string]string{
		"PAYPAL_CLIENT_ID":           "client",
		"RATELIMITER_REQUESTS_COUNT": "five",
		"SMTP_HOST":                  "smtp.example.com",
	}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "APP_URL is required")
	assert.Contains(t, msg, "DB_ADDR is required")
	assert.Contains(t, msg, "PAYPAL_CLIENT_SECRET")
	assert.Contains(t, msg, "RATELIMITER_REQUESTS_COUNT")
	assert.Contains(t, msg, "MAIL_FROM")
}

func TestLoadConfig_NeedsAProvider(t *testing.T) {
	_, err := loadConfig(mapLookup(map[string]string{
		"APP_URL": "https://shop.example.com",
		"DB_ADDR": "postgres://localhost/storepay",
	}))
	assert.ErrorContains(t, err, "no payment provider configured")
}

func TestBuildPaymentManager(t *testing.T) {
	cfg, err := loadConfig(mapLookup(map[string]string{
		"APP_URL":              "https://shop.example.com",
		"DB_ADDR":              "postgres://localhost/storepay",
		"STRIPE_SECRET_KEY":    "sk_test_1",
		"PAYPAL_CLIENT_ID":     "client",
		"PAYPAL_CLIENT_SECRET": "secret",
		"EXPO_MERCHANT_TOKENS": "ExponentPushToken[a], ExponentPushToken[b],",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}, cfg.push.merchantTokens)

	m, paystack, err := buildPaymentManager(cfg.providers, payments.NewReturnURLs(cfg.appURL))
	require.NoError(t, err)
	assert.Nil(t, paystack)
	assert.True(t, m.Registered("card"))
	assert.True(t, m.Registered("wallet"))
	assert.False(t, m.Registered("mobile-money"))
}
