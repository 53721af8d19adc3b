package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"storepay/internal/mailer"
	"storepay/internal/payments"
	"storepay/internal/ratelimiter"

	"go.uber.org/multierr"
)

type config struct {
	addr        string
	env         string
	appURL      string
	siteName    string
	currency    string
	db          dbConfig
	auth        authConfig
	rateLimiter ratelimiter.Config
	providers   providersConfig
	mail        mailConfig
	push        pushConfig
	sideEffects sideEffectsConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  string
	autoMigrate  bool
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

// providersConfig holds one block per gateway; a nil block means the
// gateway is not configured at all.
type providersConfig struct {
	timeout  time.Duration
	stripe   *payments.StripeConfig
	paypal   *payments.PayPalConfig
	paystack *payments.PaystackConfig
}

type mailConfig struct {
	enabled bool
	smtp    mailer.SMTPConfig
}

type pushConfig struct {
	enabled        bool
	merchantTokens []string
}

type sideEffectsConfig struct {
	workers   int
	queueSize int
	timeout   time.Duration
}

// envReader collects parse errors so a bad deployment reports them all at once.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) getString(key, fallback string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (e *envReader) getInt(key string, fallback int) int {
	v := e.getString(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (e *envReader) getBool(key string, fallback bool) bool {
	v := e.getString(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (e *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	v := e.getString(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = multierr.Append(e.err, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (e *envReader) getList(key string) []string {
	var out []string
	for _, part := range strings.Split(e.getString(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig(e *envReader) ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: e.getInt("RATELIMITER_REQUESTS_COUNT", 5),
		TimeFrame:            e.getDuration("RATELIMITER_WINDOW", 60*time.Second),
		Enabled:              e.getBool("RATE_LIMITER_ENABLED", true),
	}
}

func loadConfig(lookup func(string) (string, bool)) (config, error) {
	e := &envReader{lookup: lookup}

	cfg := config{
		addr:     e.getString("ADDR", ":8080"),
		env:      e.getString("ENV", "development"),
		appURL:   e.getString("APP_URL", ""),
		siteName: e.getString("SITE_NAME", "Storepay"),
		currency: strings.ToUpper(e.getString("STORE_CURRENCY", "GHS")),
		db: dbConfig{
			addr:         e.getString("DB_ADDR", ""),
			maxOpenConns: e.getInt("DB_MAX_OPEN_CONNS", 30),
			maxIdleTime:  e.getString("DB_MAX_IDLE_TIME", "15m"),
			autoMigrate:  e.getBool("DB_AUTO_MIGRATE", false),
		},
		auth: authConfig{
			basic: basicConfig{
				user: e.getString("AUTH_BASIC_USER", ""),
				pass: e.getString("AUTH_BASIC_PASS", ""),
			},
		},
		rateLimiter: LoadRateLimiterConfig(e),
		providers: providersConfig{
			timeout: e.getDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		push: pushConfig{
			enabled:        e.getBool("EXPO_PUSH_ENABLED", true),
			merchantTokens: e.getList("EXPO_MERCHANT_TOKENS"),
		},
		sideEffects: sideEffectsConfig{
			workers:   e.getInt("SIDE_EFFECT_WORKERS", 4),
			queueSize: e.getInt("SIDE_EFFECT_QUEUE", 256),
			timeout:   e.getDuration("SIDE_EFFECT_TIMEOUT", 30*time.Second),
		},
	}

	if key := e.getString("STRIPE_SECRET_KEY", ""); key != "" {
		cfg.providers.stripe = &payments.StripeConfig{
			SecretKey: key,
			Currency:  e.getString("STRIPE_CURRENCY", "ghs"),
			Timeout:   cfg.providers.timeout,
		}
	}
	if id, secret := e.getString("PAYPAL_CLIENT_ID", ""), e.getString("PAYPAL_CLIENT_SECRET", ""); id != "" || secret != "" {
		cfg.providers.paypal = &payments.PayPalConfig{
			ClientID:     id,
			ClientSecret: secret,
			BaseURL:      e.getString("PAYPAL_API_BASE_URL", ""),
			Currency:     e.getString("PAYPAL_CURRENCY", "USD"),
			MerchantID:   e.getString("PAYPAL_MERCHANT_ID", ""),
			BrandName:    cfg.siteName,
			Timeout:      cfg.providers.timeout,
		}
	}
	if key := e.getString("PAYSTACK_SECRET_KEY", ""); key != "" {
		cfg.providers.paystack = &payments.PaystackConfig{
			SecretKey:     key,
			BaseURL:       e.getString("PAYSTACK_API_BASE_URL", ""),
			Currency:      e.getString("PAYSTACK_CURRENCY", "GHS"),
			FallbackEmail: e.getString("PAYSTACK_FALLBACK_EMAIL", ""),
			Timeout:       cfg.providers.timeout,
		}
	}

	if host := e.getString("SMTP_HOST", ""); host != "" {
		cfg.mail = mailConfig{
			enabled: true,
			smtp: mailer.SMTPConfig{
				Host:     host,
				Port:     e.getInt("SMTP_PORT", 587),
				Username: e.getString("SMTP_USERNAME", ""),
				Password: e.getString("SMTP_PASSWORD", ""),
				From:     e.getString("MAIL_FROM", ""),
			},
		}
	}

	err := multierr.Append(e.err, cfg.validate())
	return cfg, err
}

func (cfg config) validate() error {
	var err error
	if cfg.appURL == "" {
		err = multierr.Append(err, errors.New("APP_URL is required"))
	}
	if cfg.db.addr == "" {
		err = multierr.Append(err, errors.New("DB_ADDR is required"))
	}
	if cfg.rateLimiter.Enabled && (cfg.rateLimiter.RequestsPerTimeFrame < 1 || cfg.rateLimiter.TimeFrame <= 0) {
		err = multierr.Append(err, errors.New("rate limiter needs a positive request count and window"))
	}

	if cfg.providers.stripe == nil && cfg.providers.paypal == nil && cfg.providers.paystack == nil {
		err = multierr.Append(err, errors.New("no payment provider configured"))
	}
	if cfg.providers.stripe != nil {
		err = multierr.Append(err, cfg.providers.stripe.Validate())
	}
	if cfg.providers.paypal != nil {
		err = multierr.Append(err, cfg.providers.paypal.Validate())
	}
	if cfg.providers.paystack != nil {
		err = multierr.Append(err, cfg.providers.paystack.Validate())
	}

	if cfg.mail.enabled && cfg.mail.smtp.From == "" {
		err = multierr.Append(err, errors.New("MAIL_FROM is required when SMTP_HOST is set"))
	}
	return err
}

// osLookup is os.LookupEnv; tests pass a map instead.
var osLookup = os.LookupEnv
