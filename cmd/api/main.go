package main

import (
	"context"
	"fmt"
	"os"

	"storepay/internal/db"
	"storepay/internal/domain/storage"
	"storepay/internal/mailer"
	"storepay/internal/notifications"
	"storepay/internal/payments"
	"storepay/internal/ratelimiter"
	"storepay/internal/reconcile"

	"github.com/9ssi7/exponent"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

// buildPaymentManager registers every configured gateway. Constructors
// validate credentials, so a half-configured provider stops startup.
func buildPaymentManager(cfg providersConfig, urls payments.ReturnURLs) (*payments.PaymentManager, *payments.PaystackAdapter, error) {
	m := payments.NewPaymentManager()

	if cfg.stripe != nil {
		a, err := payments.NewStripeAdapter(*cfg.stripe, urls)
		if err != nil {
			return nil, nil, err
		}
		m.RegisterGateway(payments.ProviderCard, a)
	}
	if cfg.paypal != nil {
		a, err := payments.NewPayPalAdapter(*cfg.paypal, urls)
		if err != nil {
			return nil, nil, err
		}
		m.RegisterGateway(payments.ProviderWallet, a)
	}

	var paystack *payments.PaystackAdapter
	if cfg.paystack != nil {
		a, err := payments.NewPaystackAdapter(*cfg.paystack, urls)
		if err != nil {
			return nil, nil, err
		}
		m.RegisterGateway(payments.ProviderMobileMoney, a)
		paystack = a
	}
	return m, paystack, nil
}

func main() {
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Infow("no .env file loaded, using process environment", "err", err)
	}

	cfg, err := loadConfig(osLookup)
	if err != nil {
		logger.Fatalw("invalid configuration", "err", err)
	}

	urls := payments.NewReturnURLs(cfg.appURL)

	paymentManager, paystack, err := buildPaymentManager(cfg.providers, urls)
	if err != nil {
		logger.Fatal(err)
	}

	// Database
	pool, err := db.New(cfg.db.addr, int32(cfg.db.maxOpenConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if cfg.db.autoMigrate {
		if err := db.Migrate(context.Background(), pool); err != nil {
			logger.Fatal(err)
		}
		logger.Info("database schema applied")
	}

	store := storage.NewContainer(pool)

	var mail mailer.Client
	if cfg.mail.enabled {
		smtp, err := mailer.NewSMTPClient(cfg.mail.smtp)
		if err != nil {
			logger.Fatal(err)
		}
		mail = smtp
	} else {
		logger.Warn("SMTP_HOST not set, confirmation emails are disabled")
	}

	var push notifications.PushSender
	if cfg.push.enabled {
		push = notifications.NewExpoAdapter(exponent.NewClient())
	} else {
		logger.Warn("EXPO_PUSH_ENABLED is false, merchant pushes are disabled")
	}
	merchantTokens := notifications.Tokens{
		notifications.StaticTokens(cfg.push.merchantTokens),
		store.PushTokens,
	}

	confirmer := notifications.NewConfirmer(mail, push, merchantTokens, urls, cfg.siteName, cfg.currency)

	dispatcher := reconcile.NewDispatcher(logger, cfg.sideEffects.workers, cfg.sideEffects.queueSize, cfg.sideEffects.timeout)
	reconciler := reconcile.NewService(store, store.CustomerStats, confirmer, dispatcher, logger)

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)
	defer rateLimiter.Close()

	app := &application{
		config:      cfg,
		logger:      logger,
		payments:    paymentManager,
		orders:      store,
		reconciler:  reconciler,
		paymentLogs: store.PaymentLogs,
		pushTokens:  store.PushTokens,
		rateLimiter: rateLimiter,
		urls:        urls,
		dispatcher:  dispatcher,
	}
	if paystack != nil {
		app.webhooks = paystack
	}

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Fatal(err)
	}
}
