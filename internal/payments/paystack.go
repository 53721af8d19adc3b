package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	paystackDefaultBaseURL = "https://api.paystack.co"
	// ten pesewas
	paystackMinMinor = 10
)

type PaystackConfig struct {
	SecretKey     string
	BaseURL       string
	Currency      string
	FallbackEmail string
	Timeout       time.Duration
}

func (c PaystackConfig) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return &Error{Kind: KindConfig, Provider: ProviderMobileMoney, Err: fmt.Errorf("%w: PAYSTACK_SECRET_KEY", ErrMissingCredentials)}
	}
	return nil
}

// PaystackAdapter is the mobile-money gateway. Amounts travel in pesewas and
// every attempt gets its own reference so a failed attempt can be retried.
type PaystackAdapter struct {
	cfg        PaystackConfig
	urls       ReturnURLs
	httpClient *http.Client
	newRef     func(orderNumber string) string
}

func NewPaystackAdapter(cfg PaystackConfig, urls ReturnURLs) (*PaystackAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = paystackDefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Currency == "" {
		cfg.Currency = "GHS"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &PaystackAdapter{
		cfg:        cfg,
		urls:       urls,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		newRef:     newAttemptReference,
	}, nil
}

func newAttemptReference(orderNumber string) string {
	return fmt.Sprintf("%s-R%s", orderNumber, ulid.Make().String())
}

func (a *PaystackAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.cfg.SecretKey}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *PaystackAdapter) CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	minor, err := checkMinimum(ProviderMobileMoney, req.Amount, paystackMinMinor)
	if err != nil {
		return SessionResponse{}, err
	}

	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		email = a.cfg.FallbackEmail
	}
	if email == "" {
		return SessionResponse{}, newError(KindValidation, ProviderMobileMoney, "customer email is required")
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = a.cfg.Currency
	}

	reference := a.newRef(req.OrderNumber)
	payload := map[string]any{
		"email":        email,
		"amount":       minor,
		"currency":     currency,
		"reference":    reference,
		"callback_url": a.urls.MobileMoneyReturn(req.OrderNumber),
		"metadata": map[string]any{
			"order_number":  req.OrderNumber,
			"cancel_action": a.urls.Cancel(req.OrderNumber),
			"custom_fields": []map[string]string{
				{"display_name": "Order", "variable_name": "order_number", "value": req.OrderNumber},
			},
		},
	}

	status, raw, err := doJSON(ctx, a.httpClient, ProviderMobileMoney, http.MethodPost,
		a.cfg.BaseURL+"/transaction/initialize", a.authHeaders(), payload)
	if err != nil {
		return SessionResponse{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return SessionResponse{}, httpStatusError(ProviderMobileMoney, status, raw)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return SessionResponse{}, newError(KindTerminal, ProviderMobileMoney, "%w: %v", ErrProviderResponse, err)
	}
	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if env.Status {
		_ = json.Unmarshal(env.Data, &data)
	}
	if !env.Status || data.AuthorizationURL == "" {
		return SessionResponse{}, newError(KindTerminal, ProviderMobileMoney, "%w: initialize: %s", ErrProviderResponse, env.Message)
	}

	ref := data.Reference
	if ref == "" {
		ref = reference
	}
	return SessionResponse{RedirectURL: data.AuthorizationURL, ProviderReference: ref}, nil
}

type paystackTransaction struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
}

// orderNumber reads metadata.order_number; Paystack sends "" or null when
// no metadata was attached.
func (t paystackTransaction) orderNumber() string {
	var md struct {
		OrderNumber string `json:"order_number"`
	}
	if len(t.Metadata) == 0 || t.Metadata[0] != '{' {
		return ""
	}
	if err := json.Unmarshal(t.Metadata, &md); err != nil {
		return ""
	}
	return md.OrderNumber
}

func (a *PaystackAdapter) VerifySession(ctx context.Context, req VerifyRequest) (Session, error) {
	reference := strings.TrimSpace(req.Token)
	if reference == "" {
		return Session{}, &Error{Kind: KindValidation, Provider: ProviderMobileMoney, Err: ErrMissingCorrelation}
	}

	status, raw, err := doJSON(ctx, a.httpClient, ProviderMobileMoney, http.MethodGet,
		a.cfg.BaseURL+"/transaction/verify/"+url.PathEscape(reference), a.authHeaders(), nil)
	if err != nil {
		return Session{}, err
	}
	if status >= 500 || status == http.StatusTooManyRequests || status == http.StatusUnauthorized || status == http.StatusForbidden {
		return Session{}, httpStatusError(ProviderMobileMoney, status, raw)
	}

	// unknown references come back as 400/404 with status=false
	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Session{}, newError(KindTerminal, ProviderMobileMoney, "%w: http=%d: %v", ErrProviderResponse, status, err)
	}
	if !env.Status {
		return Session{}, newError(KindTerminal, ProviderMobileMoney, "%w: verify %s: %s", ErrProviderResponse, reference, env.Message)
	}

	var tx paystackTransaction
	if err := json.Unmarshal(env.Data, &tx); err != nil {
		return Session{}, newError(KindTerminal, ProviderMobileMoney, "%w: %v", ErrProviderResponse, err)
	}

	if got := tx.orderNumber(); got != "" && got != req.OrderNumber {
		return Session{}, newError(KindValidation, ProviderMobileMoney, "%w: reference %s is for order %s", ErrCorrelationMismatch, reference, got)
	}

	if tx.Reference == "" {
		tx.Reference = reference
	}
	return Session{
		Provider:          ProviderMobileMoney,
		ProviderReference: "paystack:" + tx.Reference,
		AmountMinorUnits:  tx.Amount,
		Currency:          strings.ToUpper(tx.Currency),
		Status:            mapPaystackStatus(tx.Status),
		ProviderState:     tx.Status,
	}, nil
}

func mapPaystackStatus(status string) SessionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return StatusCompleted
	case "failed", "reversed":
		return StatusFailed
	default:
		// abandoned only means the customer has not finished yet; the same
		// reference can still succeed. Also ongoing, pending, processing,
		// queued, send_otp and anything new.
		return StatusPending
	}
}

// VerifyWebhookSignature checks x-paystack-signature: hex HMAC-SHA512 of the
// raw body keyed with the secret key.
func (a *PaystackAdapter) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(a.cfg.SecretKey))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

type PaystackWebhookEvent struct {
	Event       string
	Reference   string
	OrderNumber string
}

func ParsePaystackWebhook(body []byte) (PaystackWebhookEvent, error) {
	var ev struct {
		Event string              `json:"event"`
		Data  paystackTransaction `json:"data"`
	}
	if err := json.Unmarshal(body, &ev); err != nil {
		return PaystackWebhookEvent{}, newError(KindValidation, ProviderMobileMoney, "%w: webhook: %v", ErrProviderResponse, err)
	}
	return PaystackWebhookEvent{
		Event:       ev.Event,
		Reference:   ev.Data.Reference,
		OrderNumber: ev.Data.orderNumber(),
	}, nil
}
