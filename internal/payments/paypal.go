package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"
	paypalMinMinor   = 1
	// refresh a little before PayPal expires the token
	paypalTokenSkew = time.Minute
)

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Currency     string
	MerchantID   string // optional payee when collecting for a partner account
	BrandName    string
	Timeout      time.Duration
}

func (c PayPalConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "PAYPAL_CLIENT_ID")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "PAYPAL_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return &Error{Kind: KindConfig, Provider: ProviderWallet, Err: fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))}
	}
	return nil
}

// PayPalAdapter is the wallet-redirect gateway built on the Orders v2 API.
// The order is created at session time and captured on return.
type PayPalAdapter struct {
	cfg        PayPalConfig
	urls       ReturnURLs
	httpClient *http.Client

	tokenGroup singleflight.Group
	mu         sync.Mutex
	token      string
	tokenExp   time.Time
	now        func() time.Time
}

func NewPayPalAdapter(cfg PayPalConfig, urls ReturnURLs) (*PayPalAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = paypalSandboxURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &PayPalAdapter{
		cfg:        cfg,
		urls:       urls,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}, nil
}

// accessToken returns a cached OAuth token, fetching a new one when it is
// about to expire. Concurrent callers share a single fetch.
func (a *PayPalAdapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.token != "" && a.now().Before(a.tokenExp) {
		tok := a.token
		a.mu.Unlock()
		return tok, nil
	}
	a.mu.Unlock()

	v, err, _ := a.tokenGroup.Do("token", func() (any, error) {
		return a.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *PayPalAdapter) invalidateToken() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

func (a *PayPalAdapter) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", newError(KindConfig, ProviderWallet, "build token request: %w", err)
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", newError(KindTransient, ProviderWallet, "%w: token: %v", ErrProviderRequest, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if resp.StatusCode != http.StatusOK {
		return "", httpStatusError(ProviderWallet, resp.StatusCode, raw)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.AccessToken == "" {
		return "", newError(KindTerminal, ProviderWallet, "%w: token response", ErrProviderResponse)
	}

	exp := a.now().Add(time.Duration(body.ExpiresIn)*time.Second - paypalTokenSkew)
	a.mu.Lock()
	a.token = body.AccessToken
	a.tokenExp = exp
	a.mu.Unlock()
	return body.AccessToken, nil
}

func (a *PayPalAdapter) call(ctx context.Context, method, path, requestID string, body any) (int, []byte, error) {
	tok, err := a.accessToken(ctx)
	if err != nil {
		return 0, nil, err
	}
	headers := map[string]string{"Authorization": "Bearer " + tok}
	if requestID != "" {
		headers["PayPal-Request-Id"] = requestID
	}
	status, raw, err := doJSON(ctx, a.httpClient, ProviderWallet, method, a.cfg.BaseURL+path, headers, body)
	if err != nil {
		return status, raw, err
	}
	if status == http.StatusUnauthorized {
		// expired or revoked token; the next attempt fetches a fresh one
		a.invalidateToken()
		return status, raw, newError(KindTransient, ProviderWallet, "%w: access token rejected", ErrProviderRequest)
	}
	return status, raw, nil
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalCapture struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Amount paypalAmount `json:"amount"`
}

type paypalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		ReferenceID string        `json:"reference_id"`
		CustomID    string        `json:"custom_id"`
		Amount      *paypalAmount `json:"amount"`
		Payments    struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
	Links []paypalLink `json:"links"`
}

type paypalErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue string `json:"issue"`
	} `json:"details"`
}

func (b paypalErrorBody) hasIssue(issue string) bool {
	for _, d := range b.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

func (a *PayPalAdapter) CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	if _, err := checkMinimum(ProviderWallet, req.Amount, paypalMinMinor); err != nil {
		return SessionResponse{}, err
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = a.cfg.Currency
	}

	appCtx := map[string]any{
		"return_url":          a.urls.WalletReturn(req.OrderNumber),
		"cancel_url":          a.urls.Cancel(req.OrderNumber),
		"user_action":         "PAY_NOW",
		"shipping_preference": "NO_SHIPPING",
	}
	if a.cfg.BrandName != "" {
		appCtx["brand_name"] = a.cfg.BrandName
	}
	unit := map[string]any{
		"reference_id": req.OrderNumber,
		"custom_id":    req.OrderNumber,
		"description":  "Order " + req.OrderNumber,
		"amount": paypalAmount{
			CurrencyCode: currency,
			Value:        ToDecimalString(req.Amount),
		},
	}
	if a.cfg.MerchantID != "" {
		unit["payee"] = map[string]string{"merchant_id": a.cfg.MerchantID}
	}
	payload := map[string]any{
		"intent":              "CAPTURE",
		"purchase_units":      []map[string]any{unit},
		"application_context": appCtx,
	}

	status, raw, err := a.call(ctx, http.MethodPost, "/v2/checkout/orders", uuid.NewString(), payload)
	if err != nil {
		return SessionResponse{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return SessionResponse{}, httpStatusError(ProviderWallet, status, raw)
	}

	var order paypalOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return SessionResponse{}, newError(KindTerminal, ProviderWallet, "%w: %v", ErrProviderResponse, err)
	}
	for _, l := range order.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return SessionResponse{RedirectURL: l.Href, ProviderReference: order.ID}, nil
		}
	}
	return SessionResponse{}, newError(KindTerminal, ProviderWallet, "%w: order %s has no approval link", ErrProviderResponse, order.ID)
}

// VerifySession captures the approved order. A repeated capture of the same
// token reads the order back instead of failing.
func (a *PayPalAdapter) VerifySession(ctx context.Context, req VerifyRequest) (Session, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return Session{}, &Error{Kind: KindValidation, Provider: ProviderWallet, Err: ErrMissingCorrelation}
	}
	path := "/v2/checkout/orders/" + url.PathEscape(token)

	// same id for every retry of this capture so PayPal deduplicates it
	requestID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("capture:"+token)).String()
	status, raw, err := a.call(ctx, http.MethodPost, path+"/capture", requestID, map[string]any{})
	if err != nil {
		return Session{}, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
	case status == http.StatusUnprocessableEntity:
		var eb paypalErrorBody
		_ = json.Unmarshal(raw, &eb)
		switch {
		case eb.hasIssue("ORDER_ALREADY_CAPTURED"):
			status, raw, err = a.call(ctx, http.MethodGet, path, "", nil)
			if err != nil {
				return Session{}, err
			}
			if status != http.StatusOK {
				return Session{}, httpStatusError(ProviderWallet, status, raw)
			}
		case eb.hasIssue("ORDER_NOT_APPROVED"), eb.hasIssue("PAYER_ACTION_REQUIRED"):
			return Session{
				Provider:          ProviderWallet,
				ProviderReference: "paypal:" + token,
				Status:            StatusPending,
				ProviderState:     "NOT_APPROVED",
			}, nil
		default:
			return Session{
				Provider:          ProviderWallet,
				ProviderReference: "paypal:" + token,
				Status:            StatusFailed,
				ProviderState:     firstIssue(eb),
			}, nil
		}
	case status == http.StatusNotFound:
		return Session{}, newError(KindTerminal, ProviderWallet, "%w: order %s not found", ErrProviderResponse, token)
	default:
		return Session{}, httpStatusError(ProviderWallet, status, raw)
	}

	var order paypalOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return Session{}, newError(KindTerminal, ProviderWallet, "%w: %v", ErrProviderResponse, err)
	}
	return a.normalize(order, req)
}

func firstIssue(eb paypalErrorBody) string {
	if len(eb.Details) > 0 {
		return eb.Details[0].Issue
	}
	if eb.Name != "" {
		return eb.Name
	}
	return "UNPROCESSABLE_ENTITY"
}

func (a *PayPalAdapter) normalize(order paypalOrder, req VerifyRequest) (Session, error) {
	sess := Session{
		Provider:          ProviderWallet,
		ProviderReference: "paypal:" + order.ID,
		Status:            mapPayPalStatus(order.Status),
		ProviderState:     order.Status,
	}
	if len(order.PurchaseUnits) == 0 {
		return sess, nil
	}

	pu := order.PurchaseUnits[0]
	owner := pu.CustomID
	if owner == "" {
		owner = pu.ReferenceID
	}
	if owner != "" && owner != "default" && owner != req.OrderNumber {
		return Session{}, newError(KindValidation, ProviderWallet, "%w: paypal order %s is for order %s", ErrCorrelationMismatch, order.ID, owner)
	}

	amount := pu.Amount
	if caps := pu.Payments.Captures; len(caps) > 0 {
		c := caps[0]
		sess.Status = mapPayPalStatus(c.Status)
		sess.ProviderState = order.Status + "/" + c.Status
		if c.ID != "" {
			sess.ProviderReference = "paypal:" + c.ID
		}
		if c.Amount.Value != "" {
			amount = &c.Amount
		}
	}
	if amount != nil {
		if d, err := decimal.NewFromString(amount.Value); err == nil {
			sess.AmountMinorUnits = ToMinorUnits(d)
		}
		sess.Currency = strings.ToUpper(amount.CurrencyCode)
	}
	return sess, nil
}

func mapPayPalStatus(status string) SessionStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return StatusCompleted
	case "DECLINED", "DENIED", "FAILED", "VOIDED":
		return StatusFailed
	default:
		// CREATED, SAVED, APPROVED, PENDING, PAYER_ACTION_REQUIRED
		return StatusPending
	}
}
