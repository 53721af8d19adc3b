package payments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Provider string

const (
	ProviderCard        Provider = "card"
	ProviderWallet      Provider = "wallet"
	ProviderMobileMoney Provider = "mobile-money"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderCard, ProviderWallet, ProviderMobileMoney:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// SessionStatus is the normalized result of a verify call.
type SessionStatus string

const (
	StatusCompleted SessionStatus = "completed"
	StatusPending   SessionStatus = "pending"
	StatusFailed    SessionStatus = "failed"
)

type SessionRequest struct {
	OrderNumber   string
	Amount        decimal.Decimal
	Currency      string // empty means the adapter's configured currency
	CustomerEmail string
}

type SessionResponse struct {
	RedirectURL       string `json:"redirectUrl"`
	ProviderReference string `json:"providerReference"`
}

// VerifyRequest carries the correlation pair from the return redirect.
type VerifyRequest struct {
	OrderNumber string
	Token       string // session id, capture token or transaction reference
}

// Session is the adapter's normalized view of a provider session. It is
// never persisted.
type Session struct {
	Provider          Provider
	ProviderReference string
	AmountMinorUnits  int64 // 0 when the provider did not report it
	Currency          string
	Status            SessionStatus
	ProviderState     string // raw provider status, for logs and audit
}

func (s Session) Completed() bool { return s.Status == StatusCompleted }
