package payments

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider      = errors.New("unknown payment provider")
	ErrGatewayNotRegistered = errors.New("payment gateway not configured")
	ErrMissingCredentials   = errors.New("missing provider credentials")
	ErrAmountTooSmall       = errors.New("amount below provider minimum")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingCorrelation   = errors.New("missing order number or provider token")
	ErrCorrelationMismatch  = errors.New("provider session does not belong to order")
	ErrProviderRequest      = errors.New("provider request failed")
	ErrProviderResponse     = errors.New("invalid provider response")
)

type Kind int

const (
	// KindConfig: credentials or keys missing, never sent to the provider.
	KindConfig Kind = iota + 1
	// KindValidation: bad input, no provider call made.
	KindValidation
	// KindTransient: network or provider 5xx; safe to retry, order untouched.
	KindTransient
	// KindTerminal: provider answered definitively and the answer is unusable.
	KindTerminal
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind     Kind
	Provider Provider
	Err      error
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, p Provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: p, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the Kind of err, or 0 when err is not a payments error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func IsTransient(err error) bool { return KindOf(err) == KindTransient }
