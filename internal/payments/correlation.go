package payments

import (
	"net/url"
	"strings"
)

// Outcome codes appended to failure pages as ?error=<code>.
const (
	ErrCodeMissingParams  = "missing_params"
	ErrCodeConfig         = "config"
	ErrCodeNotPaid        = "not_paid"
	ErrCodeNotCompleted   = "not_completed"
	ErrCodeOrderNotFound  = "order_not_found"
	ErrCodeUpdateFailed   = "update_failed"
	ErrCodeVerifyFailed   = "verify_failed"
	ErrCodeDeclined       = "declined"
	ErrCodeAmountMismatch = "amount_mismatch"
)

// stripeSessionPlaceholder is substituted by the card provider and must not be escaped.
const stripeSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// ReturnURLs builds every URL that leaves this service and comes back. The
// order number is embedded in each provider return URL so the round trip
// can be correlated without server-side session state.
type ReturnURLs struct {
	base string
}

func NewReturnURLs(baseURL string) ReturnURLs {
	return ReturnURLs{base: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (u ReturnURLs) Base() string { return u.base }

func (u ReturnURLs) build(path string, q url.Values) string {
	s := u.base + path
	if enc := q.Encode(); enc != "" {
		s += "?" + enc
	}
	return s
}

func (u ReturnURLs) CardSuccess(orderNumber string) string {
	return u.build("/v1/payments/card/return", url.Values{"order": {orderNumber}}) +
		"&session_id=" + stripeSessionPlaceholder
}

func (u ReturnURLs) WalletReturn(orderNumber string) string {
	return u.build("/v1/payments/wallet/return", url.Values{"order": {orderNumber}})
}

// MobileMoneyReturn is the callback URL; the provider appends reference and trxref.
func (u ReturnURLs) MobileMoneyReturn(orderNumber string) string {
	return u.build("/v1/payments/mobile-money/return", url.Values{"order": {orderNumber}})
}

func (u ReturnURLs) Cancel(orderNumber string) string {
	return u.build("/pay/"+url.PathEscape(orderNumber), url.Values{"canceled": {"1"}})
}

func (u ReturnURLs) Success(orderNumber string) string {
	return u.build("/order-success", url.Values{
		"order":           {orderNumber},
		"payment_success": {"true"},
	})
}

func (u ReturnURLs) OrderFailure(orderNumber, code string) string {
	return u.build("/pay/"+url.PathEscape(orderNumber), url.Values{"error": {code}})
}

// GenericFailure is used when no order can be attributed.
func (u ReturnURLs) GenericFailure(code string) string {
	return u.build("/", url.Values{"error": {code}})
}

// tokenParams lists, per provider, the query keys that may carry the
// provider correlation token, in preference order.
var tokenParams = map[Provider][]string{
	ProviderCard:        {"session_id"},
	ProviderWallet:      {"token"},
	ProviderMobileMoney: {"reference", "trxref"},
}

// ParseReturn extracts the correlation pair from a provider return query.
func ParseReturn(p Provider, q url.Values) (VerifyRequest, error) {
	req := VerifyRequest{OrderNumber: strings.TrimSpace(q.Get("order"))}
	for _, key := range tokenParams[p] {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			req.Token = v
			break
		}
	}
	if req.OrderNumber == "" || req.Token == "" {
		return req, &Error{Kind: KindValidation, Provider: p, Err: ErrMissingCorrelation}
	}
	return req, nil
}
