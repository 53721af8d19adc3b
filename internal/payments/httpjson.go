package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxProviderBody = 1 << 20

// doJSON sends body (if any) as JSON and returns the status and raw response.
// Transport failures come back as KindTransient.
func doJSON(ctx context.Context, client *http.Client, p Provider, method, url string, headers map[string]string, body any) (int, []byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, newError(KindValidation, p, "encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, nil, newError(KindConfig, p, "build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, newError(KindTransient, p, "%w: %v", ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return resp.StatusCode, nil, newError(KindTransient, p, "%w: read body: %v", ErrProviderRequest, err)
	}
	return resp.StatusCode, raw, nil
}

// httpStatusError classifies a non-success provider status: 5xx and 429 are
// retryable, 401/403 mean our credentials are wrong, the rest is terminal.
func httpStatusError(p Provider, status int, raw []byte) *Error {
	body := string(raw)
	if len(body) > 512 {
		body = body[:512]
	}
	err := fmt.Errorf("%w: http=%d body=%s", ErrProviderRequest, status, body)
	switch {
	case status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return &Error{Kind: KindTransient, Provider: p, Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindConfig, Provider: p, Err: err}
	default:
		return &Error{Kind: KindTerminal, Provider: p, Err: err}
	}
}
