package notifications

import (
	"context"

	"go.uber.org/multierr"
)

// TokenSource lists the Expo tokens of merchant devices.
type TokenSource interface {
	ListMerchantTokens(ctx context.Context) ([]string, error)
}

// StaticTokens is a fixed list, usually EXPO_MERCHANT_TOKENS.
type StaticTokens []string

func (s StaticTokens) ListMerchantTokens(context.Context) ([]string, error) {
	return s, nil
}

// Tokens merges several sources and drops duplicates. A failing source does
// not hide the tokens of the others.
type Tokens []TokenSource

func (ts Tokens) ListMerchantTokens(ctx context.Context) ([]string, error) {
	var (
		out  []string
		err  error
		seen = make(map[string]struct{})
	)
	for _, src := range ts {
		if src == nil {
			continue
		}
		tokens, listErr := src.ListMerchantTokens(ctx)
		err = multierr.Append(err, listErr)
		for _, t := range tokens {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out, err
}
