package pushtokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storepay/internal/infra/dbx"
)

var QueryTimeoutDuration = 5 * time.Second

// Store keeps the Expo tokens of merchant devices that want a push for
// every paid order.
type Store interface {
	AddOrUpdateMerchantToken(ctx context.Context, token string, deviceInfo json.RawMessage) error
	RemoveMerchantToken(ctx context.Context, token string) (bool, error)
	ListMerchantTokens(ctx context.Context) ([]string, error)
	PruneStaleTokens(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{q: q}
}

// AddOrUpdateMerchantToken upserts token + device info, updates last_updated
func (r *Repository) AddOrUpdateMerchantToken(ctx context.Context, token string, deviceInfo json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
	INSERT INTO merchant_push_tokens (expo_push_token, device_info, last_updated)
	VALUES ($1, $2, NOW())
	ON CONFLICT (expo_push_token)
	DO UPDATE SET device_info = EXCLUDED.device_info, last_updated = NOW();
	`

	if len(deviceInfo) == 0 {
		deviceInfo = nil
	}
	if _, err := r.q.Exec(ctx, q, token, deviceInfo); err != nil {
		return fmt.Errorf("upsert merchant push token: %w", err)
	}
	return nil
}

func (r *Repository) RemoveMerchantToken(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.q.Exec(ctx, `DELETE FROM merchant_push_tokens WHERE expo_push_token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("delete merchant push token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) ListMerchantTokens(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.q.Query(ctx, `SELECT expo_push_token FROM merchant_push_tokens ORDER BY last_updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("list merchant push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// PruneStaleTokens deletes tokens not refreshed within olderThan.
func (r *Repository) PruneStaleTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	// pass interval string e.g. "3600 seconds"
	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	tag, err := r.q.Exec(ctx, `DELETE FROM merchant_push_tokens WHERE last_updated < NOW() - $1::interval`, interval)
	if err != nil {
		return 0, fmt.Errorf("prune merchant push tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
