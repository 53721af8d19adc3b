package paymentsrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"storepay/internal/infra/dbx"
)

type LogsRepository struct{ q dbx.Querier }

func NewLogsRepository(q dbx.Querier) *LogsRepository {
	return &LogsRepository{q: q}
}

func (r *LogsRepository) InsertPaymentLog(ctx context.Context, orderNumber, provider string, logType LogType, payload any) error {
	var jb []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payment_log payload: %w", err)
		}
		jb = b
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO payment_logs (order_number, provider, log_type, payload)
		VALUES ($1, $2, $3, $4)
	`, orderNumber, provider, string(logType), jb)
	if err != nil {
		return fmt.Errorf("insert payment_log: %w", err)
	}
	return nil
}

// List returns an order's audit trail, newest first, with the total count
// for pagination. An empty logType means every type.
func (r *LogsRepository) List(ctx context.Context, orderNumber string, logType LogType, limit, offset int) ([]PaymentLog, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM payment_logs
		WHERE order_number = $1 AND ($2 = '' OR log_type = $2)
	`, orderNumber, string(logType)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payment_logs: %w", err)
	}
	if total == 0 {
		return []PaymentLog{}, 0, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, order_number, provider, log_type, payload, created_at
		FROM payment_logs
		WHERE order_number = $1 AND ($2 = '' OR log_type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, orderNumber, string(logType), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payment_logs: %w", err)
	}
	defer rows.Close()

	logs := make([]PaymentLog, 0, limit)
	for rows.Next() {
		var (
			l       PaymentLog
			payload []byte
		)
		if err := rows.Scan(&l.ID, &l.OrderNumber, &l.Provider, &l.LogType, &payload, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(payload) > 0 {
			l.Payload = json.RawMessage(payload)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
