package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// IdempotencyWindow bounds how long a payroll mutation can be replayed from
// its key. After that the same key starts a fresh request, so a bulk run
// retried on the next business day regenerates instead of echoing stale totals.
const IdempotencyWindow = 24 * time.Hour

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// CheckIdempotency returns the stored response for a live key. A nil pool
// disables the check.
func CheckIdempotency(ctx context.Context, db *pgxpool.Pool, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if db == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
      AND created_at > now() - make_interval(secs => $5)
  `, tenantID, userID, key, endpoint, IdempotencyWindow.Seconds()).Scan(&storedHash, &stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case storedHash != requestHash:
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

// SaveIdempotency stores response under key. An expired row for the same
// key is taken over; a live row with a different request hash is a conflict.
func SaveIdempotency(ctx context.Context, db *pgxpool.Pool, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if db == nil {
		return nil
	}
	tag, err := db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (tenant_id, user_id, key, endpoint)
    DO UPDATE SET request_hash = EXCLUDED.request_hash,
                  response_json = EXCLUDED.response_json,
                  created_at = now()
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
       OR idempotency_keys.created_at <= now() - make_interval(secs => $7)
  `, tenantID, userID, key, endpoint, requestHash, response, IdempotencyWindow.Seconds())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}
