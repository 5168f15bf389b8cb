package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
)

// ClientIP prefers the first X-Forwarded-For hop over the socket address.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// DecodeJSON decodes the body into dst and writes the invalid_payload response on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// RequireUser writes 401 when the request carries no authenticated user.
func RequireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return user, ok
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// RecordAudit stores an audit event; failures are logged and never reach the client.
func RecordAudit(r *http.Request, recorder AuditRecorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	err := recorder.Record(r.Context(), audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}

// Idempotent holds the Idempotency-Key bookkeeping of one request.
type Idempotent struct {
	db       *pgxpool.Pool
	user     auth.UserContext
	endpoint string
	key      string
	hash     string
}

// Replay answers the request from a stored response when the Idempotency-Key was seen before.
// It returns true when the response has been written.
func Replay(w http.ResponseWriter, r *http.Request, db *pgxpool.Pool, user auth.UserContext, endpoint string, body []byte) (*Idempotent, bool) {
	idem := &Idempotent{
		db:       db,
		user:     user,
		endpoint: endpoint,
		key:      strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		hash:     middleware.RequestHash(body),
	}
	if idem.key == "" {
		return idem, false
	}
	stored, found, err := middleware.CheckIdempotency(r.Context(), db, user.TenantID, user.UserID, endpoint, idem.key, idem.hash)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different request", middleware.GetRequestID(r.Context()))
		return idem, true
	}
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", endpoint, "err", err)
	}
	if found {
		api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
		return idem, true
	}
	return idem, false
}

// Save stores response under the request's Idempotency-Key, if one was sent.
func (i *Idempotent) Save(r *http.Request, response any) {
	if i == nil || i.key == "" {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		slog.Warn("idempotency response marshal failed", "endpoint", i.endpoint, "err", err)
		return
	}
	if err := middleware.SaveIdempotency(r.Context(), i.db, i.user.TenantID, i.user.UserID, i.endpoint, i.key, i.hash, payload); err != nil {
		slog.Warn("idempotency save failed", "endpoint", i.endpoint, "err", err)
	}
}
