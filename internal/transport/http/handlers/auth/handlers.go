package authhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
	"sitehrm/internal/transport/http/shared"
)

const tokenTTL = 8 * time.Hour

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (auth.AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Handler struct {
	Users  UserStore
	Secret string
	Audit  shared.AuditRecorder
}

func NewHandler(users UserStore, secret string, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Users: users, Secret: secret, Audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	validator := shared.NewValidator()
	validator.Required("email", email, "is required")
	validator.Required("password", payload.Password, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Users.FindActiveUserByEmail(r.Context(), email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(user.Password, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	principal := auth.UserContext{UserID: user.ID, TenantID: user.TenantID, RoleID: user.RoleID, RoleName: user.RoleName}
	shared.RecordAudit(r, h.Audit, principal, audit.ActionLogin, "user", user.ID, nil, nil)

	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]string{"id": user.ID, "tenantId": user.TenantID, "roleId": user.RoleID, "role": user.RoleName},
	}, middleware.GetRequestID(r.Context()))
}

// HandleRefresh re-issues a token for an already authenticated caller.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:   user.UserID,
		TenantID: user.TenantID,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"token": token}, middleware.GetRequestID(r.Context()))
}
