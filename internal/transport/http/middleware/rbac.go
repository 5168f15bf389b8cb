package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"sitehrm/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission gates a route on the caller's role. Every payroll
// query is tenant-scoped, so a principal without a tenant is refused
// before the role lookup.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := GetRequestID(ctx)
			user, ok := GetUser(ctx)
			if !ok || user.UserID == "" {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			if user.TenantID == "" {
				api.Fail(w, http.StatusForbidden, "forbidden", "principal is not bound to a tenant", reqID)
				return
			}

			allowed, err := store.HasPermission(ctx, user.RoleID, permission)
			if err != nil {
				slog.ErrorContext(ctx, "permission lookup failed", "err", err, "permission", permission, "roleId", user.RoleID)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", reqID)
				return
			}
			if !allowed {
				slog.InfoContext(ctx, "permission denied",
					"permission", permission,
					"tenantId", user.TenantID,
					"userId", user.UserID,
					"role", user.RoleName,
				)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
