package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"

	"sitehrm/internal/domain/auth"
)

// Auth resolves a bearer token into a tenant-scoped principal. Requests
// without a valid token pass through anonymously; handlers and
// RequirePermission decide whether that is acceptable.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				slog.DebugContext(r.Context(), "bearer token rejected", "err", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			user := auth.UserContext{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				RoleID:   claims.RoleID,
				RoleName: claims.RoleName,
			}
			httplog.SetAttrs(r.Context(),
				slog.String("tenant_id", user.TenantID),
				slog.String("user_id", user.UserID),
				slog.String("role", user.RoleName),
			)
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
