package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"sitehrm/internal/domain/auth"
)

type rolePerms map[string][]string

func (p rolePerms) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	if roleID == "broken" {
		return false, errors.New("db down")
	}
	for _, perm := range p[roleID] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}

func TestRequirePermission(t *testing.T) {
	store := rolePerms{
		"role-accounts": auth.RolePermissions[auth.RoleAccounts],
		"role-sup":      auth.RolePermissions[auth.RoleSiteSupervisor],
	}
	guarded := RequirePermission(auth.PermPayrollPay, store)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		user   *auth.UserContext
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"no tenant", &auth.UserContext{UserID: "u1", RoleID: "role-accounts"}, http.StatusForbidden},
		{"accounts can pay", &auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "role-accounts"}, http.StatusNoContent},
		{"supervisor cannot pay", &auth.UserContext{UserID: "u2", TenantID: "t1", RoleID: "role-sup"}, http.StatusForbidden},
		{"lookup failure", &auth.UserContext{UserID: "u3", TenantID: "t1", RoleID: "broken"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/payslips/p1/payment-status", nil)
			if tc.user != nil {
				req = req.WithContext(withUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
