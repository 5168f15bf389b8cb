package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
)

const testSecret = "test-secret"

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeReader struct {
	events  []audit.Event
	filter  audit.Filter
	listErr error
}

func (f *fakeReader) Count(context.Context, string, audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeReader) List(_ context.Context, _ string, filter audit.Filter, _ bool, _, _ int) ([]audit.Event, error) {
	f.filter = filter
	return f.events, f.listErr
}

func serve(t *testing.T, reader *fakeReader, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.Auth(testSecret))
	NewHandler(reader, allowAll{}).RegisterRoutes(r)

	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListEventsPassesFilter(t *testing.T) {
	reader := &fakeReader{events: []audit.Event{{ID: "a1", Action: audit.ActionPayslipGenerate}}}
	rec := serve(t, reader, "/audit/events?action=payslip.generate&entityId=ps-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, audit.ActionPayslipGenerate, reader.filter.Action)
	assert.Equal(t, "ps-1", reader.filter.EntityID)
}

func TestListEventsStorageFailure(t *testing.T) {
	reader := &fakeReader{listErr: apperr.Storage("list audit events", context.DeadlineExceeded)}
	rec := serve(t, reader, "/audit/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExportEventsCSV(t *testing.T) {
	created := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	reader := &fakeReader{events: []audit.Event{
		{ID: "a1", ActorID: "u1", Action: audit.ActionPayrollBulk, EntityType: "payroll", EntityID: "2024-06", CreatedAt: created},
	}}
	rec := serve(t, reader, "/audit/events/export")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.ContentTypeCSV, rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "actor_user_id", rows[0][1])
	assert.Equal(t, []string{"a1", "u1", audit.ActionPayrollBulk, "payroll", "2024-06", "", "", "2024-07-01T09:30:00Z"}, rows[1])
}
