package shared

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		fwd    string
		remote string
		want   string
	}{
		{name: "forwarded first hop", fwd: "203.0.113.7, 10.0.0.1", remote: "10.0.0.2:5000", want: "203.0.113.7"},
		{name: "socket address", remote: "198.51.100.4:4312", want: "198.51.100.4"},
		{name: "bare remote", remote: "198.51.100.4", want: "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.fwd != "" {
				r.Header.Set("X-Forwarded-For", tt.fwd)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Month string `json:"month"`
	}
	w := httptest.NewRecorder()
	ok := DecodeJSON(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"month":"2024-06"}`)), &dst)
	assert.True(t, ok)
	assert.Equal(t, "2024-06", dst.Month)

	w = httptest.NewRecorder()
	ok = DecodeJSON(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`)), &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_payload")
}

func TestRequireUserWithoutPrincipal(t *testing.T) {
	w := httptest.NewRecorder()
	_, ok := RequireUser(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type recorder struct {
	entries []audit.Entry
	err     error
}

func (r *recorder) Record(_ context.Context, e audit.Entry) error {
	r.entries = append(r.entries, e)
	return r.err
}

func TestRecordAudit(t *testing.T) {
	rec := &recorder{}
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "198.51.100.4:4312"
	user := auth.UserContext{UserID: "u1", TenantID: "t1"}

	RecordAudit(r, rec, user, audit.ActionPayslipPaid, "payslip", "ps-1", map[string]string{"status": "PENDING"}, map[string]string{"status": "PAID"})
	require.Len(t, rec.entries, 1)
	got := rec.entries[0]
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, "u1", got.ActorID)
	assert.Equal(t, "198.51.100.4", got.IP)
	assert.Equal(t, "ps-1", got.EntityID)

	rec.err = errors.New("db down")
	assert.NotPanics(t, func() {
		RecordAudit(r, rec, user, audit.ActionPayslipPaid, "payslip", "ps-1", nil, nil)
	})
	assert.NotPanics(t, func() {
		RecordAudit(r, nil, user, audit.ActionPayslipPaid, "payslip", "ps-1", nil, nil)
	})
}

func TestReplayWithoutStore(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Idempotency-Key", "k1")

	idem, replayed := Replay(w, r, nil, auth.UserContext{TenantID: "t1", UserID: "u1"}, "payslips.generate.bulk", []byte(`{}`))
	assert.False(t, replayed)
	require.NotNil(t, idem)
	assert.NotPanics(t, func() { idem.Save(r, map[string]int{"count": 1}) })
	assert.Equal(t, 0, w.Body.Len())
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=20", nil)
	assert.Equal(t, Pagination{Limit: 500, Offset: 20}, ParsePagination(r, 100, 500))

	r = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	assert.Equal(t, Pagination{Limit: 100, Offset: 0}, ParsePagination(r, 100, 500))
}

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	parsed, ok := v.Date("effectiveFrom", "2024-04-01")
	assert.True(t, ok)
	assert.Equal(t, 2024, parsed.Year())
	assert.False(t, v.HasIssues())

	_, ok = v.Date("effectiveFrom", "")
	assert.False(t, ok)
	require.Len(t, v.Issues(), 1)
	assert.Equal(t, "effectiveFrom", v.Issues()[0].Field)
}

func TestValidatorEnumCanonical(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, "PAID", v.Enum("status", " paid ", []string{"PAID"}, "can only be set to PAID"))
	assert.Equal(t, "", v.Enum("status", "", []string{"PAID"}, "can only be set to PAID"))
	assert.False(t, v.HasIssues())

	assert.Equal(t, "", v.Enum("status", "PENDING", []string{"PAID"}, "can only be set to PAID"))
	require.Len(t, v.Issues(), 1)
}

func TestValidatorDateTruncatesTimestamp(t *testing.T) {
	v := NewValidator()
	parsed, ok := v.Date("effectiveFrom", "2024-04-01T18:30:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), parsed)

	_, ok = v.Date("effectiveFrom", "01/04/2024")
	assert.False(t, ok)
}
