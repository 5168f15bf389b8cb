package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureHeadersOnDownloads(t *testing.T) {
	handler := SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payslips/month/2024-06/export.xlsx", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "noopen", rec.Header().Get("X-Download-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecureHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payslips/runs", nil))
	assert.Empty(t, rec.Header().Get("X-Download-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(1024)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	big := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/save", strings.NewReader(strings.Repeat("x", 2048)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload_too_large")

	small := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/save", strings.NewReader(`{"month":"2024-06"}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, small)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/api/v1/payslips/runs", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
