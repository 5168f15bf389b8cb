package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sitehrm/internal/domain/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("bad month"), http.StatusBadRequest},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ForEmployee("e1", "EMP1", apperr.ErrNoSalaryStructure), http.StatusUnprocessableEntity},
		{apperr.ForEmployee("e1", "EMP1", apperr.ErrNoAttendanceRecord), http.StatusUnprocessableEntity},
		{apperr.ErrAlreadyFinalized, http.StatusConflict},
		{apperr.ErrPayslipLocked, http.StatusConflict},
		{apperr.ErrAlreadyPaid, http.StatusConflict},
		{apperr.Storage("select", errors.New("down")), http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestFailErrorIncludesEmployee(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, apperr.ForEmployee("e1", "EMP1", apperr.ErrNoSalaryStructure), "req-1")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != apperr.CodeNoSalaryStructure {
		t.Fatalf("unexpected code %q", env.Error.Code)
	}
	if env.Error.Details["employeeCode"] != "EMP1" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestFailErrorHidesStorageDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, apperr.Storage("insert", errors.New("password=secret")), "req-2")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Code != apperr.CodeStorage || env.Error.Message != "internal error" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
}
