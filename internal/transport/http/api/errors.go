package api

import (
	"errors"
	"log/slog"
	"net/http"

	"sitehrm/internal/domain/apperr"
)

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrNoSalaryStructure), errors.Is(err, apperr.ErrNoAttendanceRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrAlreadyFinalized), errors.Is(err, apperr.ErrPayslipLocked), errors.Is(err, apperr.ErrAlreadyPaid):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FailError writes the envelope for err. Storage and unknown errors are logged and
// reported without their driver text.
func FailError(w http.ResponseWriter, err error, requestID string) {
	status := StatusFor(err)
	code := apperr.Code(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "requestId", requestID, "err", err)
		if code == "" {
			code = "internal_error"
		}
		Fail(w, status, code, "internal error", requestID)
		return
	}

	var empErr *apperr.EmployeeError
	if errors.As(err, &empErr) {
		FailWithDetails(w, status, code, err.Error(), map[string]string{
			"employeeId":   empErr.EmployeeID,
			"employeeCode": empErr.EmployeeCode,
		}, requestID)
		return
	}
	Fail(w, status, code, err.Error(), requestID)
}
