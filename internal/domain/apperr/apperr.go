// Package apperr holds the error kinds shared by the payroll components and
// their HTTP mapping codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoSalaryStructure  = errors.New("no active salary structure")
	ErrNoAttendanceRecord = errors.New("no attendance record")
	ErrAlreadyFinalized   = errors.New("attendance already finalized")
	ErrPayslipLocked      = errors.New("payslip is paid and locked")
	ErrAlreadyPaid        = errors.New("payslip already paid")
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage failure")
)

const (
	CodeInvalidInput       = "invalid_input"
	CodeNoSalaryStructure  = "no_salary_structure"
	CodeNoAttendanceRecord = "no_attendance_record"
	CodeAlreadyFinalized   = "already_finalized"
	CodePayslipLocked      = "payslip_locked"
	CodeAlreadyPaid        = "already_paid"
	CodeNotFound           = "not_found"
	CodeStorage            = "storage_error"
)

// EmployeeError ties a failure to the employee it happened for.
type EmployeeError struct {
	EmployeeID   string
	EmployeeCode string
	Month        string
	Err          error
}

func (e *EmployeeError) Error() string {
	label := e.EmployeeCode
	if label == "" {
		label = e.EmployeeID
	}
	if e.Month != "" {
		return fmt.Sprintf("employee %s (%s): %v", label, e.Month, e.Err)
	}
	return fmt.Sprintf("employee %s: %v", label, e.Err)
}

func (e *EmployeeError) Unwrap() error {
	return e.Err
}

func ForEmployee(employeeID, employeeCode string, err error) error {
	return &EmployeeError{EmployeeID: employeeID, EmployeeCode: employeeCode, Err: err}
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Storage wraps a driver error so callers can tell it apart from business failures.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// Code returns the stable machine code of an error kind, or "" for unknown errors.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNoSalaryStructure):
		return CodeNoSalaryStructure
	case errors.Is(err, ErrNoAttendanceRecord):
		return CodeNoAttendanceRecord
	case errors.Is(err, ErrAlreadyFinalized):
		return CodeAlreadyFinalized
	case errors.Is(err, ErrPayslipLocked):
		return CodePayslipLocked
	case errors.Is(err, ErrAlreadyPaid):
		return CodeAlreadyPaid
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrStorage):
		return CodeStorage
	}
	return ""
}
