package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeErrorUnwraps(t *testing.T) {
	err := ForEmployee("e-1", "EMP001", ErrNoSalaryStructure)

	require.ErrorIs(t, err, ErrNoSalaryStructure)
	var empErr *EmployeeError
	require.True(t, errors.As(err, &empErr))
	assert.Equal(t, "EMP001", empErr.EmployeeCode)
	assert.Contains(t, err.Error(), "EMP001")
}

func TestEmployeeErrorFallsBackToID(t *testing.T) {
	err := &EmployeeError{EmployeeID: "e-2", Month: "2024-06", Err: ErrNoAttendanceRecord}
	assert.Equal(t, "employee e-2 (2024-06): no attendance record", err.Error())
}

func TestStorageKeepsDriverError(t *testing.T) {
	driver := errors.New("connection reset")
	err := Storage("insert payslip", driver)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, driver)
	assert.Nil(t, Storage("noop", nil))
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Invalid("month %q", "2024-13"), CodeInvalidInput},
		{ForEmployee("e", "c", ErrNoSalaryStructure), CodeNoSalaryStructure},
		{ForEmployee("e", "c", ErrNoAttendanceRecord), CodeNoAttendanceRecord},
		{ErrAlreadyFinalized, CodeAlreadyFinalized},
		{ErrPayslipLocked, CodePayslipLocked},
		{ErrAlreadyPaid, CodeAlreadyPaid},
		{ErrNotFound, CodeNotFound},
		{Storage("select", errors.New("boom")), CodeStorage},
		{errors.New("something else"), ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err), tc.err.Error())
	}
}
