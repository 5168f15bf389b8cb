package payroll

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/domain/attendance"
)

const (
	empA = "emp-a"
	empB = "emp-b"
)

var june2024 = mustMonth(2024, 6)

func workedFixture() *fixture {
	f := newFixture()
	f.directory.add(empA, "E001", "site-1", "00112233")
	f.structures.set(empA, workedFields())
	f.attendance.set(empA, june2024, 13, attendance.StatusDraft)
	return f
}

func TestGenerateWorkedExample(t *testing.T) {
	f := workedFixture()
	svc := f.service(Options{LockPaid: true})

	p, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, "2024-06", p.Month)
	assert.Equal(t, 13, p.DaysPresent)
	assert.Equal(t, 30, p.TotalDaysInMonth)
	assert.True(t, p.GrossSalary.Equal(dec("12480")), p.GrossSalary.String())
	assert.True(t, p.NetSalary.Equal(dec("11005")), p.NetSalary.String())
	assert.True(t, p.TotalDeductions.Equal(dec("1475")), p.TotalDeductions.String())
	assert.True(t, p.GrossSalary.Sub(p.TotalDeductions).Equal(p.NetSalary))
	assert.True(t, p.PFDeduction.Equal(dec("2400")))
	assert.True(t, p.HealthInsurance.Equal(dec("303")))
	assert.True(t, p.OvertimeAmount.IsZero())
	assert.Equal(t, "site-1", p.SiteID)
	assert.Equal(t, "E001", p.EmployeeCode)
	assert.Equal(t, "Worker E001", p.EmployeeName)
	assert.Equal(t, PaymentStatusPending, p.PaymentStatus)
	assert.Empty(t, p.Warnings)
}

func TestGenerateMissingAttendance(t *testing.T) {
	f := newFixture()
	f.directory.add(empA, "E001", "site-1", "00112233")
	f.structures.set(empA, workedFields())
	svc := f.service(Options{})

	_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.ErrorIs(t, err, apperr.ErrNoAttendanceRecord)

	var empErr *apperr.EmployeeError
	require.True(t, errors.As(err, &empErr))
	assert.Equal(t, "E001", empErr.EmployeeCode)
	assert.Equal(t, "2024-06", empErr.Month)
	assert.Zero(t, f.payslips.saves)
}

func TestGenerateMissingStructure(t *testing.T) {
	f := newFixture()
	f.directory.add(empA, "E001", "site-1", "00112233")
	f.attendance.set(empA, june2024, 20, attendance.StatusFinalized)
	svc := f.service(Options{})

	_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.ErrorIs(t, err, apperr.ErrNoSalaryStructure)
	assert.Zero(t, f.payslips.saves)
}

func TestGenerateUnknownEmployee(t *testing.T) {
	svc := newFixture().service(Options{})

	_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: "nobody", Month: 6, Year: 2024})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestGenerateRejectsBadMonth(t *testing.T) {
	svc := workedFixture().service(Options{})

	for _, month := range []int{0, 13} {
		_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: month, Year: 2024})
		require.ErrorIs(t, err, apperr.ErrInvalidInput, "month %d", month)
	}
}

func TestGenerateRequiresFinalizedAttendance(t *testing.T) {
	f := workedFixture()
	svc := f.service(Options{RequireFinalizedAttendance: true})

	_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.ErrorIs(t, err, apperr.ErrNoAttendanceRecord)

	f.attendance.set(empA, june2024, 13, attendance.StatusFinalized)
	_, err = svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)
}

func TestGenerateOverCountAttendanceFails(t *testing.T) {
	f := workedFixture()
	f.attendance.set(empA, june2024, 31, attendance.StatusDraft)
	svc := f.service(Options{})

	_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Zero(t, f.payslips.saves)
}

func TestGenerateAdvanceOverride(t *testing.T) {
	f := workedFixture()
	svc := f.service(Options{})

	zero := decimal.Zero
	p, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024, AdvanceDeduction: &zero})
	require.NoError(t, err)
	assert.True(t, p.AdvanceDeduction.IsZero())
	assert.True(t, p.GrossSalary.Equal(dec("12480")))
	assert.True(t, p.NetSalary.Equal(dec("11222")), p.NetSalary.String())
	assert.True(t, p.TotalDeductions.Equal(dec("1258")), p.TotalDeductions.String())

	negative := dec("-1")
	_, err = svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024, AdvanceDeduction: &negative})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := workedFixture()
	svc := f.service(Options{})

	first, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)

	f.attendance.set(empA, june2024, 30, attendance.StatusDraft)
	second, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.NetSalary.Equal(dec("25397")))
	rows, err := svc.ListByMonth(context.Background(), tenant, "2024-06", "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGeneratePaidPayslipLock(t *testing.T) {
	f := workedFixture()
	locked := f.service(Options{LockPaid: true})

	p, err := locked.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)
	_, err = locked.UpdatePaymentStatus(context.Background(), tenant, p.ID, PaymentUpdate{Status: "paid", Method: "NEFT"})
	require.NoError(t, err)

	_, err = locked.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.ErrorIs(t, err, apperr.ErrPayslipLocked)

	unlocked := f.service(Options{LockPaid: false})
	again, err := unlocked.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, PaymentStatusPaid, again.PaymentStatus)
}

func TestGenerateWarnings(t *testing.T) {
	f := newFixture()
	f.directory.add(empB, "E002", "site-1", "")
	fields := workedFields()
	fields.AdvanceDeduction = dec("40000")
	f.structures.set(empB, fields)
	f.attendance.set(empB, june2024, 30, attendance.StatusDraft)
	svc := f.service(Options{})

	p, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empB, Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.True(t, p.NetSalary.IsNegative())
	assert.ElementsMatch(t, []string{WarningMissingBank, WarningNegativeNet}, p.Warnings)
}

func TestGenerateStorageErrorPassesThrough(t *testing.T) {
	f := workedFixture()
	f.payslips.saveErr[empA] = apperr.Storage("save payslip", errors.New("connection reset"))
	svc := f.service(Options{})

	_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.Error(t, err)
	assert.True(t, apperr.IsStorage(err))
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := workedFixture()
	svc := f.service(Options{})
	p, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: empA, Month: 6, Year: 2024})
	require.NoError(t, err)

	tests := []struct {
		name   string
		id     string
		update PaymentUpdate
		want   error
	}{
		{name: "pending not allowed", id: p.ID, update: PaymentUpdate{Status: "PENDING", Method: "NEFT"}, want: apperr.ErrInvalidInput},
		{name: "method required", id: p.ID, update: PaymentUpdate{Status: "PAID"}, want: apperr.ErrInvalidInput},
		{name: "unknown payslip", id: "missing", update: PaymentUpdate{Status: "PAID", Method: "NEFT"}, want: apperr.ErrNotFound},
		{name: "paid", id: p.ID, update: PaymentUpdate{Status: "PAID", Method: "NEFT"}},
		{name: "already paid", id: p.ID, update: PaymentUpdate{Status: "PAID", Method: "CASH"}, want: apperr.ErrAlreadyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdatePaymentStatus(context.Background(), tenant, tt.id, tt.update)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PaymentStatusPaid, got.PaymentStatus)
			assert.Equal(t, "NEFT", got.PaymentMethod)
			require.NotNil(t, got.PaymentDate)
		})
	}
}

func TestMonthTotals(t *testing.T) {
	f := workedFixture()
	f.directory.add(empB, "E002", "site-2", "999")
	f.structures.set(empB, workedFields())
	f.attendance.set(empB, june2024, 30, attendance.StatusDraft)
	svc := f.service(Options{})
	for _, id := range []string{empA, empB} {
		_, err := svc.Generate(context.Background(), tenant, GenerateRequest{EmployeeID: id, Month: 6, Year: 2024})
		require.NoError(t, err)
	}

	totals, err := svc.MonthTotals(context.Background(), tenant, "2024-06", "")
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Count)
	assert.True(t, totals.NetSalary.Equal(dec("36402")), totals.NetSalary.String())

	site, err := svc.MonthTotals(context.Background(), tenant, "2024-06", "site-2")
	require.NoError(t, err)
	assert.Equal(t, 1, site.Count)

	_, err = svc.MonthTotals(context.Background(), tenant, "June", "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
