package payroll

import (
	"context"

	"sitehrm/internal/domain/attendance"
	"sitehrm/internal/domain/core"
	"sitehrm/internal/domain/salary"
)

type StoreAPI interface {
	// Save upserts on (tenant, employee, month) keeping the payslip id. With lockPaid set a
	// PAID payslip is left untouched and apperr.ErrPayslipLocked is returned.
	Save(ctx context.Context, tenantID string, payslip Payslip, lockPaid bool) (*Payslip, error)
	Get(ctx context.Context, tenantID, payslipID string) (*Payslip, error)
	MarkPaid(ctx context.Context, tenantID, payslipID, method string) (*Payslip, error)
	ListByMonth(ctx context.Context, tenantID, month, siteID string) ([]Payslip, error)
	Totals(ctx context.Context, tenantID, month, siteID string) (MonthTotals, error)
	DeleteByMonth(ctx context.Context, tenantID, month, siteID string, pendingOnly bool) (int64, error)
}

type EmployeeSource interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*core.Employee, error)
}

type StructureSource interface {
	GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*salary.Structure, error)
}

type AttendanceSource interface {
	Get(ctx context.Context, tenantID, employeeID string, month attendance.Month) (*attendance.Record, error)
}
