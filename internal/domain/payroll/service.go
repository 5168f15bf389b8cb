package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/domain/attendance"
	"sitehrm/internal/domain/core"
)

// Metrics receives one call per payslip generation attempt.
type Metrics interface {
	RecordPayslip(ok bool)
}

type Options struct {
	LockPaid                   bool
	RequireFinalizedAttendance bool
}

type Service struct {
	store      StoreAPI
	employees  EmployeeSource
	structures StructureSource
	attendance AttendanceSource
	opts       Options
	metrics    Metrics
}

func NewService(store StoreAPI, employees EmployeeSource, structures StructureSource, attendance AttendanceSource, opts Options) *Service {
	return &Service{
		store:      store,
		employees:  employees,
		structures: structures,
		attendance: attendance,
		opts:       opts,
	}
}

func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// Generate derives and persists the payslip of one employee for one month.
func (s *Service) Generate(ctx context.Context, tenantID string, req GenerateRequest) (*Payslip, error) {
	p, err := s.generate(ctx, tenantID, req)
	if s.metrics != nil {
		s.metrics.RecordPayslip(err == nil)
	}
	return p, err
}

func (s *Service) generate(ctx context.Context, tenantID string, req GenerateRequest) (*Payslip, error) {
	month, err := attendance.MonthOf(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" {
		return nil, apperr.Invalid("employeeId is required")
	}

	emp, err := s.employees.GetEmployee(ctx, tenantID, employeeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ForEmployee(employeeID, "", apperr.Invalid("employee does not exist"))
	}
	if err != nil {
		return nil, err
	}
	fail := func(err error) error {
		return &apperr.EmployeeError{EmployeeID: emp.ID, EmployeeCode: emp.Code, Month: month.String(), Err: err}
	}

	structure, err := s.structures.GetActiveByEmployee(ctx, tenantID, emp.ID)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, fail(apperr.ErrNoSalaryStructure)
	}

	record, err := s.attendance.Get(ctx, tenantID, emp.ID, month)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fail(apperr.ErrNoAttendanceRecord)
	}
	if s.opts.RequireFinalizedAttendance && !record.Finalized() {
		return nil, fail(fmt.Errorf("attendance is still draft: %w", apperr.ErrNoAttendanceRecord))
	}

	if record.OverCount() {
		return nil, fail(apperr.Invalid("days present %d exceeds %d days in month", record.DaysPresent, record.TotalDaysInMonth))
	}

	advance := structure.AdvanceDeduction
	if req.AdvanceDeduction != nil {
		if req.AdvanceDeduction.IsNegative() {
			return nil, fail(apperr.Invalid("advanceDeduction must not be negative"))
		}
		advance = req.AdvanceDeduction.Round(2)
	}
	deductionsFull := structure.TotalDeductions.Sub(structure.AdvanceDeduction).Add(advance)

	amounts, err := Prorate(structure.Gross(), deductionsFull, record.DaysPresent, record.TotalDaysInMonth)
	if err != nil {
		return nil, fail(err)
	}

	payslip := Payslip{
		EmployeeID:         emp.ID,
		EmployeeCode:       emp.Code,
		EmployeeName:       emp.FullName(),
		SiteID:             emp.SiteID,
		Month:              month.String(),
		DaysPresent:        record.DaysPresent,
		TotalDaysInMonth:   record.TotalDaysInMonth,
		BasicSalary:        structure.BasicSalary,
		HRA:                structure.HRA,
		IncentiveAllowance: structure.IncentiveAllowance,
		OvertimeAmount:     decimal.Zero,
		GrossSalary:        amounts.Gross,
		PFDeduction:        structure.PFDeduction,
		ESIDeduction:       structure.ESIDeduction,
		ProfessionalTax:    structure.ProfessionalTax,
		AdvanceDeduction:   advance,
		WelfareDeduction:   structure.WelfareDeduction,
		HealthInsurance:    structure.MediclaimDeduction,
		OtherDeductions:    structure.OtherDeductions,
		TotalDeductions:    amounts.TotalDeductions,
		NetSalary:          amounts.Net,
		Remarks:            strings.TrimSpace(req.Remarks),
	}

	saved, err := s.store.Save(ctx, tenantID, payslip, s.opts.LockPaid)
	if errors.Is(err, apperr.ErrPayslipLocked) {
		return nil, fail(err)
	}
	if err != nil {
		return nil, err
	}
	saved.Warnings = warningsFor(emp, saved)
	return saved, nil
}

func warningsFor(emp *core.Employee, p *Payslip) []string {
	var warnings []string
	if strings.TrimSpace(emp.BankAccount) == "" {
		warnings = append(warnings, WarningMissingBank)
	}
	if p.NetSalary.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}
	return warnings
}

// UpdatePaymentStatus performs the one-way PENDING to PAID transition.
func (s *Service) UpdatePaymentStatus(ctx context.Context, tenantID, payslipID string, update PaymentUpdate) (*Payslip, error) {
	status := strings.ToUpper(strings.TrimSpace(update.Status))
	if status != PaymentStatusPaid {
		return nil, apperr.Invalid("payment status can only be set to %s", PaymentStatusPaid)
	}
	method := strings.TrimSpace(update.Method)
	if method == "" {
		return nil, apperr.Invalid("payment method is required")
	}
	p, err := s.store.MarkPaid(ctx, tenantID, payslipID, method)
	if err != nil {
		return nil, err
	}
	slog.Info("payslip paid", "tenantId", tenantID, "payslipId", p.ID, "employeeId", p.EmployeeID, "month", p.Month)
	return p, nil
}

func (s *Service) Get(ctx context.Context, tenantID, payslipID string) (*Payslip, error) {
	return s.store.Get(ctx, tenantID, payslipID)
}

func (s *Service) ListByMonth(ctx context.Context, tenantID, month, siteID string) ([]Payslip, error) {
	m, err := attendance.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	return s.store.ListByMonth(ctx, tenantID, m.String(), siteID)
}

func (s *Service) MonthTotals(ctx context.Context, tenantID, month, siteID string) (MonthTotals, error) {
	m, err := attendance.ParseMonth(month)
	if err != nil {
		return MonthTotals{}, err
	}
	return s.store.Totals(ctx, tenantID, m.String(), siteID)
}
