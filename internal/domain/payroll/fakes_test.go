package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/domain/attendance"
	"sitehrm/internal/domain/core"
	"sitehrm/internal/domain/salary"
)

const tenant = "tenant-1"

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// workedFields is the reference structure: gross 28800, deductions 3403, net 25397.
func workedFields() salary.Fields {
	return salary.Fields{
		BasicSalary:        dec("20000"),
		HRA:                dec("6000"),
		IncentiveAllowance: dec("2800"),
		PFDeduction:        dec("2400"),
		ESIDeduction:       dec("0"),
		ProfessionalTax:    dec("200"),
		MediclaimDeduction: dec("303"),
		AdvanceDeduction:   dec("500"),
		WelfareDeduction:   dec("0"),
		OtherDeductions:    dec("0"),
		EffectiveFrom:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type memPayslips struct {
	mu       sync.Mutex
	rows     map[string]Payslip
	seq      int
	saveErr  map[string]error
	saves    int
	deleted  int64
	deleteFn func(pendingOnly bool)
}

func newMemPayslips() *memPayslips {
	return &memPayslips{rows: map[string]Payslip{}, saveErr: map[string]error{}}
}

func (m *memPayslips) Save(_ context.Context, _ string, p Payslip, lockPaid bool) (*Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveErr[p.EmployeeID]; err != nil {
		return nil, err
	}
	key := p.EmployeeID + "|" + p.Month
	if existing, ok := m.rows[key]; ok {
		if lockPaid && existing.Paid() {
			return nil, apperr.ErrPayslipLocked
		}
		p.ID = existing.ID
		p.PaymentStatus = existing.PaymentStatus
		p.PaymentDate = existing.PaymentDate
		p.PaymentMethod = existing.PaymentMethod
	} else {
		m.seq++
		p.ID = fmt.Sprintf("ps-%d", m.seq)
		p.PaymentStatus = PaymentStatusPending
	}
	p.GeneratedAt = time.Now().UTC()
	m.rows[key] = p
	m.saves++
	out := p
	return &out, nil
}

func (m *memPayslips) byID(id string) (string, *Payslip) {
	for key, row := range m.rows {
		if row.ID == id {
			out := row
			return key, &out
		}
	}
	return "", nil
}

func (m *memPayslips) Get(_ context.Context, _ string, payslipID string) (*Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, row := m.byID(payslipID)
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	return row, nil
}

func (m *memPayslips) MarkPaid(_ context.Context, _ string, payslipID, method string) (*Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, row := m.byID(payslipID)
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	if row.Paid() {
		return nil, apperr.ErrAlreadyPaid
	}
	now := time.Now().UTC()
	row.PaymentStatus = PaymentStatusPaid
	row.PaymentDate = &now
	row.PaymentMethod = method
	m.rows[key] = *row
	return row, nil
}

func (m *memPayslips) ListByMonth(_ context.Context, _ string, month, siteID string) ([]Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payslip
	for _, row := range m.rows {
		if row.Month == month && (siteID == "" || row.SiteID == siteID) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memPayslips) Totals(ctx context.Context, tenantID, month, siteID string) (MonthTotals, error) {
	rows, _ := m.ListByMonth(ctx, tenantID, month, siteID)
	totals := MonthTotals{Month: month}
	for _, row := range rows {
		totals.Count++
		if row.Paid() {
			totals.Paid++
		}
		totals.GrossSalary = totals.GrossSalary.Add(row.GrossSalary)
		totals.TotalDeductions = totals.TotalDeductions.Add(row.TotalDeductions)
		totals.NetSalary = totals.NetSalary.Add(row.NetSalary)
	}
	return totals, nil
}

func (m *memPayslips) DeleteByMonth(_ context.Context, _ string, month, siteID string, pendingOnly bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteFn != nil {
		m.deleteFn(pendingOnly)
	}
	var n int64
	for key, row := range m.rows {
		if row.Month != month || (siteID != "" && row.SiteID != siteID) {
			continue
		}
		if pendingOnly && row.Paid() {
			continue
		}
		delete(m.rows, key)
		n++
	}
	m.deleted += n
	return n, nil
}

type memDirectory struct {
	employees []core.Employee
}

func (d *memDirectory) add(id, code, siteID, bank string) {
	d.employees = append(d.employees, core.Employee{
		ID:          id,
		Code:        code,
		FirstName:   "Worker",
		LastName:    code,
		SiteID:      siteID,
		Status:      core.EmployeeStatusActive,
		BankAccount: bank,
	})
}

func (d *memDirectory) GetEmployee(_ context.Context, _ string, employeeID string) (*core.Employee, error) {
	for _, emp := range d.employees {
		if emp.ID == employeeID {
			out := emp
			return &out, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (d *memDirectory) ListActiveEmployees(_ context.Context, _ string, siteID string) ([]core.Employee, error) {
	var out []core.Employee
	for _, emp := range d.employees {
		if emp.Status == core.EmployeeStatusActive && (siteID == "" || emp.SiteID == siteID) {
			out = append(out, emp)
		}
	}
	return out, nil
}

type memStructures struct {
	active map[string]salary.Structure
	err    map[string]error
}

func newMemStructures() *memStructures {
	return &memStructures{active: map[string]salary.Structure{}, err: map[string]error{}}
}

func (s *memStructures) set(employeeID string, fields salary.Fields) {
	s.active[employeeID] = salary.Structure{
		ID:              "sal-" + employeeID,
		EmployeeID:      employeeID,
		Fields:          fields,
		GrossSalary:     fields.Gross(),
		TotalDeductions: fields.TotalDeductions(),
		NetSalary:       fields.Net(),
		Status:          salary.StatusActive,
	}
}

func (s *memStructures) GetActiveByEmployee(_ context.Context, _ string, employeeID string) (*salary.Structure, error) {
	if err := s.err[employeeID]; err != nil {
		return nil, err
	}
	row, ok := s.active[employeeID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *memStructures) EmployeesWithoutActive(_ context.Context, _ string, _ string) ([]salary.MissingStructure, error) {
	return nil, nil
}

type memAttendance struct {
	records map[string]attendance.Record
}

func newMemAttendance() *memAttendance {
	return &memAttendance{records: map[string]attendance.Record{}}
}

func (a *memAttendance) set(employeeID string, month attendance.Month, days int, status string) {
	a.records[employeeID+"|"+month.String()] = attendance.Record{
		EmployeeID:       employeeID,
		Month:            month.String(),
		DaysPresent:      days,
		TotalDaysInMonth: month.Days(),
		Status:           status,
	}
}

func (a *memAttendance) Get(_ context.Context, _ string, employeeID string, month attendance.Month) (*attendance.Record, error) {
	row, ok := a.records[employeeID+"|"+month.String()]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

type fixture struct {
	payslips   *memPayslips
	directory  *memDirectory
	structures *memStructures
	attendance *memAttendance
}

func newFixture() *fixture {
	return &fixture{
		payslips:   newMemPayslips(),
		directory:  &memDirectory{},
		structures: newMemStructures(),
		attendance: newMemAttendance(),
	}
}

func (f *fixture) service(opts Options) *Service {
	return NewService(f.payslips, f.directory, f.structures, f.attendance, opts)
}

func mustMonth(year, month int) attendance.Month {
	m, err := attendance.MonthOf(year, month)
	if err != nil {
		panic(err)
	}
	return m
}
