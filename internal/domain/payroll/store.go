package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/platform/db"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const payslipColumns = `p.id, p.employee_id, e.code, trim(e.first_name || ' ' || e.last_name), COALESCE(p.site_id::text, ''),
           p.month, p.days_present, p.total_days_in_month,
           p.basic_salary, p.hra, p.incentive_allowance, p.overtime_amount, p.gross_salary,
           p.pf_deduction, p.esi_deduction, p.professional_tax, p.advance_deduction, p.welfare_deduction,
           p.health_insurance, p.other_deductions, p.total_deductions, p.net_salary,
           p.payment_status, p.payment_date, p.payment_method, p.remarks, p.generated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPayslip(row scanner) (Payslip, error) {
	var p Payslip
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.EmployeeCode, &p.EmployeeName, &p.SiteID,
		&p.Month, &p.DaysPresent, &p.TotalDaysInMonth,
		&p.BasicSalary, &p.HRA, &p.IncentiveAllowance, &p.OvertimeAmount, &p.GrossSalary,
		&p.PFDeduction, &p.ESIDeduction, &p.ProfessionalTax, &p.AdvanceDeduction, &p.WelfareDeduction,
		&p.HealthInsurance, &p.OtherDeductions, &p.TotalDeductions, &p.NetSalary,
		&p.PaymentStatus, &p.PaymentDate, &p.PaymentMethod, &p.Remarks, &p.GeneratedAt,
	)
	return p, err
}

func selectPayslip(ctx context.Context, q db.Querier, tenantID, payslipID string) (Payslip, error) {
	return scanPayslip(q.QueryRow(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips p
    JOIN employees e ON e.id = p.employee_id
    WHERE p.tenant_id = $1 AND p.id = $2
  `, tenantID, payslipID))
}

func (s *Store) Save(ctx context.Context, tenantID string, p Payslip, lockPaid bool) (*Payslip, error) {
	var saved Payslip
	err := db.WithTransaction(ctx, s.DB, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `
      SELECT payment_status
      FROM payslips
      WHERE tenant_id = $1 AND employee_id = $2 AND month = $3
      FOR UPDATE
    `, tenantID, p.EmployeeID, p.Month).Scan(&status)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if lockPaid && status == PaymentStatusPaid {
			return apperr.ErrPayslipLocked
		}

		var id string
		if err := tx.QueryRow(ctx, `
      INSERT INTO payslips (tenant_id, employee_id, site_id, month, days_present, total_days_in_month,
        basic_salary, hra, incentive_allowance, overtime_amount, gross_salary,
        pf_deduction, esi_deduction, professional_tax, advance_deduction, welfare_deduction,
        health_insurance, other_deductions, total_deductions, net_salary, remarks, payment_status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,'PENDING')
      ON CONFLICT (tenant_id, employee_id, month)
      DO UPDATE SET site_id = EXCLUDED.site_id,
                    days_present = EXCLUDED.days_present,
                    total_days_in_month = EXCLUDED.total_days_in_month,
                    basic_salary = EXCLUDED.basic_salary,
                    hra = EXCLUDED.hra,
                    incentive_allowance = EXCLUDED.incentive_allowance,
                    overtime_amount = EXCLUDED.overtime_amount,
                    gross_salary = EXCLUDED.gross_salary,
                    pf_deduction = EXCLUDED.pf_deduction,
                    esi_deduction = EXCLUDED.esi_deduction,
                    professional_tax = EXCLUDED.professional_tax,
                    advance_deduction = EXCLUDED.advance_deduction,
                    welfare_deduction = EXCLUDED.welfare_deduction,
                    health_insurance = EXCLUDED.health_insurance,
                    other_deductions = EXCLUDED.other_deductions,
                    total_deductions = EXCLUDED.total_deductions,
                    net_salary = EXCLUDED.net_salary,
                    remarks = EXCLUDED.remarks,
                    generated_at = now()
      RETURNING id
    `, tenantID, p.EmployeeID, nullIfEmpty(p.SiteID), p.Month, p.DaysPresent, p.TotalDaysInMonth,
			p.BasicSalary, p.HRA, p.IncentiveAllowance, p.OvertimeAmount, p.GrossSalary,
			p.PFDeduction, p.ESIDeduction, p.ProfessionalTax, p.AdvanceDeduction, p.WelfareDeduction,
			p.HealthInsurance, p.OtherDeductions, p.TotalDeductions, p.NetSalary, p.Remarks,
		).Scan(&id); err != nil {
			return err
		}

		saved, err = selectPayslip(ctx, tx, tenantID, id)
		return err
	})
	if errors.Is(err, apperr.ErrPayslipLocked) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Storage("save payslip", err)
	}
	return &saved, nil
}

func (s *Store) Get(ctx context.Context, tenantID, payslipID string) (*Payslip, error) {
	p, err := selectPayslip(ctx, s.DB, tenantID, payslipID)
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return nil, fmt.Errorf("payslip %s: %w", payslipID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("get payslip", err)
	}
	return &p, nil
}

// MarkPaid moves a PENDING payslip to PAID and stamps the payment date.
func (s *Store) MarkPaid(ctx context.Context, tenantID, payslipID, method string) (*Payslip, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    UPDATE payslips
    SET payment_status = 'PAID', payment_date = now(), payment_method = $1
    WHERE tenant_id = $2 AND id = $3 AND payment_status = 'PENDING'
    RETURNING id
  `, method, tenantID, payslipID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := s.Get(ctx, tenantID, payslipID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Paid() {
			return nil, fmt.Errorf("payslip %s: %w", payslipID, apperr.ErrAlreadyPaid)
		}
		return nil, apperr.Storage("mark payslip paid", err)
	}
	if db.IsInvalidText(err) {
		return nil, fmt.Errorf("payslip %s: %w", payslipID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("mark payslip paid", err)
	}
	return s.Get(ctx, tenantID, id)
}

func (s *Store) ListByMonth(ctx context.Context, tenantID, month, siteID string) ([]Payslip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+payslipColumns+`
    FROM payslips p
    JOIN employees e ON e.id = p.employee_id
    WHERE p.tenant_id = $1 AND p.month = $2 AND ($3 = '' OR p.site_id::text = $3)
    ORDER BY e.code
  `, tenantID, month, siteID)
	if err != nil {
		return nil, apperr.Storage("list payslips", err)
	}
	defer rows.Close()

	out := []Payslip{}
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, apperr.Storage("scan payslip", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list payslips", err)
	}
	return out, nil
}

func (s *Store) Totals(ctx context.Context, tenantID, month, siteID string) (MonthTotals, error) {
	out := MonthTotals{Month: month}
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COUNT(1) FILTER (WHERE payment_status = 'PAID'),
           COALESCE(SUM(gross_salary), 0),
           COALESCE(SUM(total_deductions), 0),
           COALESCE(SUM(net_salary), 0)
    FROM payslips
    WHERE tenant_id = $1 AND month = $2 AND ($3 = '' OR site_id::text = $3)
  `, tenantID, month, siteID).Scan(&out.Count, &out.Paid, &out.GrossSalary, &out.TotalDeductions, &out.NetSalary)
	if err != nil {
		return MonthTotals{}, apperr.Storage("payslip totals", err)
	}
	return out, nil
}

// DeleteByMonth removes the month's payslips, optionally only those still PENDING.
// A site filter matches the employee's current site.
func (s *Store) DeleteByMonth(ctx context.Context, tenantID, month, siteID string, pendingOnly bool) (int64, error) {
	cmd, err := s.DB.Exec(ctx, `
    DELETE FROM payslips p
    USING employees e
    WHERE e.id = p.employee_id
      AND p.tenant_id = $1
      AND p.month = $2
      AND ($3 = '' OR e.site_id::text = $3)
      AND (NOT $4 OR p.payment_status = 'PENDING')
  `, tenantID, month, siteID, pendingOnly)
	if err != nil {
		return 0, apperr.Storage("delete payslips", err)
	}
	return cmd.RowsAffected(), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
