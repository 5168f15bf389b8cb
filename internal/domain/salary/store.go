package salary

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

const structureColumns = `s.id, s.employee_id, e.code,
           s.basic_salary, s.hra, s.incentive_allowance,
           s.pf_deduction, s.esi_deduction, s.professional_tax, s.mediclaim_deduction,
           s.advance_deduction, s.welfare_deduction, s.other_deductions, s.effective_from,
           s.gross_salary, s.total_deductions, s.net_salary, s.status, s.created_at, s.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanStructure(row scanner) (Structure, error) {
	var out Structure
	err := row.Scan(
		&out.ID, &out.EmployeeID, &out.EmployeeCode,
		&out.BasicSalary, &out.HRA, &out.IncentiveAllowance,
		&out.PFDeduction, &out.ESIDeduction, &out.ProfessionalTax, &out.MediclaimDeduction,
		&out.AdvanceDeduction, &out.WelfareDeduction, &out.OtherDeductions, &out.EffectiveFrom,
		&out.GrossSalary, &out.TotalDeductions, &out.NetSalary, &out.Status, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

func selectStructure(ctx context.Context, q db.Querier, tenantID, salaryID string) (Structure, error) {
	return scanStructure(q.QueryRow(ctx, `
    SELECT `+structureColumns+`
    FROM salary_structures s
    JOIN employees e ON e.id = s.employee_id
    WHERE s.tenant_id = $1 AND s.id = $2
  `, tenantID, salaryID))
}

// Create deactivates the employee's ACTIVE structure and inserts the new one in a single
// transaction. The employee row is locked so concurrent creates serialize.
func (s *Store) Create(ctx context.Context, tenantID, employeeID string, fields Fields) (*Structure, error) {
	var created Structure
	err := db.WithTransaction(ctx, s.DB, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `
      SELECT id FROM employees WHERE tenant_id = $1 AND id = $2 FOR UPDATE
    `, tenantID, employeeID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
			return apperr.Invalid("employee %s does not exist", employeeID)
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
      UPDATE salary_structures
      SET status = 'INACTIVE', updated_at = now()
      WHERE tenant_id = $1 AND employee_id = $2 AND status = 'ACTIVE'
    `, tenantID, employeeID); err != nil {
			return err
		}

		var id string
		if err := tx.QueryRow(ctx, `
      INSERT INTO salary_structures (tenant_id, employee_id, basic_salary, hra, incentive_allowance,
        pf_deduction, esi_deduction, professional_tax, mediclaim_deduction, advance_deduction,
        welfare_deduction, other_deductions, gross_salary, total_deductions, net_salary, effective_from, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,'ACTIVE')
      RETURNING id
    `, tenantID, employeeID, fields.BasicSalary, fields.HRA, fields.IncentiveAllowance,
			fields.PFDeduction, fields.ESIDeduction, fields.ProfessionalTax, fields.MediclaimDeduction, fields.AdvanceDeduction,
			fields.WelfareDeduction, fields.OtherDeductions, fields.Gross(), fields.TotalDeductions(), fields.Net(), fields.EffectiveFrom,
		).Scan(&id); err != nil {
			return err
		}

		created, err = selectStructure(ctx, tx, tenantID, id)
		return err
	})
	if errors.Is(err, apperr.ErrInvalidInput) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Storage("create salary structure", err)
	}
	return &created, nil
}

// Update rewrites the amounts and derived totals of one structure. Status is unchanged.
func (s *Store) Update(ctx context.Context, tenantID, salaryID string, fields Fields) (*Structure, error) {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE salary_structures
    SET basic_salary = $1, hra = $2, incentive_allowance = $3,
        pf_deduction = $4, esi_deduction = $5, professional_tax = $6, mediclaim_deduction = $7,
        advance_deduction = $8, welfare_deduction = $9, other_deductions = $10,
        gross_salary = $11, total_deductions = $12, net_salary = $13, effective_from = $14,
        updated_at = now()
    WHERE tenant_id = $15 AND id = $16
  `, fields.BasicSalary, fields.HRA, fields.IncentiveAllowance,
		fields.PFDeduction, fields.ESIDeduction, fields.ProfessionalTax, fields.MediclaimDeduction,
		fields.AdvanceDeduction, fields.WelfareDeduction, fields.OtherDeductions,
		fields.Gross(), fields.TotalDeductions(), fields.Net(), fields.EffectiveFrom,
		tenantID, salaryID)
	if db.IsInvalidText(err) {
		return nil, fmt.Errorf("salary structure %s: %w", salaryID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("update salary structure", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, fmt.Errorf("salary structure %s: %w", salaryID, apperr.ErrNotFound)
	}
	return s.Get(ctx, tenantID, salaryID)
}

func (s *Store) Deactivate(ctx context.Context, tenantID, salaryID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE salary_structures
    SET status = 'INACTIVE', updated_at = now()
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, salaryID)
	if db.IsInvalidText(err) {
		return fmt.Errorf("salary structure %s: %w", salaryID, apperr.ErrNotFound)
	}
	if err != nil {
		return apperr.Storage("deactivate salary structure", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("salary structure %s: %w", salaryID, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, tenantID, salaryID string) (*Structure, error) {
	out, err := selectStructure(ctx, s.DB, tenantID, salaryID)
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return nil, fmt.Errorf("salary structure %s: %w", salaryID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("get salary structure", err)
	}
	return &out, nil
}

// GetActiveByEmployee returns nil without error when the employee has no ACTIVE structure.
func (s *Store) GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*Structure, error) {
	out, err := scanStructure(s.DB.QueryRow(ctx, `
    SELECT `+structureColumns+`
    FROM salary_structures s
    JOIN employees e ON e.id = s.employee_id
    WHERE s.tenant_id = $1 AND s.employee_id = $2 AND s.status = 'ACTIVE'
  `, tenantID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("get active salary structure", err)
	}
	return &out, nil
}

func (s *Store) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]Structure, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+structureColumns+`
    FROM salary_structures s
    JOIN employees e ON e.id = s.employee_id
    WHERE s.tenant_id = $1 AND s.employee_id = $2
    ORDER BY s.created_at DESC
  `, tenantID, employeeID)
	if err != nil {
		return nil, apperr.Storage("list salary structures", err)
	}
	defer rows.Close()

	var out []Structure
	for rows.Next() {
		item, err := scanStructure(rows)
		if err != nil {
			return nil, apperr.Storage("scan salary structure", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list salary structures", err)
	}
	return out, nil
}

func (s *Store) EmployeesWithoutActive(ctx context.Context, tenantID, siteID string) ([]MissingStructure, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.code, trim(e.first_name || ' ' || e.last_name), COALESCE(e.site_id::text, '')
    FROM employees e
    WHERE e.tenant_id = $1
      AND e.status = 'ACTIVE'
      AND ($2 = '' OR e.site_id::text = $2)
      AND NOT EXISTS (
        SELECT 1 FROM salary_structures s
        WHERE s.tenant_id = e.tenant_id AND s.employee_id = e.id AND s.status = 'ACTIVE'
      )
    ORDER BY e.code
  `, tenantID, siteID)
	if err != nil {
		return nil, apperr.Storage("employees without salary structure", err)
	}
	defer rows.Close()

	out := []MissingStructure{}
	for rows.Next() {
		var item MissingStructure
		if err := rows.Scan(&item.EmployeeID, &item.EmployeeCode, &item.EmployeeName, &item.SiteID); err != nil {
			return nil, apperr.Storage("scan employee", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("employees without salary structure", err)
	}
	return out, nil
}
