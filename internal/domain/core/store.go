package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitehrm/internal/domain/apperr"
	cryptoutil "sitehrm/internal/platform/crypto"
	"sitehrm/internal/platform/db"
)

type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

const employeeColumns = `id, code, first_name, last_name, designation,
           COALESCE(site_id::text, ''), status,
           COALESCE(bank_account, ''), bank_account_enc, bank_ifsc,
           created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanEmployee(row scanner) (Employee, error) {
	var emp Employee
	var bankPlain string
	var bankEnc []byte
	err := row.Scan(
		&emp.ID, &emp.Code, &emp.FirstName, &emp.LastName, &emp.Designation,
		&emp.SiteID, &emp.Status,
		&bankPlain, &bankEnc, &emp.BankIFSC,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return Employee{}, err
	}
	emp.BankAccount = decryptStringFallback(s.Crypto, bankEnc, bankPlain)
	return emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return nil, fmt.Errorf("employee %s: %w", employeeID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("get employee", err)
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error) {
	query := `
    SELECT ` + employeeColumns + `
    FROM employees
    WHERE tenant_id = $1`
	args := []any{tenantID}
	if filter.SiteID != "" {
		args = append(args, filter.SiteID)
		query += fmt.Sprintf(" AND site_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY code"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("list employees", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, apperr.Storage("scan employee", err)
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list employees", err)
	}
	return out, nil
}

// ListActiveEmployees returns the payroll population of the tenant, optionally one site only.
func (s *Store) ListActiveEmployees(ctx context.Context, tenantID, siteID string) ([]Employee, error) {
	return s.ListEmployees(ctx, tenantID, EmployeeFilter{SiteID: siteID, Status: EmployeeStatusActive})
}

func (s *Store) EmployeesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]Employee, error) {
	out := make(map[string]Employee, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND id::text = ANY($2)
  `, tenantID, ids)
	if err != nil {
		return nil, apperr.Storage("employees by id", err)
	}
	defer rows.Close()
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, apperr.Storage("scan employee", err)
		}
		out[emp.ID] = emp
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("employees by id", err)
	}
	return out, nil
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (*Employee, error) {
	bankEnc := encryptStringOrNil(s.Crypto, emp.BankAccount)
	var bankPlain any = emp.BankAccount
	if s.Crypto != nil && s.Crypto.Configured() {
		bankPlain = nil
	}
	if emp.Status == "" {
		emp.Status = EmployeeStatusActive
	}
	row := s.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, code, first_name, last_name, designation, site_id, status,
      bank_account, bank_account_enc, bank_ifsc)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING `+employeeColumns,
		tenantID, emp.Code, emp.FirstName, emp.LastName, emp.Designation, nullIfEmpty(emp.SiteID), emp.Status,
		bankPlain, bankEnc, emp.BankIFSC,
	)
	created, err := s.scanEmployee(row)
	if db.IsUniqueViolation(err) {
		return nil, apperr.Invalid("employee code %q already exists", emp.Code)
	}
	if db.IsForeignKeyViolation(err) {
		return nil, apperr.Invalid("site %s does not exist", emp.SiteID)
	}
	if err != nil {
		return nil, apperr.Storage("create employee", err)
	}
	return &created, nil
}

func (s *Store) UpdateEmployeeStatus(ctx context.Context, tenantID, employeeID, status string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET status = $1, updated_at = now()
    WHERE tenant_id = $2 AND id = $3
  `, status, tenantID, employeeID)
	if db.IsInvalidText(err) {
		return fmt.Errorf("employee %s: %w", employeeID, apperr.ErrNotFound)
	}
	if err != nil {
		return apperr.Storage("update employee status", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("employee %s: %w", employeeID, apperr.ErrNotFound)
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func encryptStringOrNil(crypto *cryptoutil.Service, value string) []byte {
	if crypto == nil || !crypto.Configured() {
		return nil
	}
	enc, _ := crypto.EncryptString(value)
	return enc
}

func decryptStringFallback(crypto *cryptoutil.Service, encrypted []byte, plain string) string {
	if crypto == nil || !crypto.Configured() || len(encrypted) == 0 {
		return plain
	}
	decrypted, err := crypto.DecryptString(encrypted)
	if err != nil {
		return plain
	}
	return decrypted
}
