package attendance

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

const recordColumns = `a.id, a.employee_id, e.code, a.month, a.days_present, a.total_days_in_month,
           a.remarks, a.status, a.finalized_at, a.created_at, a.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.EmployeeCode, &rec.Month, &rec.DaysPresent, &rec.TotalDaysInMonth,
		&rec.Remarks, &rec.Status, &rec.FinalizedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *Store) KnownEmployees(ctx context.Context, tenantID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id
    FROM employees
    WHERE tenant_id = $1 AND id::text = ANY($2)
  `, tenantID, ids)
	if err != nil {
		return nil, apperr.Storage("known employees", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Storage("scan employee id", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("known employees", err)
	}
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, tenantID string, month Month, entries []Entry) ([]Record, []string, error) {
	var saved []Record
	var locked []string
	err := db.WithTransaction(ctx, s.DB, func(tx pgx.Tx) error {
		for _, entry := range entries {
			var id string
			err := tx.QueryRow(ctx, `
        INSERT INTO attendance_records (tenant_id, employee_id, month, days_present, total_days_in_month, remarks, status)
        VALUES ($1,$2,$3,$4,$5,$6,'DRAFT')
        ON CONFLICT (tenant_id, employee_id, month)
        DO UPDATE SET days_present = EXCLUDED.days_present,
                      total_days_in_month = EXCLUDED.total_days_in_month,
                      remarks = EXCLUDED.remarks,
                      updated_at = now()
        WHERE attendance_records.status = 'DRAFT'
        RETURNING id
      `, tenantID, entry.EmployeeID, month.String(), entry.DaysPresent, month.Days(), entry.Remarks).Scan(&id)
			if errors.Is(err, pgx.ErrNoRows) {
				locked = append(locked, entry.EmployeeID)
				continue
			}
			if err != nil {
				return err
			}
			rec, err := scanRecord(tx.QueryRow(ctx, `
        SELECT `+recordColumns+`
        FROM attendance_records a
        JOIN employees e ON e.id = a.employee_id
        WHERE a.id = $1
      `, id))
			if err != nil {
				return err
			}
			saved = append(saved, rec)
		}
		return nil
	})
	if err != nil {
		return nil, nil, apperr.Storage("save attendance", err)
	}
	return saved, locked, nil
}

func (s *Store) FinalizeMonth(ctx context.Context, tenantID string, month Month) (int, error) {
	var count int
	err := db.WithTransaction(ctx, s.DB, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
      UPDATE attendance_records
      SET status = 'FINALIZED', finalized_at = now(), updated_at = now()
      WHERE tenant_id = $1 AND month = $2 AND status = 'DRAFT'
    `, tenantID, month.String())
		if err != nil {
			return err
		}
		count = int(cmd.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, apperr.Storage("finalize attendance", err)
	}
	return count, nil
}

func (s *Store) Get(ctx context.Context, tenantID, employeeID string, month Month) (*Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.tenant_id = $1 AND a.employee_id = $2 AND a.month = $3
  `, tenantID, employeeID, month.String()))
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("get attendance", err)
	}
	return &rec, nil
}

func (s *Store) ListByMonth(ctx context.Context, tenantID string, month Month) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.tenant_id = $1 AND a.month = $2
    ORDER BY e.code
  `, tenantID, month.String())
	if err != nil {
		return nil, apperr.Storage("list attendance", err)
	}
	return collectRecords(rows)
}

func (s *Store) ListByEmployee(ctx context.Context, tenantID, employeeID string, from, to Month) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.tenant_id = $1 AND a.employee_id = $2 AND a.month BETWEEN $3 AND $4
    ORDER BY a.month
  `, tenantID, employeeID, from.String(), to.String())
	if err != nil {
		err = apperr.Storage("list employee attendance", err)
	} else {
		var records []Record
		if records, err = collectRecords(rows); err == nil {
			return records, nil
		}
	}
	if db.IsInvalidText(err) {
		return nil, fmt.Errorf("employee %s: %w", employeeID, apperr.ErrNotFound)
	}
	return nil, err
}

func (s *Store) Summary(ctx context.Context, tenantID string, month Month) (MonthSummary, error) {
	out := MonthSummary{Month: month.String(), TotalDaysInMonth: month.Days()}
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FILTER (WHERE status = 'DRAFT'),
           COUNT(1) FILTER (WHERE status = 'FINALIZED')
    FROM attendance_records
    WHERE tenant_id = $1 AND month = $2
  `, tenantID, month.String()).Scan(&out.Draft, &out.Finalized)
	if err != nil {
		return MonthSummary{}, apperr.Storage("attendance summary", err)
	}
	out.Locked = out.Finalized > 0 && out.Draft == 0
	return out, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.Storage("scan attendance", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list attendance", err)
	}
	return out, nil
}
