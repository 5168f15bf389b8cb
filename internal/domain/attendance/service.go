package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"sitehrm/internal/domain/apperr"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Save upserts the batch for one month. A malformed month fails the whole call;
// a bad entry is rejected on its own and the rest of the batch is written.
func (s *Service) Save(ctx context.Context, tenantID, month string, entries []Entry) (SaveResult, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return SaveResult{}, err
	}
	result := SaveResult{Month: m.String(), Saved: []Record{}, Rejected: []Rejection{}}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		id := canonicalID(entry.EmployeeID)
		if _, err := uuid.Parse(id); err == nil {
			ids = append(ids, id)
		}
	}
	known, err := s.store.KnownEmployees(ctx, tenantID, ids)
	if err != nil {
		return SaveResult{}, err
	}

	seen := map[string]int{}
	accepted := make([]Entry, 0, len(entries))
	for i, entry := range entries {
		entry.EmployeeID = canonicalID(entry.EmployeeID)
		entry.Remarks = strings.TrimSpace(entry.Remarks)
		switch {
		case !known[entry.EmployeeID]:
			result.Rejected = append(result.Rejected, reject(i, entry.EmployeeID, apperr.Invalid("employee %q does not exist", entry.EmployeeID)))
			continue
		case entry.DaysPresent < 0:
			result.Rejected = append(result.Rejected, reject(i, entry.EmployeeID, apperr.Invalid("daysPresent must not be negative")))
			continue
		}
		if prev, dup := seen[entry.EmployeeID]; dup {
			result.Rejected = append(result.Rejected, reject(i, entry.EmployeeID, apperr.Invalid("duplicate of entry %d", prev)))
			continue
		}
		seen[entry.EmployeeID] = i
		if entry.DaysPresent > m.Days() {
			slog.Warn("attendance over-count saved", "tenantId", tenantID, "employeeId", entry.EmployeeID, "month", m.String(), "daysPresent", entry.DaysPresent)
		}
		accepted = append(accepted, entry)
	}
	if len(accepted) == 0 {
		return result, nil
	}

	saved, locked, err := s.store.Upsert(ctx, tenantID, m, accepted)
	if err != nil {
		return SaveResult{}, err
	}
	result.Saved = append(result.Saved, saved...)
	for _, employeeID := range locked {
		result.Rejected = append(result.Rejected, reject(seen[employeeID], employeeID, fmt.Errorf("%s: %w", m.String(), apperr.ErrAlreadyFinalized)))
	}
	return result, nil
}

// canonicalID lowercases a uuid into the form the store reports; other values are only trimmed.
func canonicalID(value string) string {
	value = strings.TrimSpace(value)
	if id, err := uuid.Parse(value); err == nil {
		return id.String()
	}
	return value
}

func reject(index int, employeeID string, err error) Rejection {
	return Rejection{Index: index, EmployeeID: employeeID, Code: apperr.Code(err), Reason: err.Error()}
}

// FinalizeMonth locks every DRAFT record of the month in one transaction.
func (s *Service) FinalizeMonth(ctx context.Context, tenantID, month string) (int, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	count, err := s.store.FinalizeMonth(ctx, tenantID, m)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("%s has no draft records: %w", m.String(), apperr.ErrAlreadyFinalized)
	}
	return count, nil
}

func (s *Service) GetByMonth(ctx context.Context, tenantID, month string) ([]Record, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	return s.store.ListByMonth(ctx, tenantID, m)
}

// GetByEmployee lists an employee's records between two months, both inclusive.
func (s *Service) GetByEmployee(ctx context.Context, tenantID, employeeID, from, to string) ([]Record, error) {
	fromMonth, err := ParseMonth(from)
	if err != nil {
		return nil, err
	}
	toMonth, err := ParseMonth(to)
	if err != nil {
		return nil, err
	}
	if toMonth.Start().Before(fromMonth.Start()) {
		return nil, apperr.Invalid("to %s is before from %s", toMonth, fromMonth)
	}
	return s.store.ListByEmployee(ctx, tenantID, employeeID, fromMonth, toMonth)
}

// Get returns nil without error when the employee has no record for the month.
func (s *Service) Get(ctx context.Context, tenantID, employeeID string, month Month) (*Record, error) {
	return s.store.Get(ctx, tenantID, employeeID, month)
}

func (s *Service) MonthSummary(ctx context.Context, tenantID, month string) (MonthSummary, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return MonthSummary{}, err
	}
	return s.store.Summary(ctx, tenantID, m)
}
