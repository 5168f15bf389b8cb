package salary

import (
	"context"

	"sitehrm/internal/domain/apperr"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Create stores a new ACTIVE structure. Totals are derived from fields as given;
// PF and PT are never recomputed here.
func (s *Service) Create(ctx context.Context, tenantID, employeeID string, fields Fields) (*Structure, error) {
	if employeeID == "" {
		return nil, apperr.Invalid("employeeId is required")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, tenantID, employeeID, fields)
}

func (s *Service) Update(ctx context.Context, tenantID, salaryID string, fields Fields) (*Structure, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, tenantID, salaryID, fields)
}

func (s *Service) Deactivate(ctx context.Context, tenantID, salaryID string) error {
	return s.store.Deactivate(ctx, tenantID, salaryID)
}

func (s *Service) Get(ctx context.Context, tenantID, salaryID string) (*Structure, error) {
	return s.store.Get(ctx, tenantID, salaryID)
}

func (s *Service) GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*Structure, error) {
	return s.store.GetActiveByEmployee(ctx, tenantID, employeeID)
}

func (s *Service) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]Structure, error) {
	return s.store.ListByEmployee(ctx, tenantID, employeeID)
}

func (s *Service) EmployeesWithoutActive(ctx context.Context, tenantID, siteID string) ([]MissingStructure, error) {
	return s.store.EmployeesWithoutActive(ctx, tenantID, siteID)
}
