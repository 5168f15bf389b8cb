package salary

import "context"

type StoreAPI interface {
	Create(ctx context.Context, tenantID, employeeID string, fields Fields) (*Structure, error)
	Update(ctx context.Context, tenantID, salaryID string, fields Fields) (*Structure, error)
	Deactivate(ctx context.Context, tenantID, salaryID string) error
	Get(ctx context.Context, tenantID, salaryID string) (*Structure, error)
	GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*Structure, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]Structure, error)
	EmployeesWithoutActive(ctx context.Context, tenantID, siteID string) ([]MissingStructure, error)
}
