package attendance

import "context"

type StoreAPI interface {
	KnownEmployees(ctx context.Context, tenantID string, ids []string) (map[string]bool, error)
	// Upsert writes each entry while its row is still DRAFT. Entries whose row is
	// already FINALIZED are returned as locked and left untouched.
	Upsert(ctx context.Context, tenantID string, month Month, entries []Entry) (saved []Record, locked []string, err error)
	FinalizeMonth(ctx context.Context, tenantID string, month Month) (int, error)
	Get(ctx context.Context, tenantID, employeeID string, month Month) (*Record, error)
	ListByMonth(ctx context.Context, tenantID string, month Month) ([]Record, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string, from, to Month) ([]Record, error)
	Summary(ctx context.Context, tenantID string, month Month) (MonthSummary, error)
}
