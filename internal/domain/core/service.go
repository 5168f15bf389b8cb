package core

import (
	"context"
	"slices"
	"strings"

	"sitehrm/internal/domain/apperr"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (*Employee, error) {
	emp.Code = strings.TrimSpace(emp.Code)
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	if emp.Code == "" {
		return nil, apperr.Invalid("employeeCode is required")
	}
	if emp.FirstName == "" {
		return nil, apperr.Invalid("firstName is required")
	}
	if emp.Status != "" && !slices.Contains(EmployeeStatuses, emp.Status) {
		return nil, apperr.Invalid("status %q is not supported", emp.Status)
	}
	if emp.SiteID != "" {
		if _, err := s.store.GetSite(ctx, tenantID, emp.SiteID); err != nil {
			return nil, err
		}
	}
	return s.store.CreateEmployee(ctx, tenantID, emp)
}

func (s *Service) UpdateEmployeeStatus(ctx context.Context, tenantID, employeeID, status string) error {
	if !slices.Contains(EmployeeStatuses, status) {
		return apperr.Invalid("status %q is not supported", status)
	}
	return s.store.UpdateEmployeeStatus(ctx, tenantID, employeeID, status)
}

func (s *Service) GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error) {
	return s.store.GetEmployee(ctx, tenantID, employeeID)
}

func (s *Service) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, error) {
	return s.store.ListEmployees(ctx, tenantID, filter)
}

func (s *Service) CreateSite(ctx context.Context, tenantID string, site Site) (*Site, error) {
	site.Code = strings.TrimSpace(site.Code)
	site.Name = strings.TrimSpace(site.Name)
	if site.Code == "" || site.Name == "" {
		return nil, apperr.Invalid("site code and name are required")
	}
	return s.store.CreateSite(ctx, tenantID, site)
}

func (s *Service) ListSites(ctx context.Context, tenantID string) ([]Site, error) {
	return s.store.ListSites(ctx, tenantID)
}

func (s *Service) GetSite(ctx context.Context, tenantID, siteID string) (*Site, error) {
	return s.store.GetSite(ctx, tenantID, siteID)
}
