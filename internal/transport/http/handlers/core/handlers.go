package corehandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/domain/core"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
	"sitehrm/internal/transport/http/shared"
)

type Service interface {
	CreateEmployee(ctx context.Context, tenantID string, emp core.Employee) (*core.Employee, error)
	UpdateEmployeeStatus(ctx context.Context, tenantID, employeeID, status string) error
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*core.Employee, error)
	ListEmployees(ctx context.Context, tenantID string, filter core.EmployeeFilter) ([]core.Employee, error)
	CreateSite(ctx context.Context, tenantID string, site core.Site) (*core.Site, error)
	ListSites(ctx context.Context, tenantID string) ([]core.Site, error)
	GetSite(ctx context.Context, tenantID, siteID string) (*core.Site, error)
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, auditSvc shared.AuditRecorder, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Perms: perms}
}

type employeePayload struct {
	Code        string `json:"employeeCode"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Designation string `json:"designation"`
	SiteID      string `json:"siteId"`
	Status      string `json:"status"`
	BankAccount string `json:"bankAccount"`
	BankIFSC    string `json:"bankIfsc"`
}

type statusPayload struct {
	Status string `json:"status"`
}

type sitePayload struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ClientName string `json:"clientName"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/{employeeID}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Put("/{employeeID}/status", h.handleEmployeeStatus)
	})
	r.Route("/sites", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/", h.handleListSites)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/", h.handleCreateSite)
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/{siteID}", h.handleGetSite)
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]string{
		"id":       user.UserID,
		"tenantId": user.TenantID,
		"roleId":   user.RoleID,
		"role":     user.RoleName,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	filter := core.EmployeeFilter{
		SiteID: r.URL.Query().Get("siteId"),
		Status: strings.ToUpper(r.URL.Query().Get("status")),
	}
	employees, err := h.Service.ListEmployees(r.Context(), user.TenantID, filter)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	for i := range employees {
		core.FilterEmployeeFields(&employees[i], user)
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	core.FilterEmployeeFields(emp, user)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload employeePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Required("employeeCode", payload.Code, "is required")
	validator.Required("firstName", payload.FirstName, "is required")
	status := validator.Enum("status", payload.Status, core.EmployeeStatuses, "is not a supported status")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), user.TenantID, core.Employee{
		Code:        payload.Code,
		FirstName:   payload.FirstName,
		LastName:    strings.TrimSpace(payload.LastName),
		Designation: strings.TrimSpace(payload.Designation),
		SiteID:      strings.TrimSpace(payload.SiteID),
		Status:      status,
		BankAccount: strings.TrimSpace(payload.BankAccount),
		BankIFSC:    strings.TrimSpace(payload.BankIFSC),
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionEmployeeCreate, "employee", emp.ID, nil, map[string]string{
		"employeeCode": emp.Code,
		"siteId":       emp.SiteID,
	})
	core.FilterEmployeeFields(emp, user)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload statusPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	status := strings.ToUpper(strings.TrimSpace(payload.Status))
	if err := h.Service.UpdateEmployeeStatus(r.Context(), user.TenantID, employeeID, status); err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionEmployeeStatus, "employee", employeeID, nil, map[string]string{"status": status})
	api.Success(w, map[string]string{"id": employeeID, "status": status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	sites, err := h.Service.ListSites(r.Context(), user.TenantID)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sites, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	site, err := h.Service.GetSite(r.Context(), user.TenantID, chi.URLParam(r, "siteID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, site, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload sitePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Required("code", payload.Code, "is required")
	validator.Required("name", payload.Name, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	site, err := h.Service.CreateSite(r.Context(), user.TenantID, core.Site{
		Code:       payload.Code,
		Name:       payload.Name,
		ClientName: strings.TrimSpace(payload.ClientName),
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionSiteCreate, "site", site.ID, nil, site)
	api.Created(w, site, middleware.GetRequestID(r.Context()))
}
