package salaryhandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/domain/salary"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
	"sitehrm/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, tenantID, employeeID string, fields salary.Fields) (*salary.Structure, error)
	Update(ctx context.Context, tenantID, salaryID string, fields salary.Fields) (*salary.Structure, error)
	Deactivate(ctx context.Context, tenantID, salaryID string) error
	Get(ctx context.Context, tenantID, salaryID string) (*salary.Structure, error)
	GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*salary.Structure, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]salary.Structure, error)
}

type Handler struct {
	Service             Service
	PT                  *salary.PTTable
	DefaultJurisdiction string
	Audit               shared.AuditRecorder
	Perms               middleware.PermissionStore
}

func NewHandler(service Service, pt *salary.PTTable, defaultJurisdiction string, auditSvc shared.AuditRecorder, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, PT: pt, DefaultJurisdiction: defaultJurisdiction, Audit: auditSvc, Perms: perms}
}

type structurePayload struct {
	EmployeeID         string          `json:"employeeId"`
	BasicSalary        decimal.Decimal `json:"basicSalary"`
	HRA                decimal.Decimal `json:"hra"`
	IncentiveAllowance decimal.Decimal `json:"incentiveAllowance"`
	PFDeduction        decimal.Decimal `json:"pfDeduction"`
	ESIDeduction       decimal.Decimal `json:"esiDeduction"`
	ProfessionalTax    decimal.Decimal `json:"professionalTax"`
	MediclaimDeduction decimal.Decimal `json:"mediclaimDeduction"`
	AdvanceDeduction   decimal.Decimal `json:"advanceDeduction"`
	WelfareDeduction   decimal.Decimal `json:"welfareDeduction"`
	OtherDeductions    decimal.Decimal `json:"otherDeductions"`
	EffectiveFrom      string          `json:"effectiveFrom"`
	ApplyStatutory     bool            `json:"applyStatutory"`
	Jurisdiction       string          `json:"jurisdiction"`
}

type previewPayload struct {
	BasicSalary  decimal.Decimal `json:"basic"`
	GrossSalary  decimal.Decimal `json:"gross"`
	Jurisdiction string          `json:"jurisdiction"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/salaries", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Post("/statutory/preview", h.handlePreview)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/employee/{employeeID}", h.handleByEmployee)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/{salaryID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Put("/{salaryID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Post("/{salaryID}/deactivate", h.handleDeactivate)
	})
}

// fields validates the payload shape and applies statutory PF/PT when asked.
func (h *Handler) fields(w http.ResponseWriter, r *http.Request, payload structurePayload, requireEmployee bool) (salary.Fields, bool) {
	validator := shared.NewValidator()
	if requireEmployee {
		validator.Required("employeeId", payload.EmployeeID, "is required")
	}
	effectiveFrom, _ := validator.Date("effectiveFrom", payload.EffectiveFrom)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return salary.Fields{}, false
	}

	fields := salary.Fields{
		BasicSalary:        payload.BasicSalary,
		HRA:                payload.HRA,
		IncentiveAllowance: payload.IncentiveAllowance,
		PFDeduction:        payload.PFDeduction,
		ESIDeduction:       payload.ESIDeduction,
		ProfessionalTax:    payload.ProfessionalTax,
		MediclaimDeduction: payload.MediclaimDeduction,
		AdvanceDeduction:   payload.AdvanceDeduction,
		WelfareDeduction:   payload.WelfareDeduction,
		OtherDeductions:    payload.OtherDeductions,
		EffectiveFrom:      effectiveFrom,
	}
	if payload.ApplyStatutory && h.PT != nil {
		applied, err := h.PT.ApplyStatutory(fields, h.jurisdiction(payload.Jurisdiction))
		if err != nil {
			api.FailError(w, err, middleware.GetRequestID(r.Context()))
			return salary.Fields{}, false
		}
		fields = applied
	}
	return fields, true
}

func (h *Handler) jurisdiction(value string) string {
	if strings.TrimSpace(value) == "" {
		return h.DefaultJurisdiction
	}
	return value
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload structurePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	fields, ok := h.fields(w, r, payload, true)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), user.TenantID, strings.TrimSpace(payload.EmployeeID), fields)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionSalaryCreate, "salary_structure", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	salaryID := chi.URLParam(r, "salaryID")
	var payload structurePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	fields, ok := h.fields(w, r, payload, false)
	if !ok {
		return
	}

	before, err := h.Service.Get(r.Context(), user.TenantID, salaryID)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	updated, err := h.Service.Update(r.Context(), user.TenantID, salaryID, fields)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionSalaryUpdate, "salary_structure", updated.ID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	salaryID := chi.URLParam(r, "salaryID")
	if err := h.Service.Deactivate(r.Context(), user.TenantID, salaryID); err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionSalaryDeactivate, "salary_structure", salaryID, nil, map[string]string{"status": salary.StatusInactive})
	api.Success(w, map[string]string{"id": salaryID, "status": salary.StatusInactive}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	structure, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "salaryID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, structure, middleware.GetRequestID(r.Context()))
}

// handleByEmployee returns the ACTIVE structure, or every structure with ?history=true.
func (h *Handler) handleByEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if r.URL.Query().Get("history") == "true" {
		rows, err := h.Service.ListByEmployee(r.Context(), user.TenantID, employeeID)
		if err != nil {
			api.FailError(w, err, middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, rows, middleware.GetRequestID(r.Context()))
		return
	}

	active, err := h.Service.GetActiveByEmployee(r.Context(), user.TenantID, employeeID)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if active == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee has no active salary structure", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, active, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.RequireUser(w, r); !ok {
		return
	}
	var payload previewPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if h.PT == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "statutory table not configured", middleware.GetRequestID(r.Context()))
		return
	}
	preview, err := h.PT.Preview(h.jurisdiction(payload.Jurisdiction), payload.BasicSalary, payload.GrossSalary)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, preview, middleware.GetRequestID(r.Context()))
}
