package attendancehandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitehrm/internal/domain/attendance"
	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
	"sitehrm/internal/transport/http/shared"
)

type Service interface {
	Save(ctx context.Context, tenantID, month string, entries []attendance.Entry) (attendance.SaveResult, error)
	FinalizeMonth(ctx context.Context, tenantID, month string) (int, error)
	GetByMonth(ctx context.Context, tenantID, month string) ([]attendance.Record, error)
	GetByEmployee(ctx context.Context, tenantID, employeeID, from, to string) ([]attendance.Record, error)
	MonthSummary(ctx context.Context, tenantID, month string) (attendance.MonthSummary, error)
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
	DB      *pgxpool.Pool
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, auditSvc shared.AuditRecorder, db *pgxpool.Pool, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditSvc, DB: db, Perms: perms}
}

type savePayload struct {
	Month   string             `json:"month"`
	Records []attendance.Entry `json:"records"`
}

type finalizePayload struct {
	Month string `json:"month"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/save", h.handleSave)
		r.With(middleware.RequirePermission(auth.PermAttendanceFinalize, h.Perms)).Post("/finalize", h.handleFinalize)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/month/{month}", h.handleMonth)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/month/{month}/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/employee/{employeeID}", h.handleEmployee)
	})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload savePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Required("month", payload.Month, "is required")
	if len(payload.Records) == 0 {
		validator.Add("records", "must contain at least one entry")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Save(r.Context(), user.TenantID, strings.TrimSpace(payload.Month), payload.Records)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAttendanceSave, "attendance_month", result.Month, nil, map[string]any{
		"saved":    len(result.Saved),
		"rejected": len(result.Rejected),
	})
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload finalizePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	month, err := attendance.ParseMonth(strings.TrimSpace(payload.Month))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	idem, replayed := shared.Replay(w, r, h.DB, user, "attendance.finalize", []byte(month.String()))
	if replayed {
		return
	}

	count, err := h.Service.FinalizeMonth(r.Context(), user.TenantID, month.String())
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	response := map[string]any{"month": month.String(), "finalized": count}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAttendanceFinalize, "attendance_month", month.String(), nil, response)
	idem.Save(r, response)
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	records, err := h.Service.GetByMonth(r.Context(), user.TenantID, chi.URLParam(r, "month"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.MonthSummary(r.Context(), user.TenantID, chi.URLParam(r, "month"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	records, err := h.Service.GetByEmployee(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"), query.Get("from"), query.Get("to"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}
