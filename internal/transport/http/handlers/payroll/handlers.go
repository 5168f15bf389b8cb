package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/audit"
	"sitehrm/internal/domain/auth"
	"sitehrm/internal/domain/export"
	"sitehrm/internal/domain/payroll"
	"sitehrm/internal/domain/salary"
	"sitehrm/internal/platform/jobs"
	"sitehrm/internal/transport/http/api"
	"sitehrm/internal/transport/http/middleware"
	"sitehrm/internal/transport/http/shared"
)

type Payslips interface {
	Generate(ctx context.Context, tenantID string, req payroll.GenerateRequest) (*payroll.Payslip, error)
	UpdatePaymentStatus(ctx context.Context, tenantID, payslipID string, update payroll.PaymentUpdate) (*payroll.Payslip, error)
	Get(ctx context.Context, tenantID, payslipID string) (*payroll.Payslip, error)
	ListByMonth(ctx context.Context, tenantID, month, siteID string) ([]payroll.Payslip, error)
	MonthTotals(ctx context.Context, tenantID, month, siteID string) (payroll.MonthTotals, error)
}

type Bulk interface {
	RunMonthlyPayroll(ctx context.Context, tenantID string, req payroll.BulkRequest, progress func(payroll.Progress)) (payroll.BatchResult, error)
	Preflight(ctx context.Context, tenantID, siteID string) ([]salary.MissingStructure, error)
}

type RunHistory interface {
	ListRuns(ctx context.Context, tenantID, jobType string, limit int) ([]jobs.Run, error)
}

// Queue runs work on the background job worker. *jobs.Service satisfies it.
type Queue interface {
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool
}

type Handler struct {
	Payslips  Payslips
	Bulk      Bulk
	Directory export.Directory
	Runs      RunHistory
	Queue     Queue
	Audit     shared.AuditRecorder
	DB        *pgxpool.Pool
	Perms     middleware.PermissionStore
	Now       func() time.Time
}

func NewHandler(payslips Payslips, bulk Bulk, directory export.Directory, runs RunHistory, auditSvc shared.AuditRecorder, db *pgxpool.Pool, perms middleware.PermissionStore) *Handler {
	return &Handler{
		Payslips:  payslips,
		Bulk:      bulk,
		Directory: directory,
		Runs:      runs,
		Audit:     auditSvc,
		DB:        db,
		Perms:     perms,
		Now:       time.Now,
	}
}

type generatePayload struct {
	EmployeeID       string           `json:"employeeId"`
	Month            monthField       `json:"month"`
	Year             int              `json:"year"`
	AdvanceDeduction *decimal.Decimal `json:"advanceDeduction"`
	Remarks          string           `json:"remarks"`
}

type bulkPayload struct {
	Month            monthField                 `json:"month"`
	Year             int                        `json:"year"`
	SiteID           string                     `json:"siteId"`
	Regenerate       bool                       `json:"regenerate"`
	AdvanceOverrides map[string]decimal.Decimal `json:"advanceOverrides"`
	Async            bool                       `json:"async"`
}

type paymentPayload struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollGenerate, h.Perms)).Post("/generate", h.handleGenerate)
		r.With(middleware.RequirePermission(auth.PermPayrollGenerate, h.Perms)).Post("/generate/bulk", h.handleBulk)
		r.With(middleware.RequirePermission(auth.PermPayrollGenerate, h.Perms)).Get("/preflight", h.handlePreflight)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs", h.handleRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/month/{month}", h.handleMonth)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/month/{month}/totals", h.handleTotals)
		r.With(middleware.RequirePermission(auth.PermPayrollExport, h.Perms)).Get("/month/{month}/export.xlsx", h.handleWorkbook)
		r.With(middleware.RequirePermission(auth.PermPayrollExport, h.Perms)).Get("/month/{month}/sites/{siteID}/pdf", h.handleSiteRegister)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{payslipID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{payslipID}/pdf", h.handlePayslipPDF)
		r.With(middleware.RequirePermission(auth.PermPayrollPay, h.Perms)).Put("/{payslipID}/payment-status", h.handlePaymentStatus)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload generatePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	month, err := payload.Month.resolve(payload.Year)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	payslip, err := h.Payslips.Generate(r.Context(), user.TenantID, payroll.GenerateRequest{
		EmployeeID:       payload.EmployeeID,
		Month:            int(month.Month),
		Year:             month.Year,
		AdvanceDeduction: payload.AdvanceDeduction,
		Remarks:          payload.Remarks,
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayslipGenerate, "payslip", payslip.ID, nil, payslip)
	api.Success(w, payslip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	var payload bulkPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	month, err := payload.Month.resolve(payload.Year)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	idem, replayed := shared.Replay(w, r, h.DB, user, "payslips.generate.bulk", body)
	if replayed {
		return
	}

	req := payroll.BulkRequest{
		Month:            int(month.Month),
		Year:             month.Year,
		SiteID:           strings.TrimSpace(payload.SiteID),
		Regenerate:       payload.Regenerate,
		AdvanceOverrides: payload.AdvanceOverrides,
	}
	if payload.Async {
		h.enqueueBulk(w, r, user, req, month.String(), idem)
		return
	}

	result, err := h.Bulk.RunMonthlyPayroll(r.Context(), user.TenantID, req, func(p payroll.Progress) {
		slog.Debug("bulk payroll progress", "tenantId", user.TenantID, "done", p.Done, "total", p.Total, "employeeCode", p.EmployeeCode)
	})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollBulk, "payroll_month", result.Month, nil, map[string]any{
		"siteId":     result.SiteID,
		"total":      result.Total,
		"succeeded":  len(result.Successes),
		"failed":     len(result.Failures),
		"aborted":    result.Aborted,
		"regenerate": req.Regenerate,
	})
	if !result.Aborted {
		idem.Save(r, result)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) enqueueBulk(w http.ResponseWriter, r *http.Request, user auth.UserContext, req payroll.BulkRequest, month string, idem *shared.Idempotent) {
	if h.Queue == nil {
		api.Fail(w, http.StatusServiceUnavailable, "queue_unavailable", "background jobs are not available", middleware.GetRequestID(r.Context()))
		return
	}
	tenantID := user.TenantID
	queued := h.Queue.Enqueue(payroll.JobBulkPayrollQueued, tenantID, func(ctx context.Context) (any, error) {
		result, err := h.Bulk.RunMonthlyPayroll(ctx, tenantID, req, nil)
		if err != nil {
			return nil, err
		}
		return map[string]any{"month": result.Month, "succeeded": len(result.Successes), "failed": len(result.Failures), "aborted": result.Aborted}, nil
	})
	if !queued {
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", "background job queue is full, retry later", middleware.GetRequestID(r.Context()))
		return
	}

	response := map[string]any{"status": "queued", "month": month, "siteId": req.SiteID}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayrollBulk, "payroll_month", month, nil, response)
	idem.Save(r, response)
	api.Accepted(w, response, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	missing, err := h.Bulk.Preflight(r.Context(), user.TenantID, r.URL.Query().Get("siteId"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"missingSalaryStructure": missing, "count": len(missing)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	jobType := payroll.JobBulkPayroll
	if strings.EqualFold(r.URL.Query().Get("mode"), "queued") {
		jobType = payroll.JobBulkPayrollQueued
	}
	page := shared.ParsePagination(r, 20, 100)
	runs, err := h.Runs.ListRuns(r.Context(), user.TenantID, jobType, page.Limit)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	payslips, err := h.Payslips.ListByMonth(r.Context(), user.TenantID, chi.URLParam(r, "month"), r.URL.Query().Get("siteId"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, payslips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	totals, err := h.Payslips.MonthTotals(r.Context(), user.TenantID, chi.URLParam(r, "month"), r.URL.Query().Get("siteId"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, totals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	payslip, err := h.Payslips.Get(r.Context(), user.TenantID, chi.URLParam(r, "payslipID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, payslip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var payload paymentPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Required("status", payload.Status, "is required")
	status := validator.Enum("status", payload.Status, []string{payroll.PaymentStatusPaid}, "can only be set to PAID")
	validator.Required("method", payload.Method, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	payslipID := chi.URLParam(r, "payslipID")
	paid, err := h.Payslips.UpdatePaymentStatus(r.Context(), user.TenantID, payslipID, payroll.PaymentUpdate{Status: status, Method: payload.Method})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionPayslipPaid, "payslip", paid.ID,
		map[string]string{"paymentStatus": payroll.PaymentStatusPending},
		map[string]any{"paymentStatus": paid.PaymentStatus, "paymentMethod": paid.PaymentMethod, "paymentDate": paid.PaymentDate},
	)
	api.Success(w, paid, middleware.GetRequestID(r.Context()))
}

func (h *Handler) meta(month string) export.Meta {
	return export.Meta{Month: month, GeneratedAt: h.Now().UTC()}
}

func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	payslip, err := h.Payslips.Get(r.Context(), user.TenantID, chi.URLParam(r, "payslipID"))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	lines, err := export.BuildLines(r.Context(), h.Directory, user.TenantID, []payroll.Payslip{*payslip})
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	var buf bytes.Buffer
	if err := export.PayslipPDF(&buf, lines[0], h.meta(payslip.Month)); err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.File(w, api.ContentTypePDF, fmt.Sprintf("payslip-%s-%s.pdf", payslip.EmployeeCode, payslip.Month), buf.Bytes())
}

func (h *Handler) monthLines(w http.ResponseWriter, r *http.Request, tenantID, siteID string) (string, []export.Line, bool) {
	payslips, err := h.Payslips.ListByMonth(r.Context(), tenantID, chi.URLParam(r, "month"), siteID)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return "", nil, false
	}
	lines, err := export.BuildLines(r.Context(), h.Directory, tenantID, payslips)
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return "", nil, false
	}
	return chi.URLParam(r, "month"), lines, true
}

func (h *Handler) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	month, lines, ok := h.monthLines(w, r, user.TenantID, r.URL.Query().Get("siteId"))
	if !ok {
		return
	}
	wb, err := export.Workbook(lines, h.meta(month))
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	defer func() {
		if err := wb.Close(); err != nil {
			slog.Warn("workbook close failed", "err", err)
		}
	}()
	buf, err := wb.WriteToBuffer()
	if err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.File(w, api.ContentTypeXLSX, fmt.Sprintf("payroll-%s.xlsx", month), buf.Bytes())
}

func (h *Handler) handleSiteRegister(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	siteID := chi.URLParam(r, "siteID")
	month, lines, ok := h.monthLines(w, r, user.TenantID, siteID)
	if !ok {
		return
	}
	label := siteID
	if len(lines) > 0 {
		label = lines[0].SiteLabel
	}
	var buf bytes.Buffer
	if err := export.SitePDF(&buf, label, lines, h.meta(month)); err != nil {
		api.FailError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.File(w, api.ContentTypePDF, fmt.Sprintf("register-%s-%s.pdf", siteID, month), buf.Bytes())
}
