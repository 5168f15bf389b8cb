package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/domain/attendance"
	"sitehrm/internal/domain/core"
	"sitehrm/internal/domain/salary"
)

var errBatchAborted = errors.New("bulk payroll aborted")

type Generator interface {
	Generate(ctx context.Context, tenantID string, req GenerateRequest) (*Payslip, error)
}

type EmployeeLister interface {
	ListActiveEmployees(ctx context.Context, tenantID, siteID string) ([]core.Employee, error)
}

type PreflightSource interface {
	EmployeesWithoutActive(ctx context.Context, tenantID, siteID string) ([]salary.MissingStructure, error)
}

// Pinger checks that the database is still reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error)
}

// ExportSink receives the payslips a bulk run produced and returns the artifact locations.
type ExportSink interface {
	Export(ctx context.Context, tenantID, month string, payslips []Payslip) ([]string, error)
}

type BulkMetrics interface {
	RecordBulkRun(aborted bool)
}

type Orchestrator struct {
	Generator   Generator
	Payslips    StoreAPI
	Employees   EmployeeLister
	Structures  PreflightSource
	Health      Pinger
	Jobs        JobRunner
	Sink        ExportSink
	Metrics     BulkMetrics
	Concurrency int
	LockPaid    bool
}

// Preflight lists the employees a run would fail for with no salary structure. It is advisory;
// Generate enforces the precondition itself.
func (o *Orchestrator) Preflight(ctx context.Context, tenantID, siteID string) ([]salary.MissingStructure, error) {
	return o.Structures.EmployeesWithoutActive(ctx, tenantID, siteID)
}

// RunMonthlyPayroll generates payslips for every ACTIVE employee, optionally of one site.
// One employee's failure never stops the others. The run only stops early when a storage
// failure is followed by a failed ping, or ctx is cancelled.
func (o *Orchestrator) RunMonthlyPayroll(ctx context.Context, tenantID string, req BulkRequest, progress func(Progress)) (BatchResult, error) {
	month, err := attendance.MonthOf(req.Year, req.Month)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	run := func(ctx context.Context) (any, error) {
		result, err = o.run(ctx, tenantID, month, req, progress)
		if err != nil {
			return map[string]any{"month": month.String(), "error": err.Error()}, err
		}
		if result.Aborted {
			return summary(result), errBatchAborted
		}
		return summary(result), nil
	}

	if o.Jobs != nil {
		_, jobErr := o.Jobs.RunNow(ctx, JobBulkPayroll, tenantID, run)
		if jobErr != nil && !errors.Is(jobErr, errBatchAborted) {
			return BatchResult{}, jobErr
		}
	} else if _, runErr := run(ctx); runErr != nil && !errors.Is(runErr, errBatchAborted) {
		return BatchResult{}, runErr
	}

	if o.Metrics != nil {
		o.Metrics.RecordBulkRun(result.Aborted)
	}
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, tenantID string, month attendance.Month, req BulkRequest, progress func(Progress)) (BatchResult, error) {
	result := BatchResult{
		Month:     month.String(),
		SiteID:    req.SiteID,
		Successes: []Payslip{},
		Failures:  []Failure{},
	}

	if req.Regenerate {
		deleted, err := o.Payslips.DeleteByMonth(ctx, tenantID, month.String(), req.SiteID, o.LockPaid)
		if err != nil {
			return BatchResult{}, err
		}
		result.Deleted = deleted
	}

	employees, err := o.Employees.ListActiveEmployees(ctx, tenantID, req.SiteID)
	if err != nil {
		return BatchResult{}, err
	}
	result.Total = len(employees)

	limit := o.Concurrency
	if limit < 1 {
		limit = 1
	}
	var (
		mu      sync.Mutex
		done    int
		aborted atomic.Bool
		g       errgroup.Group
	)
	g.SetLimit(limit)

	for _, emp := range employees {
		g.Go(func() error {
			if aborted.Load() || ctx.Err() != nil {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			genReq := GenerateRequest{EmployeeID: emp.ID, Month: int(month.Month), Year: month.Year}
			if override, ok := req.AdvanceOverrides[emp.ID]; ok {
				genReq.AdvanceDeduction = &override
			}
			payslip, genErr := o.Generator.Generate(ctx, tenantID, genReq)

			if genErr != nil && apperr.IsStorage(genErr) {
				switch {
				case ctx.Err() != nil:
					// A cancelled request fails its queries too; report the cancellation instead.
					if aborted.CompareAndSwap(false, true) {
						mu.Lock()
						result.AbortReason = ctx.Err().Error()
						mu.Unlock()
					}
				case o.Health != nil:
					if pingErr := o.Health.Ping(ctx); pingErr != nil && aborted.CompareAndSwap(false, true) {
						slog.Error("bulk payroll aborted, database unreachable", "tenantId", tenantID, "month", month.String(), "err", pingErr)
						mu.Lock()
						result.AbortReason = fmt.Sprintf("database unreachable: %v", pingErr)
						mu.Unlock()
					}
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if genErr != nil {
				result.Failures = append(result.Failures, failureFor(emp, genErr))
			} else {
				result.Successes = append(result.Successes, *payslip)
			}
			done++
			if progress != nil {
				progress(Progress{Done: done, Total: result.Total, EmployeeID: emp.ID, EmployeeCode: emp.Code, Err: genErr})
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Aborted = aborted.Load()
	if ctx.Err() != nil && !result.Aborted {
		result.Aborted = true
		result.AbortReason = ctx.Err().Error()
	}
	sort.Slice(result.Successes, func(i, j int) bool {
		return result.Successes[i].EmployeeCode < result.Successes[j].EmployeeCode
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].EmployeeCode < result.Failures[j].EmployeeCode
	})

	if o.Sink != nil && len(result.Successes) > 0 && ctx.Err() == nil {
		paths, err := o.Sink.Export(ctx, tenantID, month.String(), result.Successes)
		if err != nil {
			slog.Warn("bulk payroll export failed", "tenantId", tenantID, "month", month.String(), "err", err)
			result.ExportError = err.Error()
		}
		result.Exports = paths
	}

	slog.Info("bulk payroll finished",
		"tenantId", tenantID,
		"month", month.String(),
		"total", result.Total,
		"succeeded", len(result.Successes),
		"failed", len(result.Failures),
		"skipped", result.Skipped,
		"aborted", result.Aborted,
	)
	return result, nil
}

func failureFor(emp core.Employee, err error) Failure {
	code := apperr.Code(err)
	if code == "" {
		code = "internal_error"
	}
	return Failure{EmployeeID: emp.ID, EmployeeCode: emp.Code, Reason: err.Error(), Code: code}
}

func summary(result BatchResult) map[string]any {
	return map[string]any{
		"month":       result.Month,
		"siteId":      result.SiteID,
		"total":       result.Total,
		"succeeded":   len(result.Successes),
		"failed":      len(result.Failures),
		"skipped":     result.Skipped,
		"deleted":     result.Deleted,
		"aborted":     result.Aborted,
		"abortReason": result.AbortReason,
		"exports":     result.Exports,
		"exportError": result.ExportError,
	}
}
