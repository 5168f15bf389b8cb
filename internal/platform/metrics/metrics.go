package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	payslipsGenerated uint64
	payslipsFailed    uint64
	bulkRuns          uint64
	bulkAborted       uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordPayslip(ok bool) {
	if ok {
		atomic.AddUint64(&c.payslipsGenerated, 1)
		return
	}
	atomic.AddUint64(&c.payslipsFailed, 1)
}

func (c *Collector) RecordBulkRun(aborted bool) {
	atomic.AddUint64(&c.bulkRuns, 1)
	if aborted {
		atomic.AddUint64(&c.bulkAborted, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"rateLimitedTotal":       limited,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"payslipsGeneratedTotal": atomic.LoadUint64(&c.payslipsGenerated),
		"payslipsFailedTotal":    atomic.LoadUint64(&c.payslipsFailed),
		"bulkRunsTotal":          atomic.LoadUint64(&c.bulkRuns),
		"bulkRunsAbortedTotal":   atomic.LoadUint64(&c.bulkAborted),
	}
}
