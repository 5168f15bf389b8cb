package payroll

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"

	WarningMissingBank = "missing_bank_account"
	WarningNegativeNet = "negative_net"

	JobBulkPayroll = "payroll_bulk_generate"
	// JobBulkPayrollQueued wraps a bulk run handed to the background worker.
	JobBulkPayrollQueued = "payroll_bulk_queued"
)
