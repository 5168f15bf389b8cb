package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payslip struct {
	ID                 string          `json:"payslipId"`
	EmployeeID         string          `json:"employeeId"`
	EmployeeCode       string          `json:"employeeCode,omitempty"`
	EmployeeName       string          `json:"employeeName,omitempty"`
	SiteID             string          `json:"siteId,omitempty"`
	Month              string          `json:"month"`
	DaysPresent        int             `json:"daysPresent"`
	TotalDaysInMonth   int             `json:"totalDaysInMonth"`
	BasicSalary        decimal.Decimal `json:"basicSalary"`
	HRA                decimal.Decimal `json:"hra"`
	IncentiveAllowance decimal.Decimal `json:"incentiveAllowance"`
	OvertimeAmount     decimal.Decimal `json:"overtimeAmount"`
	GrossSalary        decimal.Decimal `json:"grossSalary"`
	PFDeduction        decimal.Decimal `json:"pfDeduction"`
	ESIDeduction       decimal.Decimal `json:"esiDeduction"`
	ProfessionalTax    decimal.Decimal `json:"professionalTax"`
	AdvanceDeduction   decimal.Decimal `json:"advanceDeduction"`
	WelfareDeduction   decimal.Decimal `json:"welfareDeduction"`
	HealthInsurance    decimal.Decimal `json:"healthInsurance"`
	OtherDeductions    decimal.Decimal `json:"otherDeductions"`
	TotalDeductions    decimal.Decimal `json:"totalDeductions"`
	NetSalary          decimal.Decimal `json:"netSalary"`
	PaymentStatus      string          `json:"paymentStatus"`
	PaymentDate        *time.Time      `json:"paymentDate,omitempty"`
	PaymentMethod      string          `json:"paymentMethod"`
	Remarks            string          `json:"remarks"`
	GeneratedAt        time.Time       `json:"generatedAt"`
	Warnings           []string        `json:"warnings,omitempty"`
}

func (p Payslip) Paid() bool {
	return p.PaymentStatus == PaymentStatusPaid
}

type GenerateRequest struct {
	EmployeeID       string
	Month            int
	Year             int
	AdvanceDeduction *decimal.Decimal
	Remarks          string
}

type PaymentUpdate struct {
	Status string
	Method string
}

type MonthTotals struct {
	Month           string          `json:"month"`
	Count           int             `json:"count"`
	Paid            int             `json:"paid"`
	GrossSalary     decimal.Decimal `json:"grossSalary"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`
}

type BulkRequest struct {
	Month            int
	Year             int
	SiteID           string
	Regenerate       bool
	AdvanceOverrides map[string]decimal.Decimal
}

type Failure struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeCode string `json:"employeeCode"`
	Reason       string `json:"reason"`
	Code         string `json:"code"`
}

// Progress is reported once per employee as the bulk run completes them.
type Progress struct {
	Done         int
	Total        int
	EmployeeID   string
	EmployeeCode string
	Err          error
}

type BatchResult struct {
	Month       string    `json:"month"`
	SiteID      string    `json:"siteId,omitempty"`
	Total       int       `json:"total"`
	Successes   []Payslip `json:"successes"`
	Failures    []Failure `json:"failures"`
	Skipped     int       `json:"skipped"`
	Deleted     int64     `json:"deleted"`
	Aborted     bool      `json:"aborted"`
	AbortReason string    `json:"abortReason,omitempty"`
	Exports     []string  `json:"exports,omitempty"`
	ExportError string    `json:"exportError,omitempty"`
}
