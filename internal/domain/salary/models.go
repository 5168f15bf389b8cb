package salary

import (
	"time"

	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/apperr"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Fields are the operator-entered monthly amounts of a structure.
type Fields struct {
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
	EffectiveFrom      time.Time       `json:"effectiveFrom"`
}

func (f Fields) Gross() decimal.Decimal {
	return f.BasicSalary.Add(f.HRA).Add(f.IncentiveAllowance)
}

func (f Fields) TotalDeductions() decimal.Decimal {
	return decimal.Sum(
		f.PFDeduction,
		f.ESIDeduction,
		f.ProfessionalTax,
		f.MediclaimDeduction,
		f.AdvanceDeduction,
		f.WelfareDeduction,
		f.OtherDeductions,
	)
}

func (f Fields) Net() decimal.Decimal {
	return f.Gross().Sub(f.TotalDeductions())
}

func (f Fields) Validate() error {
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"basicSalary", f.BasicSalary},
		{"hra", f.HRA},
		{"incentiveAllowance", f.IncentiveAllowance},
		{"pfDeduction", f.PFDeduction},
		{"esiDeduction", f.ESIDeduction},
		{"professionalTax", f.ProfessionalTax},
		{"mediclaimDeduction", f.MediclaimDeduction},
		{"advanceDeduction", f.AdvanceDeduction},
		{"welfareDeduction", f.WelfareDeduction},
		{"otherDeductions", f.OtherDeductions},
	}
	for _, amount := range amounts {
		if amount.value.IsNegative() {
			return apperr.Invalid("%s must not be negative", amount.name)
		}
		if !amount.value.Equal(amount.value.Round(2)) {
			return apperr.Invalid("%s has more than two decimal places", amount.name)
		}
	}
	if f.EffectiveFrom.IsZero() {
		return apperr.Invalid("effectiveFrom is required")
	}
	return nil
}

type Structure struct {
	ID           string `json:"salaryId"`
	EmployeeID   string `json:"employeeId"`
	EmployeeCode string `json:"employeeCode,omitempty"`
	Fields
	GrossSalary     decimal.Decimal `json:"grossSalary"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// MissingStructure is an ACTIVE employee with no ACTIVE salary structure.
type MissingStructure struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeCode string `json:"employeeCode"`
	EmployeeName string `json:"employeeName"`
	SiteID       string `json:"siteId,omitempty"`
}
