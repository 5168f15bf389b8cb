package payroll

import (
	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/apperr"
)

// Amounts are the prorated month figures of one payslip.
type Amounts struct {
	Gross           decimal.Decimal
	TotalDeductions decimal.Decimal
	Net             decimal.Decimal
}

// Prorate scales the full-month gross and net by daysPresent/totalDays. The ratio is
// applied once to each total and rounded to whole units only at the end, half away
// from zero. Deductions are derived so that Gross - TotalDeductions == Net exactly.
func Prorate(grossFull, deductionsFull decimal.Decimal, daysPresent, totalDays int) (Amounts, error) {
	if totalDays <= 0 {
		return Amounts{}, apperr.Invalid("total days in month must be positive, got %d", totalDays)
	}
	if daysPresent < 0 {
		return Amounts{}, apperr.Invalid("days present must not be negative, got %d", daysPresent)
	}
	if daysPresent > totalDays {
		return Amounts{}, apperr.Invalid("days present %d exceeds %d days in month", daysPresent, totalDays)
	}
	if daysPresent == 0 {
		return Amounts{Gross: decimal.Zero, TotalDeductions: decimal.Zero, Net: decimal.Zero}, nil
	}

	days := decimal.NewFromInt(int64(daysPresent))
	total := decimal.NewFromInt(int64(totalDays))
	netFull := grossFull.Sub(deductionsFull)

	gross := grossFull.Mul(days).Div(total).Round(0)
	net := netFull.Mul(days).Div(total).Round(0)
	return Amounts{Gross: gross, TotalDeductions: gross.Sub(net), Net: net}, nil
}
