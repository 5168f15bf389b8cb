package export

import (
	"github.com/shopspring/decimal"

	"sitehrm/internal/domain/payroll"
)

type moneyColumn struct {
	Title string
	Value func(p payroll.Payslip) decimal.Decimal
}

var moneyColumns = []moneyColumn{
	{"Basic", func(p payroll.Payslip) decimal.Decimal { return p.BasicSalary }},
	{"HRA", func(p payroll.Payslip) decimal.Decimal { return p.HRA }},
	{"Incentive", func(p payroll.Payslip) decimal.Decimal { return p.IncentiveAllowance }},
	{"Overtime", func(p payroll.Payslip) decimal.Decimal { return p.OvertimeAmount }},
	{"Gross", func(p payroll.Payslip) decimal.Decimal { return p.GrossSalary }},
	{"PF", func(p payroll.Payslip) decimal.Decimal { return p.PFDeduction }},
	{"ESI", func(p payroll.Payslip) decimal.Decimal { return p.ESIDeduction }},
	{"Prof. Tax", func(p payroll.Payslip) decimal.Decimal { return p.ProfessionalTax }},
	{"Advance", func(p payroll.Payslip) decimal.Decimal { return p.AdvanceDeduction }},
	{"Welfare", func(p payroll.Payslip) decimal.Decimal { return p.WelfareDeduction }},
	{"Health Ins.", func(p payroll.Payslip) decimal.Decimal { return p.HealthInsurance }},
	{"Other", func(p payroll.Payslip) decimal.Decimal { return p.OtherDeductions }},
	{"Total Deductions", func(p payroll.Payslip) decimal.Decimal { return p.TotalDeductions }},
	{"Net", func(p payroll.Payslip) decimal.Decimal { return p.NetSalary }},
}

// Totals sums every money column over lines, in column order.
func Totals(lines []Line) []decimal.Decimal {
	sums := make([]decimal.Decimal, len(moneyColumns))
	for i := range sums {
		sums[i] = decimal.Zero
	}
	for _, line := range lines {
		for i, col := range moneyColumns {
			sums[i] = sums[i].Add(col.Value(line.Payslip))
		}
	}
	return sums
}
