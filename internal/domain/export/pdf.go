package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

func newDocument(orientation string) *gofpdf.Fpdf {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	return pdf
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// PayslipPDF writes the payslip of one employee.
func PayslipPDF(w io.Writer, line Line, meta Meta) error {
	p := line.Payslip
	pdf := newDocument("P")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Payslip %s", p.Month))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	details := [][2]string{
		{"Employee", fmt.Sprintf("%s (%s)", p.EmployeeName, p.EmployeeCode)},
		{"Designation", line.Designation},
		{"Site", line.SiteLabel},
		{"Bank account", line.BankAccount},
		{"Days present", fmt.Sprintf("%d of %d", p.DaysPresent, p.TotalDaysInMonth)},
	}
	for _, d := range details {
		pdf.CellFormat(40, 7, d[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, d[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	earnings := [][2]string{
		{"Basic", money(p.BasicSalary)},
		{"HRA", money(p.HRA)},
		{"Incentive allowance", money(p.IncentiveAllowance)},
		{"Overtime", money(p.OvertimeAmount)},
	}
	deductions := [][2]string{
		{"Provident fund", money(p.PFDeduction)},
		{"ESI", money(p.ESIDeduction)},
		{"Professional tax", money(p.ProfessionalTax)},
		{"Advance", money(p.AdvanceDeduction)},
		{"Welfare", money(p.WelfareDeduction)},
		{"Health insurance", money(p.HealthInsurance)},
		{"Other", money(p.OtherDeductions)},
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(93, 8, "Earnings (monthly rate)", "1", 0, "L", true, 0, "")
	pdf.CellFormat(93, 8, "Deductions (monthly rate)", "1", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for i := 0; i < len(deductions); i++ {
		left := [2]string{}
		if i < len(earnings) {
			left = earnings[i]
		}
		right := deductions[i]
		pdf.CellFormat(60, 7, left[0], "L", 0, "L", false, 0, "")
		pdf.CellFormat(33, 7, left[1], "R", 0, "R", false, 0, "")
		pdf.CellFormat(60, 7, right[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(33, 7, right[1], "R", 1, "R", false, 0, "")
	}
	pdf.CellFormat(186, 0, "", "T", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	summary := [][2]string{
		{"Gross for the month", money(p.GrossSalary)},
		{"Total deductions", money(p.TotalDeductions)},
		{"Net pay", money(p.NetSalary)},
	}
	for _, s := range summary {
		pdf.CellFormat(153, 8, s[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(33, 8, s[1], "1", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	status := p.PaymentStatus
	if p.PaymentDate != nil {
		status = fmt.Sprintf("%s on %s via %s", status, p.PaymentDate.Format("2006-01-02"), p.PaymentMethod)
	}
	pdf.Cell(0, 6, "Payment: "+status)
	pdf.Ln(5)
	pdf.Cell(0, 6, "Generated "+meta.GeneratedAt.Format("2006-01-02 15:04"))

	return pdf.Output(w)
}

var registerColumns = []struct {
	Title string
	Width float64
}{
	{"Code", 20},
	{"Name", 52},
	{"Days", 16},
	{"Gross", 30},
	{"PF", 22},
	{"ESI", 20},
	{"PT", 18},
	{"Advance", 24},
	{"Deductions", 30},
	{"Net", 30},
}

// SitePDF writes the payroll register of one site with a totals row.
func SitePDF(w io.Writer, siteLabel string, lines []Line, meta Meta) error {
	pdf := newDocument("L")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Payroll register %s: %s", meta.Month, siteLabel))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range registerColumns {
		pdf.CellFormat(col.Width, 8, col.Title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range lines {
		p := line.Payslip
		row := []string{
			p.EmployeeCode,
			p.EmployeeName,
			fmt.Sprintf("%d/%d", p.DaysPresent, p.TotalDaysInMonth),
			money(p.GrossSalary),
			money(p.PFDeduction),
			money(p.ESIDeduction),
			money(p.ProfessionalTax),
			money(p.AdvanceDeduction),
			money(p.TotalDeductions),
			money(p.NetSalary),
		}
		writeRegisterRow(pdf, row)
	}

	gross, deductions, net := decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range lines {
		gross = gross.Add(line.Payslip.GrossSalary)
		deductions = deductions.Add(line.Payslip.TotalDeductions)
		net = net.Add(line.Payslip.NetSalary)
	}
	pdf.SetFont("Helvetica", "B", 9)
	writeRegisterRow(pdf, []string{"TOTAL", fmt.Sprintf("%d employees", len(lines)), "", money(gross), "", "", "", "", money(deductions), money(net)})

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 6, "Generated "+meta.GeneratedAt.Format("2006-01-02 15:04"))
	return pdf.Output(w)
}

func writeRegisterRow(pdf *gofpdf.Fpdf, values []string) {
	for i, col := range registerColumns {
		align := "R"
		if i < 2 {
			align = "L"
		}
		pdf.CellFormat(col.Width, 7, values[i], "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
