package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var leadColumns = []string{"Employee Code", "Employee Name", "Designation", "Days Present", "Days In Month"}

const maxSheetName = 31

// Workbook builds one sheet per site with a header row, one row per payslip and a totals row.
func Workbook(lines []Line, meta Meta) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return nil, err
	}

	order, groups := GroupBySite(lines)
	if len(order) == 0 {
		order = []string{"Payroll"}
	}
	used := map[string]bool{}
	for i, label := range order {
		sheet := sheetName(label, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, groups[label], meta, headerStyle, moneyStyle, totalStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, lines []Line, meta Meta, headerStyle, moneyStyle, totalStyle int) error {
	headers := append([]string{}, leadColumns...)
	for _, col := range moneyColumns {
		headers = append(headers, col.Title)
	}
	headers = append(headers, "Payment Status")

	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("Payroll %s", meta.Month)); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &headers); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 2, 30); err != nil {
		return err
	}

	firstMoney, _ := excelize.ColumnNumberToName(len(leadColumns) + 1)
	lastMoney, _ := excelize.ColumnNumberToName(len(leadColumns) + len(moneyColumns))
	row := 3
	for _, line := range lines {
		p := line.Payslip
		values := []any{p.EmployeeCode, p.EmployeeName, line.Designation, p.DaysPresent, p.TotalDaysInMonth}
		for _, col := range moneyColumns {
			values = append(values, col.Value(p).InexactFloat64())
		}
		values = append(values, p.PaymentStatus)
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("%s%d", firstMoney, row), fmt.Sprintf("%s%d", lastMoney, row), moneyStyle); err != nil {
			return err
		}
		row++
	}

	totals := []any{"TOTAL", fmt.Sprintf("%d employees", len(lines)), "", "", ""}
	for _, sum := range Totals(lines) {
		totals = append(totals, sum.InexactFloat64())
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, row), totalStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "B", 28)
}

// sheetName trims a site label to a valid, unique sheet name.
func sheetName(label string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(label))
	if name == "" {
		name = unassignedSite
	}
	name = truncateRunes(name, maxSheetName)
	base, n := name, 2
	for used[strings.ToLower(name)] {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		n++
	}
	used[strings.ToLower(name)] = true
	return name
}

// truncateRunes cuts s to at most limit characters without splitting a rune.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
