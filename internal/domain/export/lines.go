// Package export renders persisted payslips as workbooks and PDFs. It prints and sums
// stored values only; no payroll figure is recomputed here.
package export

import (
	"context"
	"sort"
	"strings"
	"time"

	"sitehrm/internal/domain/core"
	"sitehrm/internal/domain/payroll"
)

const unassignedSite = "UNASSIGNED"

// Line is one payslip joined with the directory data printed next to it.
type Line struct {
	Payslip     payroll.Payslip
	Designation string
	BankAccount string
	SiteLabel   string
	SiteName    string
}

type Meta struct {
	Month       string
	GeneratedAt time.Time
}

// Directory resolves the employees and sites referenced by payslips.
type Directory interface {
	EmployeesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]core.Employee, error)
	SitesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]core.Site, error)
}

// BuildLines joins payslips with directory data and orders them by site label, then employee code.
func BuildLines(ctx context.Context, dir Directory, tenantID string, payslips []payroll.Payslip) ([]Line, error) {
	var empIDs, siteIDs []string
	seenSite := map[string]bool{}
	for _, p := range payslips {
		empIDs = append(empIDs, p.EmployeeID)
		if p.SiteID != "" && !seenSite[p.SiteID] {
			seenSite[p.SiteID] = true
			siteIDs = append(siteIDs, p.SiteID)
		}
	}
	employees, err := dir.EmployeesByIDs(ctx, tenantID, empIDs)
	if err != nil {
		return nil, err
	}
	sites := map[string]core.Site{}
	if len(siteIDs) > 0 {
		sites, err = dir.SitesByIDs(ctx, tenantID, siteIDs)
		if err != nil {
			return nil, err
		}
	}

	lines := make([]Line, 0, len(payslips))
	for _, p := range payslips {
		line := Line{Payslip: p, SiteLabel: unassignedSite}
		if emp, ok := employees[p.EmployeeID]; ok {
			line.Designation = emp.Designation
			line.BankAccount = MaskAccount(emp.BankAccount)
			if line.Payslip.EmployeeCode == "" {
				line.Payslip.EmployeeCode = emp.Code
			}
			if line.Payslip.EmployeeName == "" {
				line.Payslip.EmployeeName = emp.FullName()
			}
		}
		if site, ok := sites[p.SiteID]; ok {
			line.SiteLabel = site.Label()
			line.SiteName = site.Name
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].SiteLabel != lines[j].SiteLabel {
			return lines[i].SiteLabel < lines[j].SiteLabel
		}
		return lines[i].Payslip.EmployeeCode < lines[j].Payslip.EmployeeCode
	})
	return lines, nil
}

// GroupBySite keeps the order of lines; groups appear in first-seen order.
func GroupBySite(lines []Line) ([]string, map[string][]Line) {
	var order []string
	groups := map[string][]Line{}
	for _, line := range lines {
		if _, ok := groups[line.SiteLabel]; !ok {
			order = append(order, line.SiteLabel)
		}
		groups[line.SiteLabel] = append(groups[line.SiteLabel], line)
	}
	return order, groups
}

// MaskAccount keeps the last four characters of an account number.
func MaskAccount(account string) string {
	account = strings.TrimSpace(account)
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("X", len(account)-4) + account[len(account)-4:]
}
