package core

import (
	"strings"
	"time"
)

const (
	EmployeeStatusActive     = "ACTIVE"
	EmployeeStatusOnLeave    = "ON_LEAVE"
	EmployeeStatusResigned   = "RESIGNED"
	EmployeeStatusTerminated = "TERMINATED"
)

var EmployeeStatuses = []string{
	EmployeeStatusActive,
	EmployeeStatusOnLeave,
	EmployeeStatusResigned,
	EmployeeStatusTerminated,
}

type Employee struct {
	ID          string    `json:"id"`
	Code        string    `json:"employeeCode"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Designation string    `json:"designation"`
	SiteID      string    `json:"siteId,omitempty"`
	Status      string    `json:"status"`
	BankAccount string    `json:"bankAccount,omitempty"`
	BankIFSC    string    `json:"bankIfsc,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

type Site struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	ClientName string    `json:"clientName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Label is the display name used for workbook sheets and register titles.
func (s Site) Label() string {
	if strings.TrimSpace(s.Code) != "" {
		return s.Code
	}
	return s.Name
}

type EmployeeFilter struct {
	SiteID string
	Status string
}
