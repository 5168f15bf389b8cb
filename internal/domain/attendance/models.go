package attendance

import "time"

const (
	StatusDraft     = "DRAFT"
	StatusFinalized = "FINALIZED"
)

type Record struct {
	ID               string     `json:"id"`
	EmployeeID       string     `json:"employeeId"`
	EmployeeCode     string     `json:"employeeCode,omitempty"`
	Month            string     `json:"month"`
	DaysPresent      int        `json:"daysPresent"`
	TotalDaysInMonth int        `json:"totalDaysInMonth"`
	Remarks          string     `json:"remarks"`
	Status           string     `json:"status"`
	FinalizedAt      *time.Time `json:"finalizedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (r Record) Finalized() bool {
	return r.Status == StatusFinalized
}

// OverCount flags a record with more days present than the month has.
// Payslip generation refuses such a record.
func (r Record) OverCount() bool {
	return r.DaysPresent > r.TotalDaysInMonth
}

type Entry struct {
	EmployeeID  string `json:"employeeId"`
	DaysPresent int    `json:"daysPresent"`
	Remarks     string `json:"remarks"`
}

type Rejection struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employeeId"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

type SaveResult struct {
	Month    string      `json:"month"`
	Saved    []Record    `json:"saved"`
	Rejected []Rejection `json:"rejected"`
}

type MonthSummary struct {
	Month            string `json:"month"`
	TotalDaysInMonth int    `json:"totalDaysInMonth"`
	Draft            int    `json:"draft"`
	Finalized        int    `json:"finalized"`
	Locked           bool   `json:"locked"`
}
