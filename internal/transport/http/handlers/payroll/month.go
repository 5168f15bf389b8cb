package payrollhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"sitehrm/internal/domain/attendance"
)

// monthField accepts a month number (1-12) or a "YYYY-MM" string.
type monthField struct {
	Number int
	Period string
}

func (m *monthField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			m.Number = n
			return nil
		}
		m.Period = s
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("month must be a number or YYYY-MM: %w", err)
	}
	m.Number = n
	return nil
}

// resolve turns the month field plus the separate year into a calendar month.
func (m monthField) resolve(year int) (attendance.Month, error) {
	if m.Period != "" {
		return attendance.ParseMonth(m.Period)
	}
	return attendance.MonthOf(year, m.Number)
}
