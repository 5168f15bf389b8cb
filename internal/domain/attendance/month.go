package attendance

import (
	"regexp"
	"time"

	"sitehrm/internal/domain/apperr"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Month is a payroll calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts the YYYY-MM form only.
func ParseMonth(value string) (Month, error) {
	if !monthPattern.MatchString(value) {
		return Month{}, apperr.Invalid("month %q must be in YYYY-MM format", value)
	}
	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return Month{}, apperr.Invalid("month %q is not a calendar month", value)
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

func MonthOf(year, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, apperr.Invalid("month %d must be between 1 and 12", month)
	}
	if year < 2000 || year > 2999 {
		return Month{}, apperr.Invalid("year %d is out of range", year)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

func (m Month) String() string {
	return m.Start().Format("2006-01")
}

func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days is the calendar day count of the month, Sundays and holidays included.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
