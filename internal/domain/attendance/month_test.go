package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitehrm/internal/domain/apperr"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, time.February, m.Month)
	assert.Equal(t, "2024-02", m.String())
}

func TestParseMonthRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "2024-2", "2024-13", "24-01", "2024/01", "2024-01-01"} {
		_, err := ParseMonth(raw)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, raw)
	}
}

func TestMonthDaysUsesCalendar(t *testing.T) {
	cases := map[string]int{
		"2024-02": 29,
		"2023-02": 28,
		"2024-04": 30,
		"2024-12": 31,
	}
	for raw, want := range cases {
		m, err := ParseMonth(raw)
		require.NoError(t, err)
		assert.Equal(t, want, m.Days(), raw)
	}
}

func TestMonthOf(t *testing.T) {
	m, err := MonthOf(2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", m.String())

	_, err = MonthOf(2025, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = MonthOf(1999, 5)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
