package core

import (
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodKeys(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		week    string
		month   string
		quarter string
	}{
		{
			name:    "iso year boundary monday",
			date:    time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
			week:    "2025-W01",
			month:   "2024-12",
			quarter: "2024-Q4",
		},
		{
			name:    "week 53",
			date:    time.Date(2021, 1, 3, 23, 59, 59, 0, time.UTC),
			week:    "2020-W53",
			month:   "2021-01",
			quarter: "2021-Q1",
		},
		{
			name:    "mid year",
			date:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			week:    "2025-W11",
			month:   "2025-03",
			quarter: "2025-Q1",
		},
		{
			name:    "local offset is normalized to utc",
			date:    time.Date(2025, 4, 1, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			week:    "2025-W14",
			month:   "2025-03",
			quarter: "2025-Q1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.week, WeekKey(tt.date))
			assert.Equal(t, tt.month, MonthKey(tt.date))
			assert.Equal(t, tt.quarter, QuarterKey(tt.date))
			assert.Equal(t, tt.week, PeriodKey(schema.Weekly, tt.date))
			assert.Equal(t, tt.month, PeriodKey(schema.Monthly, tt.date))
			assert.Equal(t, tt.quarter, PeriodKey(schema.Quarterly, tt.date))
		})
	}
}

func TestWeekSpan(t *testing.T) {
	start, end, err := WeekSpan("2025-W01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 5, 23, 59, 59, 999999999, time.UTC), end)

	start, _, err = WeekSpan("2025-W11")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), start)

	// Round trip across several years.
	for d := time.Date(2019, 12, 20, 0, 0, 0, 0, time.UTC); d.Year() < 2027; d = d.AddDate(0, 0, 5) {
		s, e, err := WeekSpan(WeekKey(d))
		require.NoError(t, err)
		assert.True(t, inSpan(d, s, e), "date %s outside its week", d)
		assert.Equal(t, time.Monday, s.Weekday())
	}
}

func TestWeekStartInvalid(t *testing.T) {
	for _, key := range []string{"", "2025-03", "2025-W00", "2025-W54", "2025-W53"} {
		_, err := WeekStart(key)
		assert.Error(t, err, key)
	}
}
