package core

import (
	"fmt"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// WeekKey returns the ISO-8601 week key (YYYY-Wnn) of t in UTC.
// The year is the ISO year, so 2024-12-30 belongs to 2025-W01.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey returns the YYYY-MM key of t in UTC.
func MonthKey(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%d-%02d", u.Year(), int(u.Month()))
}

// QuarterKey returns the YYYY-Qn key of t in UTC.
func QuarterKey(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%d-Q%d", u.Year(), (int(u.Month())-1)/3+1)
}

// PeriodKey returns the key of t for the given period type.
func PeriodKey(pt schema.PeriodType, t time.Time) string {
	switch pt {
	case schema.Monthly:
		return MonthKey(t)
	case schema.Quarterly:
		return QuarterKey(t)
	default:
		return WeekKey(t)
	}
}

// WeekStart returns Monday 00:00 UTC of the ISO week named by key.
func WeekStart(key string) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(key, "%d-W%d", &year, &week); err != nil {
		return time.Time{}, fmt.Errorf("invalid week key %q: %w", key, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("invalid week key %q: week out of range", key)
	}

	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)

	if y, w := monday.ISOWeek(); y != year || w != week {
		return time.Time{}, fmt.Errorf("invalid week key %q: year has no such week", key)
	}
	return monday, nil
}

// WeekSpan returns the inclusive Monday 00:00 to Sunday 23:59:59.999999999 span of a week key.
func WeekSpan(key string) (start, end time.Time, err error) {
	start, err = WeekStart(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond), nil
}

// inSpan reports whether t lies in [start, end], both ends inclusive.
func inSpan(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
