package finance

import (
	"fmt"
	"strings"
	"time"
)

// DayCount is a day-count convention. The numeric values match the day_count column of
// the instrument store.
type DayCount int

const (
	Thirty360    DayCount = 1
	Actual365    DayCount = 2
	ActualActual DayCount = 3
	Actual360    DayCount = 4
)

func (dc DayCount) String() string {
	switch dc {
	case Thirty360:
		return "30/360"
	case ActualActual:
		return "ACT/ACT"
	case Actual360:
		return "ACT/360"
	default:
		return "ACT/365"
	}
}

// ParseDayCount accepts the usual market spellings, case-insensitively.
func ParseDayCount(s string) (DayCount, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ACT/365", "ACT/365F", "ACTUAL/365":
		return Actual365, nil
	case "30/360", "30E/360":
		return Thirty360, nil
	case "ACT/ACT", "ACTUAL/ACTUAL":
		return ActualActual, nil
	case "ACT/360", "ACTUAL/360":
		return Actual360, nil
	default:
		return 0, fmt.Errorf("unknown day count convention %q", s)
	}
}

// YearFraction measures the time from start to end in years. Unknown conventions and
// the zero value fall back to ACT/365.
func (dc DayCount) YearFraction(start, end time.Time) float64 {
	switch dc {
	case Thirty360:
		return thirty360(start, end)
	case ActualActual:
		return actualActual(start, end)
	case Actual360:
		return calendarDays(start, end) / 360.0
	default:
		return calendarDays(start, end) / 365.0
	}
}

// DayFraction is the ACT/365 fraction between referenceDate and date.
func DayFraction(date, referenceDate time.Time) float64 {
	return Actual365.YearFraction(referenceDate, date)
}

// calendarDays counts whole days between the calendar dates of start and end, ignoring
// clock time and zone offsets.
func calendarDays(start, end time.Time) float64 {
	return utcDate(end).Sub(utcDate(start)).Hours() / 24
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// actualActual splits the period at year boundaries and divides each piece by the
// length of its own year.
func actualActual(start, end time.Time) float64 {
	if end.Before(start) {
		return -actualActual(end, start)
	}
	current := utcDate(start)
	last := utcDate(end)
	total := 0.0
	for current.Before(last) {
		yearEnd := time.Date(current.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
		periodEnd := yearEnd
		if last.Before(yearEnd) {
			periodEnd = last
		}
		total += calendarDays(current, periodEnd) / daysInYear(current.Year())
		current = periodEnd
	}
	return total
}

func daysInYear(year int) float64 {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(1, 0, 0).Sub(start).Hours() / 24
}

// thirty360 uses the US rules: a start on the 31st becomes the 30th, and an end on the
// 31st becomes the 30th when the start is the 30th or 31st.
func thirty360(start, end time.Time) float64 {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()

	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}

	days := (y2-y1)*360 + (int(m2)-int(m1))*30 + (d2 - d1)
	return float64(days) / 360.0
}
