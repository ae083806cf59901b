package quote

import "time"

type monthDay struct {
	month time.Month
	day   int
}

// Public holidays priced at the holiday rate. Lunar holidays are flagged by
// the backend itself.
var fixedHolidays = []monthDay{
	{time.January, 1},
	{time.April, 30},
	{time.May, 1},
	{time.September, 2},
}

// IsWeekend uses the calendar day of t in its own location.
func IsWeekend(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func IsHoliday(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	for _, h := range fixedHolidays {
		if t.Month() == h.month && t.Day() == h.day {
			return true
		}
	}
	return false
}
