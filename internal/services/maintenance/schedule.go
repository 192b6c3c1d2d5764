package maintenance

import "time"

// NextDaily returns the next 00:00 UTC strictly after now.
func NextDaily(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextMonthly returns the next 1st-of-month 01:00 UTC strictly after now.
func NextMonthly(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), 1, 1, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
