package service

import "time"

// Calendar days are UTC

// DayStart returns midnight UTC of t's day
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t's UTC day as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// EndOfDay returns the last second of t's UTC day
func EndOfDay(t time.Time) time.Time {
	return DayStart(t).Add(24*time.Hour - time.Second)
}

// WeekStart returns midnight UTC of the Sunday starting t's week
func WeekStart(t time.Time) time.Time {
	d := DayStart(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}
