// Package progress holds the gamification bookkeeping: XP by day, streaks,
// the daily goal reward and the lingot wallet.
//
// Every operation is a pure transformation. State values are replaced
// wholesale on mutation and never shared between callers.
package progress

import "time"

const dateKeyLayout = "2006-01-02"

// DateKey identifies a calendar day as YYYY-MM-DD.
type DateKey string

// KeyOf truncates t to its calendar day in t's own location.
func KeyOf(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// ParseDateKey parses a stored key back into local midnight.
func ParseDateKey(key DateKey) (time.Time, error) {
	return time.ParseInLocation(dateKeyLayout, string(key), time.Local)
}

func daysBack(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, -n)
}
