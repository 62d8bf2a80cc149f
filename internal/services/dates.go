package services

import "time"

// dateLayout is how calendar dates are persisted; no time component.
const dateLayout = "2006-01-02"

// dateOnly truncates t to its calendar day in UTC so day arithmetic
// is immune to DST and timezone drift.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole calendar days from `from` to `to`.
func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}
