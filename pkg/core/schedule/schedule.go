// Package schedule holds the weekly calendar rules of the key event: the
// Friday evening sign-up cutoff, the removal window that follows it and the
// naming of retired sign-up tables.
package schedule

import (
	"fmt"
	"time"
)

// CutoffDateLayout is the date format used in retired table names
const CutoffDateLayout = "01-02-2006"

const (
	cutoffHour      = 18 // Friday 18:00 closes sign-ups
	windowCloseHour = 12 // Saturday 12:00 ends the removal window
)

// Calendar evaluates the weekly rules in a fixed reference time zone
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a calendar for the given zone. A nil zone means UTC.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// Location returns the reference time zone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsInCutoffWindow reports whether now falls between Friday 18:00 and
// Saturday 12:00 in the reference zone
func (c *Calendar) IsInCutoffWindow(now time.Time) bool {
	local := now.In(c.loc)
	switch local.Weekday() {
	case time.Friday:
		return local.Hour() >= cutoffHour
	case time.Saturday:
		return local.Hour() < windowCloseHour
	default:
		return false
	}
}

// CutoffDate is the date suffix of the table retired by the most recent
// cutoff: tomorrow when now is a Friday, otherwise today.
func (c *Calendar) CutoffDate(now time.Time) string {
	local := now.In(c.loc)
	if local.Weekday() == time.Friday {
		local = local.AddDate(0, 0, 1)
	}
	return local.Format(CutoffDateLayout)
}

// CutoffTableName names a retired sign-up table
func CutoffTableName(base, date string) string {
	return fmt.Sprintf("%s - Cutoff %s", base, date)
}

// RemovalTable selects the table a removal should search. Inside the cutoff
// window that is the table retired at the last cutoff, derived from base and
// the current date; otherwise it is active.
func (c *Calendar) RemovalTable(base, active string, now time.Time) string {
	if c.IsInCutoffWindow(now) {
		return CutoffTableName(base, c.CutoffDate(now))
	}
	return active
}

// IsRotationDay reports whether now is a Friday in the reference zone
func (c *Calendar) IsRotationDay(now time.Time) bool {
	return now.In(c.loc).Weekday() == time.Friday
}

// RotatedTableName is the name the active table takes when retired at now
func (c *Calendar) RotatedTableName(active string, now time.Time) string {
	return CutoffTableName(active, c.CutoffDate(now))
}

// EventDate returns the Saturday that sign-ups made at now are for. Once the
// Friday cutoff has passed the following week's Saturday is returned.
func (c *Calendar) EventDate(now time.Time) time.Time {
	local := now.In(c.loc)
	daysUntil := (int(time.Saturday) - int(local.Weekday()) + 7) % 7
	saturday := time.Date(local.Year(), local.Month(), local.Day()+daysUntil, 0, 0, 0, 0, c.loc)

	pastCutoff := local.Weekday() == time.Saturday ||
		(local.Weekday() == time.Friday && local.Hour() >= cutoffHour)
	if pastCutoff {
		saturday = saturday.AddDate(0, 0, 7)
	}
	return saturday
}
