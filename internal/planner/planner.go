// Package planner computes which session a run targets and when booking
// for it opens. All arithmetic is done in calendar days in the location of
// the supplied instant, so month/year boundaries and DST shifts never leak
// a sub-day offset into the result.
package planner

import (
	"time"

	"github.com/example/slot-booker/internal/domain/booking"
)

const daysPerWeek = 7

// defaultOpenOffsetDays is the "one week + one day ahead" booking policy.
const defaultOpenOffsetDays = 8

// NextWeekdayOnOrAfter returns the earliest date >= base falling on weekday.
// A base already on weekday is returned unchanged.
func NextWeekdayOnOrAfter(base time.Time, weekday time.Weekday) time.Time {
	diff := (int(weekday) - int(base.Weekday()) + daysPerWeek) % daysPerWeek
	return base.AddDate(0, 0, diff)
}

// TargetClassDate returns the next occurrence of weekday at least one week
// out from now, as a midnight date. Today's occurrence is never chosen.
func TargetClassDate(weekday time.Weekday, now time.Time) time.Time {
	return targetClassDate(weekday, now, 1)
}

func targetClassDate(weekday time.Weekday, now time.Time, leadWeeks int) time.Time {
	base := startOfDay(now).AddDate(0, 0, daysPerWeek*leadWeeks)
	return NextWeekdayOnOrAfter(base, weekday)
}

// OpenTimeForClass returns classDate minus eight days at hour:minute:second.
func OpenTimeForClass(classDate time.Time, hour, minute, second int) time.Time {
	return openTimeForClass(classDate, defaultOpenOffsetDays, booking.ClockTime{Hour: hour, Minute: minute, Second: second})
}

func openTimeForClass(classDate time.Time, offsetDays int, at booking.ClockTime) time.Time {
	d := classDate.AddDate(0, 0, -offsetDays)
	return time.Date(d.Year(), d.Month(), d.Day(), at.Hour, at.Minute, at.Second, 0, d.Location())
}

// Plan derives the run's SessionWindow from the rule and the current instant.
// now should already be in the rule's timezone.
func Plan(rule booking.RecurrenceRule, now time.Time) booking.SessionWindow {
	classDate := targetClassDate(rule.TargetWeekday, now, rule.LeadWeeks)
	return booking.SessionWindow{
		ClassDate: classDate,
		OpenAt:    openTimeForClass(classDate, rule.OpenOffsetDays, rule.OpenTime),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
