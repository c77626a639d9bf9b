package booking

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day in the rule's timezone.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// RecurrenceRule is the fixed weekly pattern a run targets.
type RecurrenceRule struct {
	TargetWeekday  time.Weekday // Sun=0
	LeadWeeks      int
	OpenOffsetDays int
	OpenTime       ClockTime
}

func (r RecurrenceRule) Validate() error {
	if r.TargetWeekday < time.Sunday || r.TargetWeekday > time.Saturday {
		return fmt.Errorf("target weekday must be 0..6 (got %d)", r.TargetWeekday)
	}
	if r.LeadWeeks < 1 {
		return fmt.Errorf("lead weeks must be >= 1")
	}
	// booking has to open before the session day starts
	if r.OpenOffsetDays < 1 {
		return fmt.Errorf("open offset days must be >= 1")
	}
	t := r.OpenTime
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return fmt.Errorf("invalid open time %s", t)
	}
	return nil
}

// SessionWindow is derived once per run and never recomputed.
type SessionWindow struct {
	ClassDate time.Time // midnight, local to the rule's timezone
	OpenAt    time.Time
}

// ReadyAt is the instant active preparation (login, navigation) starts.
func (w SessionWindow) ReadyAt(lead time.Duration) time.Time {
	return w.OpenAt.Add(-lead)
}

func (w SessionWindow) Valid() bool {
	return w.OpenAt.Before(w.ClassDate)
}

// Outcome is the terminal classification of one reservation attempt sequence.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeReserved
	OutcomeWaitlisted
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReserved:
		return "reserved"
	case OutcomeWaitlisted:
		return "waitlisted"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Success reports whether the process should exit cleanly for this outcome.
// Waitlisted is terminal but not an error: the session is full this cycle.
func (o Outcome) Success() bool {
	return o == OutcomeReserved || o == OutcomeWaitlisted
}
