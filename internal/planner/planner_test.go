package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/slot-booker/internal/domain/booking"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func date(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestNextWeekdayOnOrAfter(t *testing.T) {
	t.Parallel()
	sun := date(2026, 2, 22, time.UTC)
	require.Equal(t, time.Sunday, sun.Weekday())

	require.Equal(t, sun, NextWeekdayOnOrAfter(sun, time.Sunday))
	require.Equal(t, date(2026, 2, 23, time.UTC), NextWeekdayOnOrAfter(sun, time.Monday))
	require.Equal(t, date(2026, 2, 28, time.UTC), NextWeekdayOnOrAfter(sun, time.Saturday))

	// crosses a year boundary
	require.Equal(t, date(2027, 1, 1, time.UTC), NextWeekdayOnOrAfter(date(2026, 12, 31, time.UTC), time.Friday))
}

func TestTargetClassDateScenario(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 2, 22, 9, 30, 0, 0, time.UTC)
	got := TargetClassDate(time.Monday, now)
	require.Equal(t, date(2026, 3, 2, time.UTC), got)

	open := OpenTimeForClass(got, 20, 0, 0)
	require.Equal(t, time.Date(2026, 2, 22, 20, 0, 0, 0, time.UTC), open)
}

func TestTargetClassDateRange(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
	for day := 0; day < 60; day++ {
		now := start.AddDate(0, 0, day)
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			got := TargetClassDate(wd, now)
			require.Equal(t, wd, got.Weekday())

			lo := date(now.Year(), now.Month(), now.Day()+7, time.UTC)
			hi := date(now.Year(), now.Month(), now.Day()+13, time.UTC)
			require.False(t, got.Before(lo), "now=%s wd=%s got=%s", now, wd, got)
			require.False(t, got.After(hi), "now=%s wd=%s got=%s", now, wd, got)
		}
	}
}

func TestTargetClassDateSameWeekdaySkipsToday(t *testing.T) {
	t.Parallel()
	mon := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.Equal(t, date(2026, 3, 9, time.UTC), TargetClassDate(time.Monday, mon))
}

func TestOpenTimeForClassIdempotent(t *testing.T) {
	t.Parallel()
	class := date(2026, 3, 2, time.UTC)
	a := OpenTimeForClass(class, 6, 30, 15)
	b := OpenTimeForClass(class, 6, 30, 15)
	require.Equal(t, a, b)
	require.Equal(t, time.Date(2026, 2, 22, 6, 30, 15, 0, time.UTC), a)
}

func TestPlanAcrossDST(t *testing.T) {
	t.Parallel()
	ny := mustLoad(t, "America/New_York")
	// 2026-03-08 is the spring-forward date in the US.
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, ny)
	rule := booking.RecurrenceRule{
		TargetWeekday:  time.Tuesday,
		LeadWeeks:      1,
		OpenOffsetDays: 8,
		OpenTime:       booking.ClockTime{Hour: 20},
	}
	w := Plan(rule, now)

	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, ny), w.ClassDate)
	require.Equal(t, 0, w.ClassDate.Hour())
	require.Equal(t, time.Date(2026, 3, 2, 20, 0, 0, 0, ny), w.OpenAt)
	require.True(t, w.Valid())
}

func TestPlanUsesRuleLeadAndOffset(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC)
	rule := booking.RecurrenceRule{
		TargetWeekday:  time.Monday,
		LeadWeeks:      2,
		OpenOffsetDays: 3,
		OpenTime:       booking.ClockTime{Hour: 7, Minute: 45},
	}
	w := Plan(rule, now)
	require.Equal(t, date(2026, 3, 9, time.UTC), w.ClassDate)
	require.Equal(t, time.Date(2026, 3, 6, 7, 45, 0, 0, time.UTC), w.OpenAt)
}

func TestPlanOpenAlwaysBeforeClass(t *testing.T) {
	t.Parallel()
	rule := booking.RecurrenceRule{TargetWeekday: time.Friday, LeadWeeks: 1, OpenOffsetDays: 1, OpenTime: booking.ClockTime{Hour: 23, Minute: 59, Second: 59}}
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		w := Plan(rule, now.AddDate(0, 0, i))
		require.True(t, w.Valid())
	}
}
