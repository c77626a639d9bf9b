package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecurrenceRuleValidate(t *testing.T) {
	t.Parallel()
	ok := RecurrenceRule{TargetWeekday: time.Monday, LeadWeeks: 1, OpenOffsetDays: 8, OpenTime: ClockTime{20, 0, 0}}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.TargetWeekday = 7
	require.Error(t, bad.Validate())

	bad = ok
	bad.OpenOffsetDays = 0
	require.Error(t, bad.Validate())

	bad = ok
	bad.LeadWeeks = 0
	require.Error(t, bad.Validate())

	bad = ok
	bad.OpenTime = ClockTime{24, 0, 0}
	require.Error(t, bad.Validate())
}

func TestOutcomeSuccess(t *testing.T) {
	t.Parallel()
	require.True(t, OutcomeReserved.Success())
	require.True(t, OutcomeWaitlisted.Success())
	require.False(t, OutcomeTimedOut.Success())
	require.False(t, OutcomeUnknown.Success())
	require.Equal(t, "timed_out", OutcomeTimedOut.String())
}

func TestSessionWindowReadyAt(t *testing.T) {
	t.Parallel()
	open := time.Date(2026, 2, 22, 20, 0, 0, 0, time.UTC)
	w := SessionWindow{ClassDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), OpenAt: open}
	require.True(t, w.Valid())
	require.Equal(t, open.Add(-2*time.Minute), w.ReadyAt(2*time.Minute))
}
