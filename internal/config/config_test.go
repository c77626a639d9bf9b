package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/slot-booker/internal/domain/booking"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, time.Monday, cfg.Rule.TargetWeekday)
	require.Equal(t, 1, cfg.Rule.LeadWeeks)
	require.Equal(t, 8, cfg.Rule.OpenOffsetDays)
	require.Equal(t, booking.ClockTime{Hour: 20}, cfg.Rule.OpenTime)
	require.Equal(t, 2*time.Minute, cfg.ReadyLead)
	require.True(t, cfg.UseWaitUntilOpen)
	require.Equal(t, 350*time.Millisecond, cfg.RetryInterval)
	require.Equal(t, 5*time.Minute, cfg.MaxWait)
	require.Equal(t, 15*time.Second, cfg.FinishTimeout)
	require.Equal(t, 6*time.Second, cfg.BannerTimeout)
	require.Equal(t, 400*time.Millisecond, cfg.SpinThreshold)
	require.Equal(t, 200*time.Millisecond, cfg.SpinGuard)
	require.Equal(t, "https://my.lifetime.life/login.html", cfg.Site.LoginURL)
	require.Equal(t, "week", cfg.Site.CalendarMode)
	require.Equal(t, "UTC", cfg.Location.String())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CI", "true")
	t.Setenv("TARGET_WEEKDAY", "3")
	t.Setenv("OPEN_TIME", "06:30")
	t.Setenv("MUST_INCLUDE", "Pickleball, 7:00 PM")
	t.Setenv("READY_MINUTES_BEFORE", "5")
	t.Setenv("USE_WAIT_UNTIL_OPEN", "false")
	t.Setenv("RETRY_INTERVAL_MS", "500")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.True(t, cfg.CI)
	require.Zero(t, cfg.SlowMo)
	require.Equal(t, time.Wednesday, cfg.Rule.TargetWeekday)
	require.Equal(t, booking.ClockTime{Hour: 6, Minute: 30}, cfg.Rule.OpenTime)
	require.Equal(t, booking.MatchCriteria{"Pickleball", "7:00 PM"}, cfg.MustInclude)
	require.Equal(t, 5*time.Minute, cfg.ReadyLead)
	require.False(t, cfg.UseWaitUntilOpen)
	require.Equal(t, 500*time.Millisecond, cfg.RetryInterval)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"weekday out of range", "TARGET_WEEKDAY", "7"},
		{"weekday not a number", "TARGET_WEEKDAY", "mon"},
		{"open offset zero", "OPEN_OFFSET_DAYS", "0"},
		{"bad open time", "OPEN_TIME", "25:00"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus"},
		{"negative ready", "READY_MINUTES_BEFORE", "-1"},
		{"guard above threshold", "SPIN_GUARD_MS", "500"},
		{"zero retry", "RETRY_INTERVAL_MS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := Config{Site: Site{ClubPath: "mn/eden-prairie"}}
	err := cfg.RequireCredentials()
	require.ErrorIs(t, err, booking.ErrConfiguration)

	cfg.Username, cfg.Password = "me@example.com", "secret"
	require.NoError(t, cfg.RequireCredentials())

	cfg.Site.ClubPath = ""
	require.ErrorIs(t, cfg.RequireCredentials(), booking.ErrConfiguration)
}

func TestScheduleURL(t *testing.T) {
	t.Parallel()
	s := Site{
		BaseURL:      "https://my.lifetime.life/",
		ClubPath:     "/mn/eden-prairie/",
		Location:     "Eden Prairie",
		Interest:     "Pickleball Open Play",
		CalendarMode: "week",
	}
	got, err := s.ScheduleURL(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t,
		"https://my.lifetime.life/clubs/mn/eden-prairie/classes.html?interest=Pickleball+Open+Play&location=Eden+Prairie&mode=week&selectedDate=2026-03-02&teamMemberView=true",
		got)
}

func TestParseClock(t *testing.T) {
	t.Parallel()
	c, err := ParseClock("20:00")
	require.NoError(t, err)
	require.Equal(t, booking.ClockTime{Hour: 20}, c)

	c, err = ParseClock("07:05:09")
	require.NoError(t, err)
	require.Equal(t, booking.ClockTime{Hour: 7, Minute: 5, Second: 9}, c)

	_, err = ParseClock("noon")
	require.Error(t, err)
}
