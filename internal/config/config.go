package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/slot-booker/internal/domain/booking"
)

type Config struct {
	Username string
	Password string

	// CI selects a headless browser with no interaction delay.
	CI     bool
	SlowMo time.Duration

	Rule     booking.RecurrenceRule
	Location *time.Location

	MustInclude      booking.MatchCriteria
	ReadyLead        time.Duration
	UseWaitUntilOpen bool

	RetryInterval time.Duration
	MaxWait       time.Duration
	FinishTimeout time.Duration
	BannerTimeout time.Duration

	SpinThreshold time.Duration
	SpinGuard     time.Duration

	Site Site

	DatabaseURL  string
	LogLevel     string
	ScheduleCron string
}

// Site holds the schedule-URL template parameters.
type Site struct {
	BaseURL      string
	LoginURL     string
	ClubPath     string
	Location     string
	Interest     string
	CalendarMode string
}

// ScheduleURL renders the calendar URL for the week containing day.
func (s Site) ScheduleURL(day time.Time) (string, error) {
	u, err := url.Parse(strings.TrimRight(s.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid SCHEDULE_BASE_URL: %w", err)
	}
	u.Path = "/clubs/" + strings.Trim(s.ClubPath, "/") + "/classes.html"
	q := url.Values{}
	q.Set("teamMemberView", "true")
	q.Set("mode", s.CalendarMode)
	q.Set("selectedDate", day.Format("2006-01-02"))
	if s.Location != "" {
		q.Set("location", s.Location)
	}
	if s.Interest != "" {
		q.Set("interest", s.Interest)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FromEnv reads the whole configuration once. Credentials are checked
// separately by RequireCredentials so that commands which never touch the
// surface (plan, version) work without them.
func FromEnv() (Config, error) {
	cfg := Config{
		Username:     strings.TrimSpace(os.Getenv("BOOKING_USERNAME")),
		Password:     os.Getenv("BOOKING_PASSWORD"),
		CI:           envBool("CI", false),
		MustInclude:  booking.ParseCriteria(os.Getenv("MUST_INCLUDE")),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		ScheduleCron: strings.TrimSpace(os.Getenv("SCHEDULE_CRON")),
	}

	base := strings.TrimRight(getenv("SCHEDULE_BASE_URL", "https://my.lifetime.life"), "/")
	cfg.Site = Site{
		BaseURL:      base,
		LoginURL:     getenv("LOGIN_URL", base+"/login.html"),
		ClubPath:     os.Getenv("CLUB_PATH"),
		Location:     os.Getenv("LOCATION"),
		Interest:     os.Getenv("INTEREST"),
		CalendarMode: getenv("CALENDAR_MODE", "week"),
	}

	var err error
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	} else {
		cfg.Location = time.Local
	}

	weekday, err := envInt("TARGET_WEEKDAY", 1)
	if err != nil {
		return Config{}, err
	}
	leadWeeks, err := envInt("LEAD_WEEKS", 1)
	if err != nil {
		return Config{}, err
	}
	offsetDays, err := envInt("OPEN_OFFSET_DAYS", 8)
	if err != nil {
		return Config{}, err
	}
	openTime, err := ParseClock(getenv("OPEN_TIME", "20:00:00"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OPEN_TIME: %w", err)
	}
	cfg.Rule = booking.RecurrenceRule{
		TargetWeekday:  time.Weekday(weekday),
		LeadWeeks:      leadWeeks,
		OpenOffsetDays: offsetDays,
		OpenTime:       openTime,
	}
	if err := cfg.Rule.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", booking.ErrConfiguration, err)
	}

	readyMin, err := envInt("READY_MINUTES_BEFORE", 2)
	if err != nil {
		return Config{}, err
	}
	if readyMin < 0 {
		return Config{}, fmt.Errorf("READY_MINUTES_BEFORE must be >= 0")
	}
	cfg.ReadyLead = time.Duration(readyMin) * time.Minute
	cfg.UseWaitUntilOpen = envBool("USE_WAIT_UNTIL_OPEN", true)

	durations := []struct {
		key string
		def int
		dst *time.Duration
	}{
		{"SLOW_MO_MS", 100, &cfg.SlowMo},
		{"RETRY_INTERVAL_MS", 350, &cfg.RetryInterval},
		{"MAX_WAIT_MS", 300000, &cfg.MaxWait},
		{"FINISH_TIMEOUT_MS", 15000, &cfg.FinishTimeout},
		{"BANNER_TIMEOUT_MS", 6000, &cfg.BannerTimeout},
		{"SPIN_THRESHOLD_MS", 400, &cfg.SpinThreshold},
		{"SPIN_GUARD_MS", 200, &cfg.SpinGuard},
	}
	for _, d := range durations {
		ms, err := envInt(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		if ms < 0 {
			return Config{}, fmt.Errorf("invalid %s: must be >= 0", d.key)
		}
		*d.dst = time.Duration(ms) * time.Millisecond
	}
	if cfg.CI {
		cfg.SlowMo = 0
	}
	if cfg.RetryInterval <= 0 || cfg.MaxWait <= 0 {
		return Config{}, fmt.Errorf("RETRY_INTERVAL_MS and MAX_WAIT_MS must be > 0")
	}
	if cfg.SpinGuard >= cfg.SpinThreshold {
		return Config{}, fmt.Errorf("SPIN_GUARD_MS must be less than SPIN_THRESHOLD_MS")
	}

	return cfg, nil
}

// RequireCredentials fails fast before any surface interaction.
func (c Config) RequireCredentials() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("%w: BOOKING_USERNAME and BOOKING_PASSWORD are required", booking.ErrConfiguration)
	}
	if strings.TrimSpace(c.Site.ClubPath) == "" {
		return fmt.Errorf("%w: CLUB_PATH is required", booking.ErrConfiguration)
	}
	return nil
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (booking.ClockTime, error) {
	s = strings.TrimSpace(s)
	// normalize to HH:MM:SS
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return booking.ClockTime{}, fmt.Errorf("want HH:MM or HH:MM:SS, got %q", s)
	}
	return booking.ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", k, v)
	}
	return n, nil
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
