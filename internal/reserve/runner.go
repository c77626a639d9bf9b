// Package reserve runs one reservation attempt end to end: plan the target
// session, wait for the ready instant, log in and open the session, wait
// for the exact open instant, then hand over to the attempter.
package reserve

import (
	"context"
	"fmt"
	"time"

	"github.com/example/slot-booker/internal/attempter"
	"github.com/example/slot-booker/internal/config"
	"github.com/example/slot-booker/internal/domain/booking"
	"github.com/example/slot-booker/internal/events"
	"github.com/example/slot-booker/internal/planner"
	"github.com/example/slot-booker/internal/surface"
	"github.com/example/slot-booker/internal/synchronizer"
)

const (
	minDayColumns   = 7
	loginTimeout    = 15 * time.Second
	calendarTimeout = 15 * time.Second
	linkTimeout     = 5 * time.Second
)

// Opener acquires the surface for one run.
type Opener func(ctx context.Context) (surface.Surface, error)

type Runner struct {
	Config    config.Config
	Open      Opener
	Observer  events.Observer
	Selectors Selectors

	// Window, when set, is used as planned instead of planning from Now.
	Window *booking.SessionWindow

	// Now, Sync and Clock default to the real clock.
	Now   func() time.Time
	Sync  *synchronizer.Synchronizer
	Clock attempter.Clock
}

type Result struct {
	Window   booking.SessionWindow
	Outcome  booking.Outcome
	CardText string
}

// Plan computes the session window from the configured rule.
func (r *Runner) Plan() booking.SessionWindow {
	return planner.Plan(r.Config.Rule, r.now().In(r.Config.Location))
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	cfg := r.Config
	if err := cfg.RequireCredentials(); err != nil {
		return Result{}, err
	}

	if err := cfg.Rule.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", booking.ErrConfiguration, err)
	}

	var w booking.SessionWindow
	if r.Window != nil {
		w = *r.Window
	} else {
		w = r.Plan()
	}
	if !w.Valid() {
		return Result{Window: w}, fmt.Errorf("%w: booking opens at %s, not before the session day %s",
			booking.ErrConfiguration, w.OpenAt.Format(time.RFC3339), w.ClassDate.Format("2006-01-02"))
	}
	res := Result{Window: w}
	readyAt := w.ReadyAt(cfg.ReadyLead)
	r.emit(events.Event{Kind: events.KindPlanned, Fields: map[string]any{
		"class_date": w.ClassDate.Format("2006-01-02 Mon"),
		"open_at":    w.OpenAt.Format(time.RFC3339),
		"ready_at":   readyAt.Format(time.RFC3339),
	}})

	if cfg.UseWaitUntilOpen {
		r.emit(events.Event{Kind: events.KindWaiting, Detail: "until ready", Fields: map[string]any{
			"target": readyAt.Format(time.RFC3339),
			"in_ms":  synchronizer.MsUntil(readyAt, r.now()),
		}})
		if err := r.sync().WaitUntil(ctx, readyAt); err != nil {
			return res, err
		}
		r.emit(events.Event{Kind: events.KindReady})
	}

	s, err := r.Open(ctx)
	if err != nil {
		return res, fmt.Errorf("open surface: %w", err)
	}
	defer s.Close()

	att := attempter.New(r.attempterConfig(), s, r.observer(), r.Clock)

	if err := r.login(ctx, s, att); err != nil {
		return res, err
	}
	text, err := r.openSession(ctx, s, att, w.ClassDate)
	if err != nil {
		return res, err
	}
	res.CardText = text

	if cfg.UseWaitUntilOpen {
		r.emit(events.Event{Kind: events.KindWaiting, Detail: "until open", Fields: map[string]any{
			"target": w.OpenAt.Format(time.RFC3339Nano),
			"in_ms":  synchronizer.MsUntil(w.OpenAt, r.now()),
		}})
		if err := r.sync().WaitUntil(ctx, w.OpenAt); err != nil {
			return res, err
		}
		r.emit(events.Event{Kind: events.KindOpen, Fields: map[string]any{"late_ms": -synchronizer.MsUntil(w.OpenAt, r.now())}})
		if err := s.Reload(ctx, surface.WaitDOMContentLoaded); err != nil {
			r.emit(events.Event{Kind: events.KindReload, Err: err, Detail: "reload at open failed"})
		}
	}

	res.Outcome, err = att.Run(ctx)
	return res, err
}

func (r *Runner) login(ctx context.Context, s surface.Surface, att *attempter.Attempter) error {
	sel := r.Selectors
	if err := s.Navigate(ctx, r.Config.Site.LoginURL, surface.WaitLoad); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	att.DismissBanner(ctx)
	if err := s.Fill(ctx, sel.Username, r.Config.Username); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.Fill(ctx, sel.Password, r.Config.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.Click(ctx, sel.LoginButton); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.WaitURL(ctx, sel.LoggedInURL, loginTimeout); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	r.emit(events.Event{Kind: events.KindLoggedIn})
	return nil
}

// openSession finds the target session on the calendar and follows its
// reservation-detail link. Structural mismatches return booking.ErrNotFound.
func (r *Runner) openSession(ctx context.Context, s surface.Surface, att *attempter.Attempter, classDate time.Time) (string, error) {
	sel := r.Selectors
	url, err := r.Config.Site.ScheduleURL(classDate)
	if err != nil {
		return "", err
	}
	if err := s.Navigate(ctx, url, surface.WaitNetworkIdle); err != nil {
		return "", fmt.Errorf("schedule: %w", err)
	}
	att.DismissBanner(ctx)

	// a missing calendar shows up as a short column count below
	days := surface.CSS(sel.DayColumns)
	_ = s.WaitVisible(ctx, days, calendarTimeout)
	n, err := s.Count(ctx, days)
	if err != nil {
		return "", fmt.Errorf("schedule: %w", err)
	}
	if n < minDayColumns {
		return "", fmt.Errorf("%w: expected %d day columns, found %d", booking.ErrNotFound, minDayColumns, n)
	}

	// columns run Sunday first, so the weekday is the column index
	cards := days.At(int(classDate.Weekday())).Find(sel.Cards)
	count, err := s.Count(ctx, cards)
	if err != nil {
		return "", fmt.Errorf("schedule: %w", err)
	}
	texts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		t, err := s.InnerText(ctx, cards.At(i))
		if err != nil {
			return "", fmt.Errorf("schedule: %w", err)
		}
		texts = append(texts, t)
	}
	idx, ok := booking.ChooseCard(texts, r.Config.MustInclude)
	if !ok {
		return "", fmt.Errorf("%w: no session on %s matches %q (%d cards)",
			booking.ErrNotFound, classDate.Format("2006-01-02"), []string(r.Config.MustInclude), count)
	}

	link := cards.At(idx).Find(sel.DetailLink)
	if err := s.WaitVisible(ctx, link, linkTimeout); err != nil {
		return "", fmt.Errorf("%w: reservation-detail link: %v", booking.ErrNotFound, err)
	}
	if err := s.Click(ctx, link); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	r.emit(events.Event{Kind: events.KindSessionFound, Detail: texts[idx]})
	return texts[idx], nil
}

func (r *Runner) attempterConfig() attempter.Config {
	c := attempter.DefaultConfig()
	c.RetryInterval = r.Config.RetryInterval
	c.MaxWait = r.Config.MaxWait
	c.FinishTimeout = r.Config.FinishTimeout
	c.BannerTimeout = r.Config.BannerTimeout
	c.Controls = r.Selectors.Controls
	return c
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) sync() *synchronizer.Synchronizer {
	if r.Sync == nil {
		r.Sync = synchronizer.New(r.Config.SpinThreshold, r.Config.SpinGuard)
	}
	return r.Sync
}

func (r *Runner) observer() events.Observer {
	if r.Observer == nil {
		return events.Nop
	}
	return r.Observer
}

func (r *Runner) emit(e events.Event) {
	if e.At.IsZero() {
		e.At = r.now()
	}
	r.observer().Emit(e)
}
