// Package attempter drives the reserve/finish sequence once booking is open.
//
// Polling asks the surface whether the reserve control is available; if not,
// whether the session shows as waitlisted; otherwise it reloads and tries
// again every RetryInterval until MaxWait elapses. Probe failures are
// treated as "not yet available" because the surface is expected to be
// inconsistent while it renders.
package attempter

import (
	"context"
	"fmt"
	"time"

	"github.com/example/slot-booker/internal/domain/booking"
	"github.com/example/slot-booker/internal/events"
	"github.com/example/slot-booker/internal/surface"
)

// Surface is the subset of surface.Surface the state machine uses.
type Surface interface {
	IsVisible(ctx context.Context, l surface.Locator) bool
	Click(ctx context.Context, l surface.Locator) error
	Reload(ctx context.Context, wait surface.WaitPolicy) error
}

type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type Controls struct {
	Reserve  surface.Locator
	Finish   surface.Locator
	Waitlist surface.Locator
	Banner   surface.Locator
}

type Config struct {
	RetryInterval time.Duration
	MaxWait       time.Duration
	FinishTimeout time.Duration
	BannerTimeout time.Duration
	// ProbeInterval paces the bounded waits for finish and banner controls.
	ProbeInterval time.Duration

	Controls Controls
}

func DefaultConfig() Config {
	return Config{
		RetryInterval: 350 * time.Millisecond,
		MaxWait:       5 * time.Minute,
		FinishTimeout: 15 * time.Second,
		BannerTimeout: 6 * time.Second,
		ProbeInterval: 100 * time.Millisecond,
	}
}

type Attempter struct {
	cfg     Config
	surface Surface
	obs     events.Observer
	clock   Clock
}

func New(cfg Config, s Surface, obs events.Observer, clock Clock) *Attempter {
	if obs == nil {
		obs = events.Nop
	}
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 100 * time.Millisecond
	}
	return &Attempter{cfg: cfg, surface: s, obs: obs, clock: clock}
}

// Run polls until the session is reserved, shown as waitlisted, or MaxWait
// runs out. Waitlisted is returned without an error.
func (a *Attempter) Run(ctx context.Context) (booking.Outcome, error) {
	deadline := a.clock.Now().Add(a.cfg.MaxWait)

	for attempt := 1; ; attempt++ {
		a.emit(events.Event{Kind: events.KindPoll, Attempt: attempt})

		if a.surface.IsVisible(ctx, a.cfg.Controls.Reserve) {
			return a.reserve(ctx, attempt)
		}
		if a.surface.IsVisible(ctx, a.cfg.Controls.Waitlist) {
			a.emit(events.Event{Kind: events.KindWaitlisted, Attempt: attempt, Detail: "session is full"})
			return booking.OutcomeWaitlisted, nil
		}

		if !a.clock.Now().Before(deadline) {
			err := fmt.Errorf("%w after %s (%d attempts)", booking.ErrTimedOut, a.cfg.MaxWait, attempt)
			a.emit(events.Event{Kind: events.KindTimedOut, Attempt: attempt, Err: err})
			return booking.OutcomeTimedOut, err
		}

		if err := a.surface.Reload(ctx, surface.WaitDOMContentLoaded); err != nil {
			a.emit(events.Event{Kind: events.KindReload, Attempt: attempt, Err: err, Detail: "reload failed, retrying"})
		} else {
			a.emit(events.Event{Kind: events.KindReload, Attempt: attempt})
		}

		if err := a.clock.Sleep(ctx, a.cfg.RetryInterval); err != nil {
			return booking.OutcomeUnknown, err
		}
	}
}

func (a *Attempter) reserve(ctx context.Context, attempt int) (booking.Outcome, error) {
	a.emit(events.Event{Kind: events.KindReserving, Attempt: attempt})
	if err := a.surface.Click(ctx, a.cfg.Controls.Reserve); err != nil {
		return booking.OutcomeUnknown, fmt.Errorf("click reserve: %w", err)
	}

	a.emit(events.Event{Kind: events.KindFinishing, Attempt: attempt})
	ok, err := a.waitFor(ctx, a.cfg.Controls.Finish, a.cfg.FinishTimeout)
	if err != nil {
		return booking.OutcomeUnknown, err
	}
	if !ok {
		err := fmt.Errorf("%w within %s", booking.ErrFinishTimeout, a.cfg.FinishTimeout)
		a.emit(events.Event{Kind: events.KindFailed, Attempt: attempt, Err: err})
		return booking.OutcomeUnknown, err
	}
	if err := a.surface.Click(ctx, a.cfg.Controls.Finish); err != nil {
		return booking.OutcomeUnknown, fmt.Errorf("click finish: %w", err)
	}

	a.emit(events.Event{Kind: events.KindReserved, Attempt: attempt})
	return booking.OutcomeReserved, nil
}

// DismissBanner closes a consent banner if one shows up within
// BannerTimeout. A missing banner is not an error.
func (a *Attempter) DismissBanner(ctx context.Context) bool {
	ok, err := a.waitFor(ctx, a.cfg.Controls.Banner, a.cfg.BannerTimeout)
	if err != nil || !ok {
		return false
	}
	if err := a.surface.Click(ctx, a.cfg.Controls.Banner); err != nil {
		return false
	}
	a.emit(events.Event{Kind: events.KindBannerClosed})
	return true
}

// waitFor polls IsVisible until it holds or timeout passes. The error is
// only ever a context error.
func (a *Attempter) waitFor(ctx context.Context, l surface.Locator, timeout time.Duration) (bool, error) {
	deadline := a.clock.Now().Add(timeout)
	for {
		if a.surface.IsVisible(ctx, l) {
			return true, nil
		}
		if !a.clock.Now().Before(deadline) {
			return false, nil
		}
		if err := a.clock.Sleep(ctx, a.cfg.ProbeInterval); err != nil {
			return false, err
		}
	}
}

func (a *Attempter) emit(e events.Event) {
	if e.At.IsZero() {
		e.At = a.clock.Now()
	}
	a.obs.Emit(e)
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
