// Package synchronizer suspends the caller until an exact instant: a coarse
// sleep gets close, then a busy-spin covers the last stretch so the wake-up
// is not at the mercy of timer granularity.
package synchronizer

import (
	"context"
	"time"
)

const (
	DefaultThreshold = 400 * time.Millisecond
	DefaultSpinGuard = 200 * time.Millisecond
)

// MsUntil returns target-now in milliseconds; negative once target passed.
func MsUntil(target, now time.Time) int64 {
	return target.Sub(now).Milliseconds()
}

type Synchronizer struct {
	// Threshold is the remaining time above which the coarse sleep is used.
	Threshold time.Duration
	// SpinGuard is how far before target the coarse sleep ends.
	SpinGuard time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Synchronizer)

// WithClock replaces the time source and sleeper; used by tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Synchronizer) {
		s.now = now
		s.sleep = sleep
	}
}

func New(threshold, spinGuard time.Duration, opts ...Option) *Synchronizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if spinGuard <= 0 || spinGuard >= threshold {
		spinGuard = threshold / 2
	}
	s := &Synchronizer{
		Threshold: threshold,
		SpinGuard: spinGuard,
		now:       time.Now,
		sleep:     sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WaitUntil returns once the clock reads target or later. A target already
// in the past returns immediately. Only the coarse sleep observes ctx; the
// final spin runs to completion.
func (s *Synchronizer) WaitUntil(ctx context.Context, target time.Time) error {
	remaining := target.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	if remaining > s.Threshold {
		if err := s.sleep(ctx, remaining-s.SpinGuard); err != nil {
			return err
		}
	}
	for target.Sub(s.now()) > 0 {
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
