// Package scheduler fires one independent booking run per cron trigger.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one complete run. It must not share state with earlier runs.
type Job func(ctx context.Context) error

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Next returns the first firing of spec strictly after now, in loc.
func Next(spec string, loc *time.Location, now time.Time) (time.Time, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return sched.Next(now.In(loc)), nil
}

type Scheduler struct {
	Spec     string
	Location *time.Location
	Job      Job
	Log      zerolog.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

// Run blocks until ctx is done, then waits for an in-flight run to
// return. A clean shutdown returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	sched, err := parser.Parse(s.Spec)
	if err != nil {
		return fmt.Errorf("invalid cron %q: %w", s.Spec, err)
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	c.Schedule(sched, cron.FuncJob(func() { s.Fire(ctx) }))
	c.Start()
	s.Log.Info().Str("cron", s.Spec).Str("tz", loc.String()).
		Time("next", sched.Next(time.Now().In(loc))).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.wg.Wait()
	s.Log.Info().Msg("scheduler stopped")
	return nil
}

// Fire runs the job unless a previous firing is still in flight, in which
// case it logs and returns false.
func (s *Scheduler) Fire(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.Log.Warn().Msg("previous run still in flight, skipping trigger")
		return false
	}
	s.wg.Add(1)
	defer func() {
		s.running.Store(false)
		s.wg.Done()
	}()

	start := time.Now()
	if err := s.Job(ctx); err != nil {
		s.Log.Error().Err(err).Dur("took", time.Since(start)).Msg("run failed")
		return true
	}
	s.Log.Info().Dur("took", time.Since(start)).Msg("run finished")
	return true
}
