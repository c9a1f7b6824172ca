// Package scheduler drives repeated health runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// StaleFactor is how many schedule intervals may pass without a completed
// run before the liveness check fails.
const StaleFactor = 3

// parser accepts five-field expressions, an optional leading seconds field,
// and descriptors such as "@every 5m" or "@hourly".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler runs a single job on a cron schedule. Overlapping runs are
// skipped, so a slow run delays the next instead of stacking.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	now      func() time.Time

	mu      sync.RWMutex
	started time.Time
	lastRun time.Time
	runs    int
}

// New parses spec and returns a Scheduler for it.
func New(spec string) (*Scheduler, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, now: time.Now}, nil
}

// Spec returns the schedule expression.
func (s *Scheduler) Spec() string { return s.spec }

// Interval estimates the gap between two consecutive activations.
func (s *Scheduler) Interval() time.Duration {
	first := s.schedule.Next(s.now())
	return s.schedule.Next(first).Sub(first)
}

// Run executes job once immediately, then on every activation until ctx is
// done. It returns after the in-flight run, if any, has finished.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	logger := log.FromContext(ctx).WithName("scheduler")

	s.mu.Lock()
	s.started = s.now()
	s.mu.Unlock()

	cronLog := logger.V(1)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	run := cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		job(ctx)
		s.markRun()
	})
	c.Schedule(s.schedule, run)

	logger.Info("scheduler started", "schedule", s.spec, "interval", s.Interval().String())
	run.Run()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("scheduler stopped", "runs", s.Runs())
	return nil
}

func (s *Scheduler) markRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = s.now()
	s.runs++
}

// LastRun returns when the most recent run completed, zero before the first.
func (s *Scheduler) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Runs returns how many runs have completed.
func (s *Scheduler) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// Check is a healthz checker that fails once the last completed run is
// older than StaleFactor intervals. Before the first run the start time is used.
func (s *Scheduler) Check(_ *http.Request) error {
	s.mu.RLock()
	ref := s.lastRun
	if ref.IsZero() {
		ref = s.started
	}
	s.mu.RUnlock()

	if ref.IsZero() {
		return fmt.Errorf("scheduler not started")
	}
	limit := StaleFactor * s.Interval()
	if age := s.now().Sub(ref); age > limit {
		return fmt.Errorf("last run completed %s ago, limit %s", age.Round(time.Second), limit)
	}
	return nil
}
