// Package scheduler runs recurring jobs at times described by RRULE strings.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// Task is the work a job performs. now is the occurrence being run.
type Task func(ctx context.Context, now time.Time) error

// Job pairs a recurrence rule with a task
type Job struct {
	Name string
	rule *rrule.RRule
	loc  *time.Location
	task Task
}

// NewJob parses rule and binds it to loc. Fields the rule leaves out
// (BYMINUTE, BYSECOND) default to zero.
func NewJob(name, rule string, loc *time.Location, task Task) (*Job, error) {
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule for job %s: %w", name, err)
	}
	return &Job{Name: name, rule: parsed, loc: loc, task: task}, nil
}

// Next returns the first occurrence strictly after now, or the zero time
// when the rule has ended
func (j *Job) Next(now time.Time) time.Time {
	local := now.In(j.loc)
	j.rule.DTStart(time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, j.loc))
	return j.rule.After(local, false)
}

// Scheduler runs each job in its own goroutine
type Scheduler struct {
	jobs   []*Job
	logger *zap.Logger
	now    func() time.Time
}

// New creates a scheduler using the wall clock
func New(logger *zap.Logger, jobs ...*Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger, now: time.Now}
}

// Run blocks until ctx is cancelled and every job goroutine has returned
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job *Job) {
	for {
		now := s.now()
		next := job.Next(now)
		if next.IsZero() {
			s.logger.Info("Job has no further occurrences", zap.String("job", job.Name))
			return
		}

		s.logger.Debug("Job scheduled", zap.String("job", job.Name), zap.Time("next", next))
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("Job stopped", zap.String("job", job.Name))
			return
		case <-timer.C:
		}

		start := time.Now()
		if err := job.task(ctx, next); err != nil {
			s.logger.Error("Job failed", zap.String("job", job.Name), zap.Error(err))
			continue
		}
		s.logger.Info("Job finished",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(start)))
	}
}
