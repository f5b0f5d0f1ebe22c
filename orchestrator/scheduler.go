package orchestrator

import (
	"context"
	"time"

	Logger "github.com/russo2100/bob-2/utils/log"
)

// Scheduler fires a job once per day at a fixed local time. There is no
// in-process state beyond the next trigger time.
type Scheduler struct {
	Hour     int
	Minute   int
	Location *time.Location
	Now      func() time.Time
}

func NewScheduler(hour, minute int, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{Hour: hour, Minute: minute, Location: loc, Now: time.Now}
}

// NextTrigger returns the next daily trigger strictly after now.
func (s *Scheduler) NextTrigger(now time.Time) time.Time {
	local := now.In(s.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, s.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunForever blocks, invoking job at every daily trigger until the context is
// cancelled.
func (s *Scheduler) RunForever(ctx context.Context, job func(context.Context)) error {
	for {
		next := s.NextTrigger(s.Now())
		wait := next.Sub(s.Now())
		Logger.Log.Infof("next pipeline run scheduled at %s (in %s)", next.Format(time.RFC1123), wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			job(ctx)
		}
	}
}
