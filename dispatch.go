package iotcore

import (
	"context"
)

// Schedule queues f to run once at the start of the next iteration, before
// component dispatch. Scheduled functions run in submission order; a function
// scheduled while the queue is being drained runs in the following iteration.
// Must be called from the loop goroutine; use Post from elsewhere.
func (s *System) Schedule(f func()) {
	if f != nil {
		s.scheduled = append(s.scheduled, f)
	}
}

// Pending returns the number of scheduled functions not yet run.
func (s *System) Pending() int {
	return len(s.scheduled)
}

// runScheduled drains the functions queued before this call.
func (s *System) runScheduled() {
	if len(s.scheduled) == 0 {
		return
	}
	batch := s.scheduled
	s.scheduled = nil
	for _, f := range batch {
		f()
	}
}

// Post hands f to the loop goroutine without waiting. It is safe to call from
// any goroutine and reports false when the job queue is full.
func (s *System) Post(f func()) bool {
	if f == nil {
		return false
	}
	select {
	case s.jobs <- job{fn: f}:
		return true
	default:
		return false
	}
}

// Dispatch runs f on the loop goroutine at its next yield point and waits for
// it to finish. It is safe to call from any goroutine except the loop's own.
// If ctx ends first the error is returned; a job already queued still runs.
func (s *System) Dispatch(ctx context.Context, f func()) error {
	if f == nil {
		return fmtErrorf("dispatch function cannot be nil")
	}
	done := make(chan struct{})
	select {
	case s.jobs <- job{fn: f, done: done}:
	case <-ctx.Done():
		return fmtErrorf("dispatch not queued: %w", ctx.Err())
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmtErrorf("dispatch not completed: %w", ctx.Err())
	}
}

// runJobs executes jobs queued by other goroutines, at most one queue
// capacity per call so a busy producer cannot hold the loop.
func (s *System) runJobs() {
	for n := cap(s.jobs); n > 0; n-- {
		select {
		case j := <-s.jobs:
			s.runJob(j)
		default:
			return
		}
	}
}

func (s *System) runJob(j job) {
	if j.done != nil {
		defer close(j.done)
	}
	j.fn()
}
