// Package jobs runs background work on a timer: each job computes its own
// next run time and the scheduler sleeps until the earliest one is due.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job is a unit of scheduled background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
	GetNextRunTime() time.Time
}

// Scheduler drives registered jobs. Jobs run sequentially on one goroutine;
// a panicking job is recovered and rescheduled rather than taking down the
// scheduler.
type Scheduler struct {
	jobs []Job

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start launches the scheduler loop. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(ctx)
	log.Printf("✅ Job scheduler started with %d jobs", len(s.jobs))
}

// Stop cancels the loop and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.started = false
	s.mu.Unlock()

	cancel()
	<-done
	log.Printf("✅ Job scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		job, next := s.nextDue()
		if job == nil {
			return
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.run(ctx, job)
	}
}

func (s *Scheduler) nextDue() (Job, time.Time) {
	var (
		due     Job
		dueTime time.Time
	)
	for _, job := range s.jobs {
		next := job.GetNextRunTime()
		if due == nil || next.Before(dueTime) {
			due = job
			dueTime = next
		}
	}
	return due, dueTime
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  Job %s panicked: %v", job.Name(), r)
		}
	}()

	if err := job.Run(ctx); err != nil {
		log.Printf("⚠️  Job %s failed: %v", job.Name(), err)
	}
}
