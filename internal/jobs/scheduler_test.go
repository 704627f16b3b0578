package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	runs     atomic.Int32
	interval time.Duration

	mu      sync.Mutex
	nextRun time.Time
}

func newCountingJob(interval time.Duration) *countingJob {
	return &countingJob{interval: interval, nextRun: time.Now()}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	j.mu.Lock()
	j.nextRun = time.Now().Add(j.interval)
	j.mu.Unlock()
	return nil
}

func (j *countingJob) GetNextRunTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextRun
}

func TestSchedulerRunsDueJobs(t *testing.T) {
	job := newCountingJob(10 * time.Millisecond)
	scheduler := NewScheduler(job)
	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.After(2 * time.Second)
	for job.runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", job.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerStopWaitsAndIsIdempotent(t *testing.T) {
	job := newCountingJob(time.Millisecond)
	scheduler := NewScheduler(job)
	scheduler.Start()
	scheduler.Start() // second Start is a no-op

	scheduler.Stop()
	runs := job.runs.Load()
	time.Sleep(20 * time.Millisecond)
	if got := job.runs.Load(); got != runs {
		t.Errorf("jobs must not run after Stop: %d -> %d", runs, got)
	}

	scheduler.Stop() // second Stop is a no-op
}

type panickyJob struct {
	ran atomic.Int32

	mu      sync.Mutex
	nextRun time.Time
}

func (j *panickyJob) Name() string { return "panicky" }

func (j *panickyJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.nextRun = time.Now().Add(5 * time.Millisecond)
	j.mu.Unlock()
	if j.ran.Add(1) == 1 {
		panic("boom")
	}
	return errors.New("still unhappy")
}

func (j *panickyJob) GetNextRunTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextRun
}

func TestSchedulerSurvivesPanickingJob(t *testing.T) {
	job := &panickyJob{nextRun: time.Now()}
	scheduler := NewScheduler(job)
	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.After(2 * time.Second)
	for job.ran.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("scheduler did not reschedule after panic, runs=%d", job.ran.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
