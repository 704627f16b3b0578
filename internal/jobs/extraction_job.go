package jobs

import (
	"context"
	"sync"
	"time"
)

// ExtractionProcessor drains the pending memory extraction queue.
type ExtractionProcessor interface {
	ProcessPendingJobs(ctx context.Context) error
}

// ExtractionJob periodically sweeps for extraction jobs that the async
// fast path missed, for example jobs enqueued right before a crash or
// while the provider was down.
type ExtractionJob struct {
	processor ExtractionProcessor
	interval  time.Duration

	mu      sync.Mutex
	nextRun time.Time
}

func NewExtractionJob(processor ExtractionProcessor, interval time.Duration) *ExtractionJob {
	return &ExtractionJob{
		processor: processor,
		interval:  interval,
		nextRun:   time.Now().Add(interval),
	}
}

func (j *ExtractionJob) Name() string { return "memory-extraction-sweep" }

func (j *ExtractionJob) Run(ctx context.Context) error {
	defer func() {
		j.mu.Lock()
		j.nextRun = time.Now().Add(j.interval)
		j.mu.Unlock()
	}()
	return j.processor.ProcessPendingJobs(ctx)
}

func (j *ExtractionJob) GetNextRunTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextRun
}
