package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name    string
	started int32
	done    chan struct{}
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.started, 1)
	<-j.done
	return nil
}

func TestAddIntervalJobDisablesOnNonPositiveInterval(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "noop", done: make(chan struct{})}
	close(job.done)

	err := s.AddIntervalJob(0, job)
	assert.NoError(t, err)
	assert.Empty(t, s.cron.Entries())
}

func TestAddIntervalJobRegistersWhenPositive(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "periodic", done: make(chan struct{})}
	close(job.done)

	err := s.AddIntervalJob(5, job)
	assert.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunAllRunsEveryJobOnce(t *testing.T) {
	s := New(zerolog.Nop())
	a := &countingJob{name: "a", done: make(chan struct{})}
	b := &countingJob{name: "b", done: make(chan struct{})}
	close(a.done)
	close(b.done)

	s.RunAll(context.Background(), []Job{a, b})

	assert.EqualValues(t, 1, atomic.LoadInt32(&a.started))
	assert.EqualValues(t, 1, atomic.LoadInt32(&b.started))
}

// TestAddJobSkipsOverlappingRuns pins the "jobs of the same id never
// overlap" invariant: a slow job still running when its next tick fires
// must not start a second concurrent execution.
func TestAddJobSkipsOverlappingRuns(t *testing.T) {
	s := New(zerolog.Nop())
	release := make(chan struct{})
	job := &countingJob{name: "slow", done: release}

	if err := s.AddJob("@every 1s", job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	s.Start()
	defer s.Stop()

	time.Sleep(2500 * time.Millisecond)
	close(release)
	time.Sleep(120 * time.Millisecond)

	assert.LessOrEqual(t, atomic.LoadInt32(&job.started), int32(1))
}
