// Package scheduler runs Meridian's background jobs on a cron schedule:
// RSS ingestion, economic calendar sync, Fed communications sync, price
// ingestion, market context sync, and daily digest generation. The
// Job/Scheduler shape and its logging are grounded on the teacher's own
// scheduler package; the job set, intervals, and the run-once-on-startup
// behavior are grounded on scheduler/scheduler.py and scheduler/jobs.py.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a single background task the scheduler can run on a cron
// expression or trigger on demand.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages Meridian's background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a Scheduler. Call Start to begin running registered jobs.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins executing registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for any in-flight job to finish, then shuts down.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on the given cron expression, wrapped so that a tick
// firing while the previous run of the same job is still in flight is
// skipped rather than run concurrently: jobs of the same id never overlap.
// Schedule examples:
//   - "0 */5 * * * *"   every 5 minutes
//   - "@hourly"         every hour
//   - "0 0 9 * * MON-FRI" 9am weekdays
//   - "@every 30s"      every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.log.With().Str("job", job.Name()).Logger()})).
		Then(cron.FuncJob(func() { s.runOnce(job) }))

	_, err := s.cron.AddJob(schedule, wrapped)
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// cronLogger adapts zerolog.Logger to cron.Logger so SkipIfStillRunning's
// "skipped" notice goes through the same structured logging as everything
// else.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// AddIntervalJob registers job to run every intervalMinutes minutes, first firing after one
// interval has elapsed. intervalMinutes<=0 disables the job, matching the
// original's "0 means don't schedule this job" convention for optional
// ingestors.
func (s *Scheduler) AddIntervalJob(intervalMinutes int, job Job) error {
	if intervalMinutes <= 0 {
		s.log.Info().Str("job", job.Name()).Msg("job disabled, interval <= 0")
		return nil
	}
	return s.AddJob(fmt.Sprintf("@every %dm", intervalMinutes), job)
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return job.Run(ctx)
}

// RunAll runs every job once, in order, logging but not stopping on a
// failure. Used on startup so the first digest isn't built from an empty
// database while waiting for the first scheduled tick of each ingestor.
func (s *Scheduler) RunAll(ctx context.Context, jobs []Job) {
	for _, job := range jobs {
		s.log.Info().Str("job", job.Name()).Msg("running initial job")
		s.runOnce(job)
	}
}

func (s *Scheduler) runOnce(job Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	l := s.log.With().Str("job", job.Name()).Logger()
	l.Debug().Msg("job starting")
	if err := job.Run(ctx); err != nil {
		l.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("job failed")
		return
	}
	l.Debug().Dur("elapsed", time.Since(start)).Msg("job completed")
}
