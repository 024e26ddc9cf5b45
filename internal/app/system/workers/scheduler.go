// internal/app/system/workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/tasks"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 30 * time.Second

// Scheduler runs tasks.Job values on a cron "@every" schedule. A job that
// is still running when its next tick arrives is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	jobs    []string
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		log:     logger,
		timeout: DefaultJobTimeout,
	}
}

// Add registers job. It must be called before Start.
func (s *Scheduler) Add(job tasks.Job) error {
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	_, err := s.cron.AddFunc("@every "+job.Interval.String(), func() { s.runOnce(job) })
	if err != nil {
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	s.jobs = append(s.jobs, job.Name)
	return nil
}

// Jobs returns the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	out := make([]string, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Strings("jobs", s.jobs))
}

// Stop halts scheduling and waits for running jobs, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; jobs still running")
	}
}

func (s *Scheduler) runOnce(job tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("scheduled job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug("cron: "+msg, zap.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, zap.Error(err), zap.Any("kv", kv))
}
