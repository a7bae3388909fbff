package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

// Runner runs one collection cycle
type Runner interface {
	RunCycle(ctx context.Context) (*models.CycleReport, error)
}

// Config holds scheduler configuration
type Config struct {
	Interval   time.Duration // time between cycle starts
	Timeout    time.Duration // per-cycle deadline, zero for none
	RunOnStart bool
}

// Scheduler runs cycles on a fixed interval. A cycle still running when the
// next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     cron.Job
	runner  Runner
	config  Config
	logger  zerolog.Logger
	mu      sync.Mutex
	baseCtx context.Context
	last    *models.CycleReport
}

// NewScheduler creates a new cycle scheduler
func NewScheduler(config Config, runner Runner, logger zerolog.Logger) (*Scheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("invalid cycle interval %s", config.Interval)
	}

	s := &Scheduler{
		runner:  runner,
		config:  config,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		baseCtx: context.Background(),
	}

	cronLogger := cronLogger{logger: s.logger}
	s.job = cron.NewChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	).Then(cron.FuncJob(s.runCycle))

	s.cron = cron.New(cron.WithLogger(cronLogger))
	s.cron.Schedule(cron.Every(config.Interval), s.job)

	return s, nil
}

// Start begins scheduling; cycles run under ctx until Stop
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Bool("run_on_start", s.config.RunOnStart).
		Msg("started cycle scheduler")

	if s.config.RunOnStart {
		go s.job.Run()
	}
}

// RunNow runs one cycle synchronously, or skips it if one is in flight
func (s *Scheduler) RunNow() {
	s.job.Run()
}

// Stop stops scheduling and waits for a running cycle to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("stopped cycle scheduler")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop scheduler: %w", ctx.Err())
	}
}

// LastReport returns the report of the last successful cycle, if any
func (s *Scheduler) LastReport() *models.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) runCycle() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	report, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("cycle failed")
		return
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
