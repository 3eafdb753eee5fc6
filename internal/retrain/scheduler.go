package retrain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"college-budgeting-backend/internal/metrics"
)

// Job is a unit of retraining work.
type Job interface {
	Run(ctx context.Context) (Report, error)
}

// SchedulerOptions tunes how often and how long retraining may run.
type SchedulerOptions struct {
	// MinInterval is the minimum gap between two runs. Zero disables limiting.
	MinInterval time.Duration
	// Timeout bounds a single run. Zero means no timeout.
	Timeout time.Duration
	// Schedule is an optional cron spec (e.g. "@daily") for periodic retrains.
	Schedule string
}

// Scheduler runs a Job on a single background worker. Triggers that arrive
// while a run is already pending are coalesced into it, so retrains never
// overlap and bursts of ingestions collapse into one run.
type Scheduler struct {
	job     Job
	logger  *zap.Logger
	opts    SchedulerOptions
	limiter *rate.Limiter
	pending chan struct{}
	cron    *cron.Cron

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler validates opts and returns an idle scheduler.
func NewScheduler(job Job, logger *zap.Logger, opts SchedulerOptions) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	s := &Scheduler{
		job:     job,
		logger:  logger,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		pending: make(chan struct{}, 1),
	}

	if opts.Schedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(opts.Schedule, s.Trigger); err != nil {
			return nil, fmt.Errorf("invalid retrain schedule %q: %w", opts.Schedule, err)
		}
	}
	return s, nil
}

// Start launches the worker. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)

	if s.cron != nil {
		s.cron.Start()
	}
	s.logger.Info("retrain scheduler started",
		zap.Duration("min_interval", s.opts.MinInterval),
		zap.String("schedule", s.opts.Schedule))
}

// Trigger requests a retrain without blocking.
func (s *Scheduler) Trigger() {
	select {
	case s.pending <- struct{}{}:
	default:
		// A run is already pending and will see the latest history.
	}
}

// Stop cancels any in-flight run and waits for the worker to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.cancel()
	<-s.done
	s.logger.Info("retrain scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		s.runOnce(ctx)
	}
}

// runOnce executes the job and absorbs every failure: a background retrain
// must never affect request handling.
func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RetrainRunsTotal.WithLabelValues(metrics.ResultFailed).Inc()
			s.logger.Error("retrain panicked", zap.Any("panic", r))
		}
	}()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := s.job.Run(ctx)
	metrics.RetrainDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.RetrainRunsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		s.logger.Warn("retrain failed, keeping previous model", zap.Error(err))
	case report.Skipped:
		metrics.RetrainRunsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		s.logger.Info("retrain skipped, waiting for more labeled history", zap.Int("samples", report.Samples))
	default:
		metrics.RetrainRunsTotal.WithLabelValues(metrics.ResultTrained).Inc()
		s.logger.Info("category model retrained",
			zap.Int("samples", report.Samples),
			zap.Int("classes", report.Classes),
			zap.Bool("converged", report.Converged),
			zap.Duration("duration", report.Duration))
	}
}
