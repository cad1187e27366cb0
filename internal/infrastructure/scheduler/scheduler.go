// Package scheduler runs the periodic reconciliation backstop.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iho/paisbank/internal/usecase"
)

// Reconciler is the part of ReconciliationUseCase the job needs.
type Reconciler interface {
	ReconcileAll(ctx context.Context, repair bool) (*usecase.ReconciliationReport, error)
}

// RunObserver records job outcomes.
type RunObserver interface {
	ObserveReconcileRun(err error)
}

// ReconcileJob is a cron.Job that checks every card.
type ReconcileJob struct {
	reconciler Reconciler
	repair     bool
	timeout    time.Duration
	observer   RunObserver
	logger     zerolog.Logger
}

// NewReconcileJob creates a ReconcileJob. observer may be nil.
func NewReconcileJob(reconciler Reconciler, repair bool, timeout time.Duration, observer RunObserver, logger zerolog.Logger) *ReconcileJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &ReconcileJob{
		reconciler: reconciler,
		repair:     repair,
		timeout:    timeout,
		observer:   observer,
		logger:     logger,
	}
}

// Run implements cron.Job.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	report, err := j.reconciler.ReconcileAll(ctx, j.repair)

	if j.observer != nil {
		j.observer.ObserveReconcileRun(err)
	}

	if err != nil {
		j.logger.Error().Err(err).Msg("reconciliation run failed")
		return
	}

	for _, d := range report.Discrepancies {
		j.logger.Warn().
			Int64("card_id", d.CardID).
			Str("recorded", d.RecordedBalance.String()).
			Str("calculated", d.CalculatedBalance.String()).
			Str("difference", d.Difference.String()).
			Bool("repaired", d.Repaired).
			Msg("card balance discrepancy")
	}

	j.logger.Info().
		Int("total_cards", report.TotalCards).
		Int("reconciled", report.ReconciledCards).
		Int("discrepancies", len(report.Discrepancies)).
		Int("repaired", report.RepairedCards).
		Dur("duration", time.Since(start)).
		Msg("reconciliation run finished")
}

// Scheduler runs jobs on cron specs. Overlapping runs of a job are skipped
// and panics are recovered.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a Scheduler that logs through logger.
func New(logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Add registers job under spec ("@every 1h", "0 3 * * *").
func (s *Scheduler) Add(spec string, job cron.Job) error {
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// AddFunc registers fn under spec.
func (s *Scheduler) AddFunc(spec string, fn func()) error {
	return s.Add(spec, cron.FuncJob(fn))
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
