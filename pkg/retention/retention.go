// Package retention runs a periodic background sweep that reaps runs left
// "running" by a crashed worker and prunes runs past their retention
// window, grounded on the teacher's pkg/cleanup/service.go loop shape.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/neon-eval/evalengine/pkg/store"
)

// Config controls the sweep's cadence and cutoffs.
type Config struct {
	// RunRetentionDays is how long a run and its results are kept, whatever
	// the run's status, before DeleteRunsOlderThan prunes them.
	RunRetentionDays int
	// StaleRunningTimeout is how long a run may stay "running" before it's
	// assumed to belong to a crashed worker and is force-failed.
	StaleRunningTimeout time.Duration
	// CleanupInterval is how often the sweep runs.
	CleanupInterval time.Duration
}

// DefaultConfig returns a 90-day retention window, a one-hour
// stale-running timeout and an hourly sweep.
func DefaultConfig() Config {
	return Config{
		RunRetentionDays:    90,
		StaleRunningTimeout: time.Hour,
		CleanupInterval:     time.Hour,
	}
}

// Service periodically enforces retention policy against the Store. All
// operations are idempotent and safe to run from multiple processes.
type Service struct {
	config Config
	store  store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a Service.
func NewService(cfg Config, st store.Store) *Service {
	return &Service{config: cfg, store: st}
}

// Start launches the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("retention service started",
		"run_retention_days", s.config.RunRetentionDays,
		"stale_running_timeout", s.config.StaleRunningTimeout,
		"interval", s.config.CleanupInterval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("retention service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.reapStaleRunning(ctx)
	s.pruneOldRuns(ctx)
}

func (s *Service) reapStaleRunning(ctx context.Context) {
	deadline := time.Now().Add(-s.config.StaleRunningTimeout)
	ids, err := s.store.ClaimStaleRunningRuns(ctx, deadline)
	if err != nil {
		slog.Error("retention: reap stale running runs failed", "error", err)
		return
	}
	if len(ids) > 0 {
		slog.Info("retention: reaped stale running runs", "count", len(ids))
	}
}

func (s *Service) pruneOldRuns(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.RunRetentionDays)
	count, err := s.store.DeleteRunsOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("retention: prune old runs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: pruned old runs", "count", count)
	}
}
