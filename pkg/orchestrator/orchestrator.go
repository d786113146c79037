// Package orchestrator drives a Run through its pending → running →
// completed/failed/cancelled state machine, scheduling case execution
// across a bounded worker pool.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/runner"
	"github.com/neon-eval/evalengine/pkg/store"
)

// DefaultMaxParallelCases is the parallel-mode worker-pool width used when
// Orchestrator.MaxPar is not set to a positive value.
const DefaultMaxParallelCases = 10

// Orchestrator owns the Run lifecycle: creating runs, scheduling their
// cases across a bounded pool of goroutines (parallel mode) or a single
// goroutine honoring stop_on_failure (sequential mode), and finalizing the
// terminal status once every case has a Result.
//
// Scheduling is grounded directly on the teacher's pkg/queue/pool.go and
// pkg/queue/worker.go: a buffered channel of work items drained by a fixed
// number of goroutines, separating "claim work" from "process work".
type Orchestrator struct {
	Store    store.Store
	Agents   *agent.Registry
	Runner   *runner.Runner
	MaxPar   int
	SourcePrefix string // e.g. "neon" for server runs, "neon-local" for CLI runs
}

// New builds an Orchestrator.
func New(st store.Store, agents *agent.Registry, r *runner.Runner) *Orchestrator {
	return &Orchestrator{Store: st, Agents: agents, Runner: r, MaxPar: DefaultMaxParallelCases, SourcePrefix: "neon"}
}

// StartRun transitions a pending Run to running and executes every case in
// its suite, either in parallel (bounded by MaxPar) or sequentially honoring
// stopOnFailure. It blocks until the run reaches a terminal status.
//
// An agent-load failure (bad locator) fails the run immediately without
// running any case, matching original_source run_service.py's
// AgentLoadError → status=failed handling.
func (o *Orchestrator) StartRun(ctx context.Context, runID uuid.UUID, parallel, stopOnFailure bool) error {
	run, err := o.Store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	suite, err := o.Store.GetSuite(ctx, run.SuiteID)
	if err != nil {
		return fmt.Errorf("load suite: %w", err)
	}
	cases, err := o.Store.ListCases(ctx, suite.ID)
	if err != nil {
		return fmt.Errorf("load cases: %w", err)
	}

	if err := o.Store.TransitionRunStatus(ctx, runID,
		[]models.RunStatus{models.RunStatusPending}, models.RunStatusRunning, ""); err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	ag, err := o.Agents.Load(suite.AgentLocator, "")
	if err != nil {
		_ = o.Store.TransitionRunStatus(ctx, runID,
			[]models.RunStatus{models.RunStatusRunning}, models.RunStatusFailed, err.Error())
		return fmt.Errorf("load agent: %w", err)
	}

	source := fmt.Sprintf("%s-%s", o.SourcePrefix, suite.Name)

	var execErr error
	if parallel {
		execErr = o.runParallel(ctx, run, suite, cases, ag, source)
	} else {
		execErr = o.runSequential(ctx, run, suite, cases, ag, source, stopOnFailure)
	}

	return o.finalize(ctx, runID, execErr)
}

// runParallel drains cases through a buffered channel consumed by MaxPar
// goroutines, mirroring pkg/queue/pool.go's worker fan-out.
func (o *Orchestrator) runParallel(ctx context.Context, run *models.Run, suite *models.Suite, cases []*models.Case, ag agent.Agent, source string) error {
	workers := o.MaxPar
	if workers <= 0 {
		workers = DefaultMaxParallelCases
	}
	if workers > len(cases) {
		workers = len(cases)
	}
	if workers == 0 {
		return nil
	}

	work := make(chan *models.Case, len(cases))
	for _, c := range cases {
		work <- c
	}
	close(work)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				if ctx.Err() != nil {
					return
				}
				if _, err := o.Runner.RunCase(ctx, run, suite, c, ag, source); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// runSequential executes cases in suite-declared order, stopping early if
// stopOnFailure is set and a case does not pass.
func (o *Orchestrator) runSequential(ctx context.Context, run *models.Run, suite *models.Suite, cases []*models.Case, ag agent.Agent, source string, stopOnFailure bool) error {
	for _, c := range cases {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := o.Runner.RunCase(ctx, run, suite, c, ag, source)
		if err != nil {
			return err
		}
		if stopOnFailure && result.Status != models.ResultStatusPassed {
			break
		}
	}
	return nil
}

// finalize writes the run's terminal status: failed when execErr is set,
// completed otherwise. It does not persist a RunSummary; callers build one
// from the stored results with Summarize when a run is read.
// The status transition is a single conditional UPDATE so a concurrent
// CancelRun racing this write is resolved by Postgres: whichever statement
// commits first wins, per spec.md §5.
func (o *Orchestrator) finalize(ctx context.Context, runID uuid.UUID, execErr error) error {
	if execErr != nil {
		return o.Store.TransitionRunStatus(ctx, runID,
			[]models.RunStatus{models.RunStatusRunning}, models.RunStatusFailed, execErr.Error())
	}

	err := o.Store.TransitionRunStatus(ctx, runID,
		[]models.RunStatus{models.RunStatusRunning}, models.RunStatusCompleted, "")
	if err != nil {
		if err == store.ErrConflict {
			// A cancel won the race; that's an expected outcome, not a
			// failure of this call.
			slog.Info("run completion lost the race to a concurrent cancel", "run_id", runID)
			return nil
		}
		return err
	}
	return nil
}

// CancelRun atomically moves a run out of pending/running into cancelled.
// If the run has already reached a terminal status (it finished or was
// already cancelled), the store reports ErrConflict and this is a no-op.
func (o *Orchestrator) CancelRun(ctx context.Context, runID uuid.UUID) error {
	err := o.Store.TransitionRunStatus(ctx, runID,
		[]models.RunStatus{models.RunStatusPending, models.RunStatusRunning},
		models.RunStatusCancelled, "cancelled by user")
	if err == store.ErrConflict {
		return fmt.Errorf("run already reached a terminal status: %w", store.ErrConflict)
	}
	return err
}

// Summarize aggregates a run's results into a RunSummary.
func Summarize(runID uuid.UUID, results []*models.Result) models.RunSummary {
	s := models.RunSummary{RunID: runID, TotalCases: len(results)}
	var totalScore float64
	for _, r := range results {
		totalScore += r.Score
		switch r.Status {
		case models.ResultStatusPassed:
			s.Passed++
		case models.ResultStatusFailed:
			s.Failed++
		case models.ResultStatusError:
			s.Errored++
		}
	}
	if len(results) > 0 {
		s.AverageScore = totalScore / float64(len(results))
		s.PassRate = float64(s.Passed) / float64(len(results))
	}
	return s
}
