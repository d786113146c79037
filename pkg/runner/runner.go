// Package runner executes a single case against an agent under test,
// scores the outcome, and persists the resulting models.Result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/neon-eval/evalengine/pkg/trace"
)

// defaultTimeout is used when neither the case nor the suite specifies one.
const defaultTimeout = 5 * time.Minute

// Runner executes one case end to end: invoke the agent (timeout-bounded),
// run every requested scorer, average the scores, and persist the Result.
type Runner struct {
	Store   store.Store
	Scorers *scorer.Registry
	Trace   *trace.Client
}

// New builds a Runner.
func New(st store.Store, scorers *scorer.Registry, tr *trace.Client) *Runner {
	return &Runner{Store: st, Scorers: scorers, Trace: tr}
}

// RunCase executes c against ag within run, scoring the outcome with the
// scorers named in c.Scorers (falling back to every registered scorer when
// empty), and persists a models.Result. It returns the persisted Result
// even on agent failure/timeout — only infrastructure errors (e.g. the
// Store round-trip itself failing) are returned as errors.
func (r *Runner) RunCase(ctx context.Context, run *models.Run, suite *models.Suite, c *models.Case, ag agent.Agent, source string) (*models.Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = suite.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	caseCtx, span := r.Trace.StartCase(ctx, run.ID.String(), c.Name, source, c.Tags)
	traceID := span.SpanContext().TraceID()

	start := time.Now()
	execCtx, cancel := context.WithTimeout(caseCtx, timeout)
	defer cancel()

	output, execErr := ag.Run(execCtx, c.Input, c.Context)
	span.End()
	durationMS := time.Since(start).Milliseconds()

	result := &models.Result{
		ID:          uuid.New(),
		RunID:       run.ID,
		CaseID:      c.ID,
		ToolsCalled: output.ToolsCalled,
		AgentOutput: output.Output,
		DurationMS:  durationMS,
	}

	summary := r.Trace.Summary(traceID)
	result.TraceSummary = &summary
	r.Trace.Forget(traceID)

	switch {
	case errors.Is(execErr, context.DeadlineExceeded):
		result.Status = models.ResultStatusError
		result.Error = fmt.Sprintf("case exceeded timeout of %s", timeout)
	case execErr != nil:
		result.Status = models.ResultStatusError
		result.Error = execErr.Error()
	default:
		r.scoreCase(execCtx, c, output, result)
		if result.Score >= minScore(c, suite) {
			result.Status = models.ResultStatusPassed
		} else {
			result.Status = models.ResultStatusFailed
		}
	}

	if err := r.Store.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("persist result for case %q: %w", c.Name, err)
	}
	return result, nil
}

// minScore resolves the pass/fail threshold for c: c.MinScore when the
// case declares one, falling back to the suite's default otherwise (a
// case loaded directly rather than through pkg/suiteconfig, which already
// resolves this at load time, may leave MinScore at its zero value).
func minScore(c *models.Case, suite *models.Suite) float64 {
	if c.MinScore > 0 {
		return c.MinScore
	}
	return suite.PassThreshold
}

// scoreCase runs every scorer named in c.Scorers (falling back to every
// registered scorer when the case names none), recovering from a scorer
// panic so that one broken scorer implementation cannot take down the
// whole case, grounded on the teacher's pkg/queue/worker.go nil-guard/
// recover pattern around executor results. A scorer error becomes a
// zero-score detail with the error recorded as its Reason, rather than
// failing the case.
func (r *Runner) scoreCase(ctx context.Context, c *models.Case, output agent.AgentOutput, result *models.Result) {
	names := c.Scorers
	if len(names) == 0 {
		names = r.Scorers.Names()
	}

	details := make([]models.ScoreDetail, 0, len(names))
	var total float64
	for _, name := range names {
		detail := r.runOneScorer(ctx, name, c, output)
		details = append(details, detail)
		total += detail.Score
	}

	result.ScoreDetails = details
	if len(details) > 0 {
		result.Score = total / float64(len(details))
	}
}

func (r *Runner) runOneScorer(ctx context.Context, name string, c *models.Case, output agent.AgentOutput) (detail models.ScoreDetail) {
	s, ok := r.Scorers.Get(name)
	if !ok {
		return models.ScoreDetail{Scorer: name, Score: 0, Reason: "scorer not registered"}
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("scorer panicked", "scorer", name, "case", c.Name, "recovered", rec)
			detail = models.ScoreDetail{Scorer: name, Score: 0, Reason: fmt.Sprintf("scorer panicked: %v", rec)}
		}
	}()

	d, err := s.Score(ctx, scorer.CaseInput{Case: c, Output: output})
	if err != nil {
		return models.ScoreDetail{Scorer: name, Score: 0, Reason: fmt.Sprintf("scorer error: %v", err)}
	}
	return d
}
