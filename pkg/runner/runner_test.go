package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer"
	"github.com/neon-eval/evalengine/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a narrow Store fake that only implements CreateResult,
// grounded on the teacher's pkg/queue/executor_stub.go pattern of a fake
// collaborator satisfying a narrow interface for unit tests.
type fakeStore struct {
	notImplementedStore
	results []*models.Result
}

func (f *fakeStore) CreateResult(_ context.Context, r *models.Result) error {
	f.results = append(f.results, r)
	return nil
}

func newTraceClient(t *testing.T) *trace.Client {
	t.Helper()
	c, err := trace.NewClient(context.Background(), trace.Config{ServiceName: "runner-test"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(context.Background()) })
	return c
}

func TestRunCasePassesWhenScoreMeetsThreshold(t *testing.T) {
	fs := &fakeStore{}
	reg := scorer.NewRegistry(NewFixedScorer("fixed", 0.9))
	r := New(fs, reg, newTraceClient(t))

	run := &models.Run{ID: uuid.New()}
	suite := &models.Suite{PassThreshold: 0.7, DefaultTimeout: time.Second}
	c := &models.Case{ID: uuid.New(), Name: "case-1", Input: "hello"}
	ag := agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		return agent.AgentOutput{Output: "hi there"}, nil
	})

	result, err := r.RunCase(context.Background(), run, suite, c, ag, "neon-local-test")
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusPassed, result.Status)
	assert.Equal(t, 0.9, result.Score)
	require.Len(t, fs.results, 1)
}

func TestRunCaseFailsWhenScoreBelowThreshold(t *testing.T) {
	fs := &fakeStore{}
	reg := scorer.NewRegistry(NewFixedScorer("fixed", 0.3))
	r := New(fs, reg, newTraceClient(t))

	run := &models.Run{ID: uuid.New()}
	suite := &models.Suite{PassThreshold: 0.7, DefaultTimeout: time.Second}
	c := &models.Case{ID: uuid.New(), Name: "case-2", Input: "hello"}
	ag := agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		return agent.AgentOutput{Output: "hi there"}, nil
	})

	result, err := r.RunCase(context.Background(), run, suite, c, ag, "neon-local-test")
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusFailed, result.Status)
}

func TestRunCaseErrorsWhenAgentFails(t *testing.T) {
	fs := &fakeStore{}
	reg := scorer.NewRegistry()
	r := New(fs, reg, newTraceClient(t))

	run := &models.Run{ID: uuid.New()}
	suite := &models.Suite{PassThreshold: 0.7, DefaultTimeout: time.Second}
	c := &models.Case{ID: uuid.New(), Name: "case-3", Input: "hello"}
	ag := agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		return agent.AgentOutput{}, errors.New("agent crashed")
	})

	result, err := r.RunCase(context.Background(), run, suite, c, ag, "neon-local-test")
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusError, result.Status)
	assert.Contains(t, result.Error, "agent crashed")
}

func TestRunCaseTimesOut(t *testing.T) {
	fs := &fakeStore{}
	reg := scorer.NewRegistry()
	r := New(fs, reg, newTraceClient(t))

	run := &models.Run{ID: uuid.New()}
	suite := &models.Suite{PassThreshold: 0.7}
	c := &models.Case{ID: uuid.New(), Name: "case-4", Input: "hello", Timeout: 10 * time.Millisecond}
	ag := agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		<-ctx.Done()
		return agent.AgentOutput{}, ctx.Err()
	})

	result, err := r.RunCase(context.Background(), run, suite, c, ag, "neon-local-test")
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusError, result.Status)
	assert.Contains(t, result.Error, "timeout")
}

func TestRunCaseScorerPanicDoesNotCrashRun(t *testing.T) {
	fs := &fakeStore{}
	reg := scorer.NewRegistry(panicScorer{})
	r := New(fs, reg, newTraceClient(t))

	run := &models.Run{ID: uuid.New()}
	suite := &models.Suite{PassThreshold: 0.7, DefaultTimeout: time.Second}
	c := &models.Case{ID: uuid.New(), Name: "case-5", Input: "hello"}
	ag := agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		return agent.AgentOutput{Output: "hi"}, nil
	})

	result, err := r.RunCase(context.Background(), run, suite, c, ag, "neon-local-test")
	require.NoError(t, err)
	require.Len(t, result.ScoreDetails, 1)
	assert.Contains(t, result.ScoreDetails[0].Reason, "panicked")
}

type panicScorer struct{}

func (panicScorer) Name() string { return "panics" }
func (panicScorer) Score(context.Context, scorer.CaseInput) (models.ScoreDetail, error) {
	panic("boom")
}
