package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/runner"
	"github.com/neon-eval/evalengine/pkg/scorer"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/neon-eval/evalengine/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory Store used to exercise the orchestrator
// without a database, grounded on the teacher's own preference for narrow
// fakes over mock frameworks in tests that don't need real persistence.
type memStore struct {
	mu      sync.Mutex
	suites  map[uuid.UUID]*models.Suite
	cases   map[uuid.UUID][]*models.Case
	runs    map[uuid.UUID]*models.Run
	results map[uuid.UUID][]*models.Result
}

func newMemStore() *memStore {
	return &memStore{
		suites:  map[uuid.UUID]*models.Suite{},
		cases:   map[uuid.UUID][]*models.Case{},
		runs:    map[uuid.UUID]*models.Run{},
		results: map[uuid.UUID][]*models.Result{},
	}
}

func (m *memStore) CreateProject(context.Context, *models.Project) error { return nil }
func (m *memStore) GetProject(context.Context, uuid.UUID) (*models.Project, error) {
	return nil, store.ErrNotFound
}
func (m *memStore) ListProjects(context.Context) ([]*models.Project, error) { return nil, nil }

func (m *memStore) CreateSuite(_ context.Context, s *models.Suite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suites[s.ID] = s
	return nil
}
func (m *memStore) GetSuite(_ context.Context, id uuid.UUID) (*models.Suite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suites[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}
func (m *memStore) UpdateSuite(context.Context, *models.Suite) error     { return nil }
func (m *memStore) DeleteSuite(context.Context, uuid.UUID) error         { return nil }
func (m *memStore) ListSuites(context.Context, uuid.UUID) ([]*models.Suite, error) { return nil, nil }

func (m *memStore) CreateCase(_ context.Context, c *models.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[c.SuiteID] = append(m.cases[c.SuiteID], c)
	return nil
}
func (m *memStore) GetCase(context.Context, uuid.UUID) (*models.Case, error) { return nil, store.ErrNotFound }
func (m *memStore) ListCases(_ context.Context, suiteID uuid.UUID) ([]*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cases[suiteID], nil
}

func (m *memStore) CreateRun(_ context.Context, r *models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status == "" {
		r.Status = models.RunStatusPending
	}
	m.runs[r.ID] = r
	return nil
}
func (m *memStore) GetRun(_ context.Context, id uuid.UUID) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}
func (m *memStore) ListRuns(context.Context, uuid.UUID, *uuid.UUID, *models.RunStatus, int, int) ([]*models.Run, int, error) {
	return nil, 0, nil
}
func (m *memStore) CountRuns(context.Context, uuid.UUID) (int, error)                    { return 0, nil }

func (m *memStore) TransitionRunStatus(_ context.Context, runID uuid.UUID, from []models.RunStatus, to models.RunStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		if r.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return store.ErrConflict
	}
	r.Status = to
	r.Error = errMsg
	return nil
}

func (m *memStore) ClaimStaleRunningRuns(context.Context, time.Time) ([]uuid.UUID, error) { return nil, nil }
func (m *memStore) DeleteRunsOlderThan(context.Context, time.Time) (int, error)           { return 0, nil }

func (m *memStore) CreateResult(_ context.Context, r *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.RunID] = append(m.results[r.RunID], r)
	return nil
}
func (m *memStore) GetResult(context.Context, uuid.UUID, uuid.UUID) (*models.Result, error) {
	return nil, store.ErrNotFound
}
func (m *memStore) ListResults(_ context.Context, runID uuid.UUID) ([]*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[runID], nil
}
func (m *memStore) DashboardStats(context.Context, uuid.UUID) (*models.DashboardStats, error) {
	return nil, nil
}
func (m *memStore) WeeklyVolume(context.Context, uuid.UUID) ([]models.WeeklyVolume, error) {
	return nil, nil
}
func (m *memStore) Close() error { return nil }

func newTestOrchestrator(t *testing.T) (*Orchestrator, *memStore) {
	t.Helper()
	tr, err := trace.NewClient(context.Background(), trace.Config{ServiceName: "orchestrator-test"})
	require.NoError(t, err)
	t.Cleanup(func() { tr.Shutdown(context.Background()) })

	ms := newMemStore()
	registry := agent.NewRegistry()
	registry.RegisterAgent("test:agent", agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		return agent.AgentOutput{Output: "ok: " + query}, nil
	}))

	scorers := scorer.NewRegistry(runner.NewFixedScorer("fixed", 1.0))
	run := runner.New(ms, scorers, tr)
	return New(ms, registry, run), ms
}

func seedSuite(ms *memStore, locator string, numCases int) *models.Suite {
	suite := &models.Suite{ID: uuid.New(), Name: "suite", AgentLocator: locator, PassThreshold: 0.5, ScorerWeights: map[string]float64{"fixed": 1}}
	ms.suites[suite.ID] = suite
	for i := 0; i < numCases; i++ {
		ms.cases[suite.ID] = append(ms.cases[suite.ID], &models.Case{ID: uuid.New(), SuiteID: suite.ID, Name: "case", Input: "hi"})
	}
	return suite
}

func TestStartRunParallelCompletesAllCases(t *testing.T) {
	o, ms := newTestOrchestrator(t)
	suite := seedSuite(ms, "test:agent", 5)
	run := &models.Run{ID: uuid.New(), SuiteID: suite.ID, Trigger: models.RunTriggerManual}
	require.NoError(t, ms.CreateRun(context.Background(), run))

	require.NoError(t, o.StartRun(context.Background(), run.ID, true, false))

	got, err := ms.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Len(t, ms.results[run.ID], 5)
}

func TestStartRunFailsOnUnknownAgentLocator(t *testing.T) {
	o, ms := newTestOrchestrator(t)
	suite := seedSuite(ms, "test:does-not-exist", 2)
	run := &models.Run{ID: uuid.New(), SuiteID: suite.ID, Trigger: models.RunTriggerManual}
	require.NoError(t, ms.CreateRun(context.Background(), run))

	err := o.StartRun(context.Background(), run.ID, true, false)
	require.Error(t, err)

	got, err := ms.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
}

func TestCancelRunConflictsAfterCompletion(t *testing.T) {
	o, ms := newTestOrchestrator(t)
	suite := seedSuite(ms, "test:agent", 1)
	run := &models.Run{ID: uuid.New(), SuiteID: suite.ID, Trigger: models.RunTriggerManual}
	require.NoError(t, ms.CreateRun(context.Background(), run))
	require.NoError(t, o.StartRun(context.Background(), run.ID, true, false))

	err := o.CancelRun(context.Background(), run.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestStartRunSequentialStopsOnFailure(t *testing.T) {
	tr, err := trace.NewClient(context.Background(), trace.Config{ServiceName: "seq-test"})
	require.NoError(t, err)
	defer tr.Shutdown(context.Background())

	ms := newMemStore()
	registry := agent.NewRegistry()
	registry.RegisterAgent("test:agent", agent.Func(func(ctx context.Context, query string, _ map[string]any) (agent.AgentOutput, error) {
		return agent.AgentOutput{Output: "low score"}, nil
	}))
	scorers := scorer.NewRegistry(runner.NewFixedScorer("fixed", 0.0)) // always fails threshold
	run := runner.New(ms, scorers, tr)
	o := New(ms, registry, run)

	suite := seedSuite(ms, "test:agent", 3)
	suite.PassThreshold = 0.9
	r := &models.Run{ID: uuid.New(), SuiteID: suite.ID, Trigger: models.RunTriggerManual}
	require.NoError(t, ms.CreateRun(context.Background(), r))

	require.NoError(t, o.StartRun(context.Background(), r.ID, false, true))
	assert.Len(t, ms.results[r.ID], 1, "sequential run with stop_on_failure must halt after the first failing case")
}
