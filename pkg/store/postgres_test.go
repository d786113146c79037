package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/neon-eval/evalengine/test/testutil"
	"github.com/stretchr/testify/require"
)

func TestSuiteCaseRunResultLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	project := &models.Project{Name: "checkout-agent"}
	require.NoError(t, s.CreateProject(ctx, project))

	suite := &models.Suite{
		ProjectID:     project.ID,
		Name:          "happy-path",
		AgentLocator:  "checkout:Agent",
		PassThreshold: 0.7,
		ScorerWeights: map[string]float64{"tool_selection": 1, "content": 1},
	}
	require.NoError(t, s.CreateSuite(ctx, suite))

	c := &models.Case{
		SuiteID:       suite.ID,
		Name:          "adds item to cart",
		Input:         "add one widget to my cart",
		ExpectedTools: []string{"add_to_cart"},
	}
	require.NoError(t, s.CreateCase(ctx, c))

	run := &models.Run{SuiteID: suite.ID, Trigger: models.RunTriggerManual}
	require.NoError(t, s.CreateRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusPending, got.Status)

	require.NoError(t, s.TransitionRunStatus(ctx, run.ID,
		[]models.RunStatus{models.RunStatusPending}, models.RunStatusRunning, ""))

	result := &models.Result{
		RunID:       run.ID,
		CaseID:      c.ID,
		Status:      models.ResultStatusPassed,
		Score:       0.92,
		ToolsCalled: []string{"add_to_cart"},
		ScoreDetails: []models.ScoreDetail{
			{Scorer: "tool_selection", Score: 1.0, Reason: "exact match"},
		},
	}
	require.NoError(t, s.CreateResult(ctx, result))

	require.NoError(t, s.TransitionRunStatus(ctx, run.ID,
		[]models.RunStatus{models.RunStatusRunning}, models.RunStatusCompleted, ""))

	// A second cancel attempt after completion must report a conflict, not
	// silently overwrite the terminal status.
	err = s.TransitionRunStatus(ctx, run.ID,
		[]models.RunStatus{models.RunStatusPending, models.RunStatusRunning}, models.RunStatusCancelled, "")
	require.ErrorIs(t, err, store.ErrConflict)

	results, err := s.ListResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 0.92, results[0].Score)
	require.Equal(t, []string{"add_to_cart"}, results[0].ToolsCalled)

	stats, err := s.DashboardStats(ctx, suite.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalRuns)
	require.Equal(t, 1, stats.PassedRuns)

	stale, err := s.ClaimStaleRunningRuns(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Empty(t, stale, "completed run must not be reaped as stale-running")
}
