package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer"
)

// notImplementedStore satisfies store.Store so test-local fakes can embed
// it and override only the methods a given test exercises, grounded on the
// teacher's pkg/queue/executor_stub.go narrow-fake pattern.
type notImplementedStore struct{}

func (notImplementedStore) CreateProject(context.Context, *models.Project) error { return errNotImplemented }
func (notImplementedStore) GetProject(context.Context, uuid.UUID) (*models.Project, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) ListProjects(context.Context) ([]*models.Project, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) CreateSuite(context.Context, *models.Suite) error { return errNotImplemented }
func (notImplementedStore) GetSuite(context.Context, uuid.UUID) (*models.Suite, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) UpdateSuite(context.Context, *models.Suite) error { return errNotImplemented }
func (notImplementedStore) DeleteSuite(context.Context, uuid.UUID) error     { return errNotImplemented }
func (notImplementedStore) ListSuites(context.Context, uuid.UUID) ([]*models.Suite, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) CreateCase(context.Context, *models.Case) error { return errNotImplemented }
func (notImplementedStore) GetCase(context.Context, uuid.UUID) (*models.Case, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) ListCases(context.Context, uuid.UUID) ([]*models.Case, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) CreateRun(context.Context, *models.Run) error { return errNotImplemented }
func (notImplementedStore) GetRun(context.Context, uuid.UUID) (*models.Run, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) ListRuns(context.Context, uuid.UUID, *uuid.UUID, *models.RunStatus, int, int) ([]*models.Run, int, error) {
	return nil, 0, errNotImplemented
}
func (notImplementedStore) CountRuns(context.Context, uuid.UUID) (int, error) {
	return 0, errNotImplemented
}
func (notImplementedStore) TransitionRunStatus(context.Context, uuid.UUID, []models.RunStatus, models.RunStatus, string) error {
	return errNotImplemented
}
func (notImplementedStore) ClaimStaleRunningRuns(context.Context, time.Time) ([]uuid.UUID, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) DeleteRunsOlderThan(context.Context, time.Time) (int, error) {
	return 0, errNotImplemented
}
func (notImplementedStore) CreateResult(context.Context, *models.Result) error { return errNotImplemented }
func (notImplementedStore) GetResult(context.Context, uuid.UUID, uuid.UUID) (*models.Result, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) ListResults(context.Context, uuid.UUID) ([]*models.Result, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) DashboardStats(context.Context, uuid.UUID) (*models.DashboardStats, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) WeeklyVolume(context.Context, uuid.UUID) ([]models.WeeklyVolume, error) {
	return nil, errNotImplemented
}
func (notImplementedStore) Close() error { return nil }

var errNotImplemented = fmt.Errorf("not implemented in test fake")

// fixedScorer always returns the same score, for deterministic runner tests.
type fixedScorer struct {
	name  string
	score float64
}

// NewFixedScorer builds a scorer.Scorer that always returns score.
func NewFixedScorer(name string, score float64) scorer.Scorer {
	return fixedScorer{name: name, score: score}
}

func (f fixedScorer) Name() string { return f.name }
func (f fixedScorer) Score(context.Context, scorer.CaseInput) (models.ScoreDetail, error) {
	return models.ScoreDetail{Scorer: f.name, Score: f.score}, nil
}
