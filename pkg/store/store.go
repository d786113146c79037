package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/models"
)

// Store is the persistence contract used by every higher-level component
// (orchestrator, API handlers, comparator, stats aggregator). The Postgres
// implementation lives in postgres.go; tests may substitute an in-memory
// fake built against the same interface.
type Store interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)

	CreateSuite(ctx context.Context, s *models.Suite) error
	GetSuite(ctx context.Context, id uuid.UUID) (*models.Suite, error)
	UpdateSuite(ctx context.Context, s *models.Suite) error
	DeleteSuite(ctx context.Context, id uuid.UUID) error
	ListSuites(ctx context.Context, projectID uuid.UUID) ([]*models.Suite, error)

	CreateCase(ctx context.Context, c *models.Case) error
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	ListCases(ctx context.Context, suiteID uuid.UUID) ([]*models.Case, error)

	CreateRun(ctx context.Context, r *models.Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error)
	// ListRuns lists runs scoped to projectID, optionally narrowed to one
	// suite and/or one status, returning the page alongside the total
	// matching row count (ignoring limit/offset), per spec.md §4.1's
	// list_runs(project_id, suite_id?, status?, limit, offset) contract.
	ListRuns(ctx context.Context, projectID uuid.UUID, suiteID *uuid.UUID, status *models.RunStatus, limit, offset int) ([]*models.Run, int, error)
	CountRuns(ctx context.Context, suiteID uuid.UUID) (int, error)

	// TransitionRunStatus atomically moves a run from one of fromStatuses to
	// toStatus, returning ErrConflict if the run is no longer in one of
	// fromStatuses (e.g. it already finished by the time a cancel arrives).
	TransitionRunStatus(ctx context.Context, runID uuid.UUID, fromStatuses []models.RunStatus, toStatus models.RunStatus, errMsg string) error

	// ClaimStaleRunningRuns atomically marks as failed any run still
	// "running" after the given deadline, returning their IDs. Used by the
	// retention reaper to recover from process crashes mid-run.
	ClaimStaleRunningRuns(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error)

	// DeleteRunsOlderThan removes runs (and cascading results) created before
	// the given time, returning the number of rows removed.
	DeleteRunsOlderThan(ctx context.Context, before time.Time) (int, error)

	CreateResult(ctx context.Context, r *models.Result) error
	GetResult(ctx context.Context, runID, caseID uuid.UUID) (*models.Result, error)
	ListResults(ctx context.Context, runID uuid.UUID) ([]*models.Result, error)

	// DashboardStats computes the aggregate counters shown on the stats
	// dashboard for a suite (or all suites, if suiteID is uuid.Nil).
	DashboardStats(ctx context.Context, suiteID uuid.UUID) (*models.DashboardStats, error)

	// WeeklyVolume returns a daily run count for the last 7 days.
	WeeklyVolume(ctx context.Context, suiteID uuid.UUID) ([]models.WeeklyVolume, error)

	Close() error
}
