// Package stats provides the read-side aggregation facade backing the
// dashboard endpoints, per spec.md §4.8. The aggregation SQL itself lives
// in pkg/store (PostgresStore.DashboardStats / WeeklyVolume) since it's a
// single hand-written query against the same database/sql + pgx transport
// the rest of the Store uses; Aggregator is a thin, named component over
// that query so control-plane adapters depend on a narrow interface rather
// than the full Store.
package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/models"
)

// reader is the subset of store.Store that Aggregator needs.
type reader interface {
	DashboardStats(ctx context.Context, suiteID uuid.UUID) (*models.DashboardStats, error)
	WeeklyVolume(ctx context.Context, suiteID uuid.UUID) ([]models.WeeklyVolume, error)
}

// Aggregator serves the dashboard's aggregate views.
type Aggregator struct {
	Store reader
}

// New builds an Aggregator.
func New(st reader) *Aggregator {
	return &Aggregator{Store: st}
}

// Dashboard returns the pass/fail/volume counters for a suite, or across
// every run of every suite when suiteID is uuid.Nil.
func (a *Aggregator) Dashboard(ctx context.Context, suiteID uuid.UUID) (*models.DashboardStats, error) {
	return a.Store.DashboardStats(ctx, suiteID)
}

// WeeklyVolume returns a daily run-count series for the last 7 days,
// supplemented from original_source's per-day stats breakdown ([FULL] —
// additive, not required by any spec.md invariant).
func (a *Aggregator) WeeklyVolume(ctx context.Context, suiteID uuid.UUID) ([]models.WeeklyVolume, error) {
	return a.Store.WeeklyVolume(ctx, suiteID)
}
