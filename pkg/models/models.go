// Package models defines the core domain entities shared across the
// evaluation engine: projects, suites, cases, runs, results and the
// aggregates derived from them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Valid reports whether s is one of the known RunStatus values.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status will never transition again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// RunTrigger records how a Run was started.
type RunTrigger string

const (
	RunTriggerManual RunTrigger = "manual"
	RunTriggerCI     RunTrigger = "ci"
	RunTriggerSched  RunTrigger = "scheduled"
)

// ResultStatus is the per-case outcome of a Run.
type ResultStatus string

const (
	ResultStatusPassed ResultStatus = "passed"
	ResultStatusFailed ResultStatus = "failed"
	ResultStatusError  ResultStatus = "error"
)

// Project is the top-level grouping for suites belonging to one agent
// system under evaluation.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Suite groups a fixed set of Cases evaluated together and carries the
// defaults (agent locator, scorer weights, pass threshold) that individual
// cases inherit unless they override them.
type Suite struct {
	ID             uuid.UUID          `json:"id"`
	ProjectID      uuid.UUID          `json:"project_id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	AgentLocator   string             `json:"agent_locator"`
	ScorerWeights  map[string]float64 `json:"scorer_weights,omitempty"`
	PassThreshold  float64            `json:"pass_threshold"`
	DefaultTimeout time.Duration      `json:"default_timeout"`
	// Parallel and StopOnFailure are the suite's scheduling defaults
	// (spec.md's suite.config.parallel/stop_on_failure); a run's own config
	// may override them, but the suite's values are what persists here.
	Parallel      bool          `json:"parallel"`
	StopOnFailure bool          `json:"stop_on_failure"`
	Tags          []string      `json:"tags,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Case is a single evaluation scenario within a Suite: an input to feed
// the agent under test plus the expectations scorers will judge it against.
type Case struct {
	ID              uuid.UUID `json:"id"`
	SuiteID         uuid.UUID `json:"suite_id"`
	Name            string    `json:"name"`
	Input           string    `json:"input"`
	Context         map[string]any `json:"context,omitempty"`
	ExpectedTools   []string       `json:"expected_tools,omitempty"`
	ExpectedToolSequence []string  `json:"expected_tool_sequence,omitempty"`
	ExpectedContent      []string  `json:"expected_output_contains,omitempty"`
	ExpectedOutputPattern string   `json:"expected_output_pattern,omitempty"`
	RubricNotes     string         `json:"rubric_notes,omitempty"`
	Scorers         []string       `json:"scorers,omitempty"`
	ScorerConfig    map[string]any `json:"scorer_config,omitempty"`
	MinScore        float64        `json:"min_score"`
	Timeout         time.Duration  `json:"timeout,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Run is one execution of a Suite against the agent under test: a
// collection of per-Case Results plus an aggregated RunSummary.
type Run struct {
	ID           uuid.UUID      `json:"id"`
	ProjectID    uuid.UUID      `json:"project_id"`
	SuiteID      uuid.UUID      `json:"suite_id"`
	AgentVersion string         `json:"agent_version,omitempty"`
	Status       RunStatus      `json:"status"`
	Trigger      RunTrigger     `json:"trigger"`
	TriggeredBy  string         `json:"triggered_by,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	Summary      *RunSummary    `json:"summary,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ScoreDetail is the output of a single Scorer for a single Result.
type ScoreDetail struct {
	Scorer   string   `json:"scorer"`
	Score    float64  `json:"score"`
	Reason   string   `json:"reason,omitempty"`
	Evidence []string `json:"evidence,omitempty"`
}

// Result is the outcome of running one Case within a Run.
type Result struct {
	ID            uuid.UUID      `json:"id"`
	RunID         uuid.UUID      `json:"run_id"`
	CaseID        uuid.UUID      `json:"case_id"`
	Status        ResultStatus   `json:"status"`
	Score         float64        `json:"score"`
	AgentOutput   string         `json:"agent_output,omitempty"`
	ToolsCalled   []string       `json:"tools_called,omitempty"`
	ScoreDetails  []ScoreDetail  `json:"score_details,omitempty"`
	TraceSummary  *TraceSummary  `json:"trace_summary,omitempty"`
	Error         string         `json:"error,omitempty"`
	DurationMS    int64          `json:"duration_ms"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TraceSummary captures the shape of the agent's execution trace for a
// single Case: span counts and durations broken down by kind.
type TraceSummary struct {
	TraceID       string  `json:"trace_id,omitempty"`
	SpanCount     int     `json:"span_count"`
	ToolCallCount int     `json:"tool_call_count"`
	ChatCallCount int     `json:"chat_call_count"`
	TotalMS       int64   `json:"total_ms"`
	ToolMS        int64   `json:"tool_ms"`
	ChatMS        int64   `json:"chat_ms"`
}

// RunSummary aggregates Results for a completed Run.
type RunSummary struct {
	RunID           uuid.UUID          `json:"run_id"`
	TotalCases      int                `json:"total_cases"`
	Passed          int                `json:"passed"`
	Failed          int                `json:"failed"`
	Errored         int                `json:"errored"`
	AverageScore    float64            `json:"average_score"`
	PassRate        float64            `json:"pass_rate"`
	ScoresByType    map[string]float64 `json:"scores_by_type,omitempty"`
	ExecutionTimeMS int64              `json:"execution_time_ms"`
	Error           string             `json:"error,omitempty"`
}

// RunReference identifies a run within a comparison request, either by ID
// or as a symbolic reference ("latest", "previous") resolved by the caller.
type RunReference struct {
	RunID uuid.UUID `json:"run_id"`
	Label string    `json:"label,omitempty"`
}

// RegressionItem reports a single (case_name, scorer_name) pair whose score
// moved between a baseline and candidate run by more than the configured
// threshold, per spec.md §4.7's join-by-case_name-and-scorer contract.
type RegressionItem struct {
	CaseName       string  `json:"case_name"`
	ScorerName     string  `json:"scorer_name"`
	BaselineScore  float64 `json:"baseline_score"`
	CandidateScore float64 `json:"candidate_score"`
	Delta          float64 `json:"delta"`
}

// CompareResult is the outcome of comparing two runs of the same suite.
type CompareResult struct {
	Baseline     RunReference     `json:"baseline"`
	Candidate    RunReference     `json:"candidate"`
	Regressions  []RegressionItem `json:"regressions"`
	Improvements []RegressionItem `json:"improvements"`
	Unchanged    int              `json:"unchanged"`
	OverallDelta float64          `json:"overall_delta"`
	Passed       bool             `json:"passed"`
}

// DashboardStats is the aggregated view served by the stats endpoints.
type DashboardStats struct {
	TotalRuns    int     `json:"total_runs"`
	PassedRuns   int     `json:"passed_runs"`
	FailedRuns   int     `json:"failed_runs"`
	PassRate     float64 `json:"pass_rate"`
	FailRate     float64 `json:"fail_rate"`
	AverageScore float64 `json:"average_score"`
	RunsThisWeek int     `json:"runs_this_week"`
}

// WeeklyVolume is one point of the runs-per-day time series shown on the
// dashboard's trend chart.
type WeeklyVolume struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
