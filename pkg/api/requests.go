package api

import "time"

// CreateSuiteRequest is the request body for POST /v1/projects/:project_id/suites.
// YAML suite definitions are uploaded as raw bytes and parsed by
// pkg/suiteconfig; this struct is used only for direct JSON suite creation.
type CreateSuiteRequest struct {
	Name           string             `json:"name" binding:"required"`
	Description    string             `json:"description"`
	AgentLocator   string             `json:"agent_locator" binding:"required"`
	ScorerWeights  map[string]float64 `json:"scorer_weights"`
	PassThreshold  float64            `json:"pass_threshold"`
	DefaultTimeout time.Duration      `json:"default_timeout_seconds"`
	Tags           []string           `json:"tags"`
	Parallel       bool               `json:"parallel"`
	StopOnFailure  bool               `json:"stop_on_failure"`
}

// CreateRunRequest is the request body for POST /v1/suites/:suite_id/runs.
// Parallel and StopOnFailure are pointers so an omitted field is
// distinguishable from an explicit false: per spec.md §4.6, the suite's
// own config is the scheduling default and a run's config is only an
// optional override.
type CreateRunRequest struct {
	Trigger       string `json:"trigger"`
	TriggeredBy   string `json:"triggered_by"`
	AgentVersion  string `json:"agent_version"`
	Parallel      *bool  `json:"parallel"`
	StopOnFailure *bool  `json:"stop_on_failure"`
}

// CompareRequest is the request body for POST /v1/compare.
type CompareRequest struct {
	BaselineRunID  string  `json:"baseline_run_id" binding:"required"`
	CandidateRunID string  `json:"candidate_run_id" binding:"required"`
	Threshold      float64 `json:"threshold"`
}
