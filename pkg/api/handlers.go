// Package api implements the HTTP control-plane adapter: Gin handlers for
// suites, cases, runs, comparisons and the stats dashboard, per spec.md §6.
// The engine itself never parses auth tokens — see auth.go.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/neon-eval/evalengine/pkg/comparator"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/orchestrator"
	"github.com/neon-eval/evalengine/pkg/stats"
	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/neon-eval/evalengine/pkg/suiteconfig"
)

// Server holds the dependencies every handler needs. Handlers are thin: the
// real logic lives in Store/Orchestrator/Comparator/Aggregator, matching
// spec.md §6's "adapters call into the same operations" stance.
type Server struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Comparator   *comparator.Comparator
	Stats        *stats.Aggregator
	KnownScorers map[string]bool
}

// NewServer builds a Server.
func NewServer(st store.Store, orch *orchestrator.Orchestrator, cmp *comparator.Comparator, agg *stats.Aggregator, knownScorers map[string]bool) *Server {
	return &Server{Store: st, Orchestrator: orch, Comparator: cmp, Stats: agg, KnownScorers: knownScorers}
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSuite handles POST /v1/projects/:project_id/suites with a JSON body.
func (s *Server) CreateSuite(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req CreateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suite := &models.Suite{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Name:           req.Name,
		Description:    req.Description,
		AgentLocator:   req.AgentLocator,
		ScorerWeights:  req.ScorerWeights,
		PassThreshold:  req.PassThreshold,
		DefaultTimeout: req.DefaultTimeout * time.Second,
		Tags:           req.Tags,
		Parallel:       req.Parallel,
		StopOnFailure:  req.StopOnFailure,
	}
	if err := s.Store.CreateSuite(c.Request.Context(), suite); err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusCreated, suite)
}

// UploadSuite handles POST /v1/projects/:project_id/suites/yaml, parsing the
// request body as a suite YAML file via pkg/suiteconfig and persisting the
// resulting suite and cases.
func (s *Server) UploadSuite(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loaded, err := suiteconfig.Load(body, projectID, suiteconfig.Options{KnownScorers: s.KnownScorers})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := s.Store.CreateSuite(ctx, loaded.Suite); err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	for _, cs := range loaded.Cases {
		if err := s.Store.CreateCase(ctx, cs); err != nil {
			status, msg := mapServiceError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
	}
	c.JSON(http.StatusCreated, gin.H{"suite": loaded.Suite, "cases": loaded.Cases})
}

// GetSuite handles GET /v1/suites/:suite_id.
func (s *Server) GetSuite(c *gin.Context) {
	suiteID, ok := parseUUIDParam(c, "suite_id")
	if !ok {
		return
	}
	suite, err := s.Store.GetSuite(c.Request.Context(), suiteID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, suite)
}

// ListSuites handles GET /v1/projects/:project_id/suites.
func (s *Server) ListSuites(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}
	suites, err := s.Store.ListSuites(c.Request.Context(), projectID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, suites)
}

// DeleteSuite handles DELETE /v1/suites/:suite_id.
func (s *Server) DeleteSuite(c *gin.Context) {
	suiteID, ok := parseUUIDParam(c, "suite_id")
	if !ok {
		return
	}
	if err := s.Store.DeleteSuite(c.Request.Context(), suiteID); err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// ListCases handles GET /v1/suites/:suite_id/cases.
func (s *Server) ListCases(c *gin.Context) {
	suiteID, ok := parseUUIDParam(c, "suite_id")
	if !ok {
		return
	}
	cases, err := s.Store.ListCases(c.Request.Context(), suiteID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, cases)
}

// CreateRun handles POST /v1/suites/:suite_id/runs. The run is created in
// "pending" status and returned immediately; execution proceeds in the
// background via the Orchestrator, matching spec.md §4.4's "returns the
// run immediately" contract.
func (s *Server) CreateRun(c *gin.Context) {
	suiteID, ok := parseUUIDParam(c, "suite_id")
	if !ok {
		return
	}

	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suite, err := s.Store.GetSuite(c.Request.Context(), suiteID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	trigger := models.RunTrigger(req.Trigger)
	if trigger == "" {
		trigger = models.RunTriggerManual
	}

	// suite.config is the scheduling default (spec.md §4.6); the request
	// only overrides it when the field is explicitly present.
	parallel := suite.Parallel
	if req.Parallel != nil {
		parallel = *req.Parallel
	}
	stopOnFailure := suite.StopOnFailure
	if req.StopOnFailure != nil {
		stopOnFailure = *req.StopOnFailure
	}

	run := &models.Run{
		ID:           uuid.New(),
		ProjectID:    suite.ProjectID,
		SuiteID:      suiteID,
		Status:       models.RunStatusPending,
		Trigger:      trigger,
		TriggeredBy:  req.TriggeredBy,
		AgentVersion: req.AgentVersion,
		Config: map[string]any{
			"parallel":        parallel,
			"stop_on_failure": stopOnFailure,
		},
	}
	if err := s.Store.CreateRun(c.Request.Context(), run); err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	go func() {
		// Detached from the request context: the run must keep executing
		// after the HTTP response is written.
		if err := s.Orchestrator.StartRun(context.Background(), run.ID, parallel, stopOnFailure); err != nil {
			slog.Error("run execution failed", "run_id", run.ID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, run)
}

// GetRun handles GET /v1/runs/:run_id.
func (s *Server) GetRun(c *gin.Context) {
	runID, ok := parseUUIDParam(c, "run_id")
	if !ok {
		return
	}
	run, err := s.Store.GetRun(c.Request.Context(), runID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	results, err := s.Store.ListResults(c.Request.Context(), runID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":     run,
		"results": results,
		"summary": orchestrator.Summarize(runID, results),
	})
}

// ListRuns handles GET /v1/suites/:suite_id/runs, and also backs
// GET /v1/projects/:project_id/runs when mounted under that route with no
// suite_id param — matching spec.md §4.1's project-scoped
// list_runs(project_id, suite_id?, status?, limit, offset) contract.
func (s *Server) ListRuns(c *gin.Context) {
	var suiteID *uuid.UUID
	if c.Param("suite_id") != "" {
		sid, ok := parseUUIDParam(c, "suite_id")
		if !ok {
			return
		}
		suiteID = &sid
	}

	var projectID uuid.UUID
	if c.Param("project_id") != "" {
		pid, ok := parseUUIDParam(c, "project_id")
		if !ok {
			return
		}
		projectID = pid
	} else if suiteID != nil {
		// Route mounted without a project_id param: resolve it from the suite.
		suite, err := s.Store.GetSuite(c.Request.Context(), *suiteID)
		if err != nil {
			status, msg := mapServiceError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		projectID = suite.ProjectID
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
		return
	}

	var runStatus *models.RunStatus
	if raw := c.Query("status"); raw != "" {
		st := models.RunStatus(raw)
		runStatus = &st
	}

	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)
	runs, total, err := s.Store.ListRuns(c.Request.Context(), projectID, suiteID, runStatus, limit, offset)
	if err != nil {
		httpStatus, msg := mapServiceError(err)
		c.JSON(httpStatus, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total_count": total})
}

// CancelRun handles POST /v1/runs/:run_id/cancel.
func (s *Server) CancelRun(c *gin.Context) {
	runID, ok := parseUUIDParam(c, "run_id")
	if !ok {
		return
	}
	if err := s.Orchestrator.CancelRun(c.Request.Context(), runID); err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Compare handles POST /v1/compare.
func (s *Server) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	baselineID, err := uuid.Parse(req.BaselineRunID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid baseline_run_id"})
		return
	}
	candidateID, err := uuid.Parse(req.CandidateRunID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate_run_id"})
		return
	}

	result, err := s.Comparator.Compare(c.Request.Context(), baselineID, candidateID, req.Threshold)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Dashboard handles GET /v1/suites/:suite_id/stats/dashboard.
func (s *Server) Dashboard(c *gin.Context) {
	suiteID, ok := parseUUIDParam(c, "suite_id")
	if !ok {
		return
	}
	dash, err := s.Stats.Dashboard(c.Request.Context(), suiteID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, dash)
}

// WeeklyVolume handles GET /v1/suites/:suite_id/stats/weekly.
func (s *Server) WeeklyVolume(c *gin.Context) {
	suiteID, ok := parseUUIDParam(c, "suite_id")
	if !ok {
		return
	}
	volume, err := s.Stats.WeeklyVolume(c.Request.Context(), suiteID)
	if err != nil {
		status, msg := mapServiceError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, volume)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
