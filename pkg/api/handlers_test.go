package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-eval/evalengine/pkg/comparator"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/store"
)

// memStore is a minimal store.Store fake scoped to what the handlers under
// test exercise (suites, cases, runs). Result and stats methods return empty
// values; the remaining methods panic.
type memStore struct {
	suites map[uuid.UUID]*models.Suite
	cases  map[uuid.UUID][]*models.Case
	runs   map[uuid.UUID]*models.Run
}

func newMemStore() *memStore {
	return &memStore{
		suites: map[uuid.UUID]*models.Suite{},
		cases:  map[uuid.UUID][]*models.Case{},
		runs:   map[uuid.UUID]*models.Run{},
	}
}

func (m *memStore) CreateProject(context.Context, *models.Project) error { panic("unused") }
func (m *memStore) GetProject(context.Context, uuid.UUID) (*models.Project, error) {
	panic("unused")
}
func (m *memStore) ListProjects(context.Context) ([]*models.Project, error) { panic("unused") }

func (m *memStore) CreateSuite(_ context.Context, s *models.Suite) error {
	m.suites[s.ID] = s
	return nil
}
func (m *memStore) GetSuite(_ context.Context, id uuid.UUID) (*models.Suite, error) {
	s, ok := m.suites[id]
	if !ok {
		return nil, errNotFoundForAPITest
	}
	return s, nil
}
func (m *memStore) UpdateSuite(context.Context, *models.Suite) error { panic("unused") }
func (m *memStore) DeleteSuite(_ context.Context, id uuid.UUID) error {
	delete(m.suites, id)
	return nil
}
func (m *memStore) ListSuites(_ context.Context, projectID uuid.UUID) ([]*models.Suite, error) {
	var out []*models.Suite
	for _, s := range m.suites {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) CreateCase(_ context.Context, c *models.Case) error {
	m.cases[c.SuiteID] = append(m.cases[c.SuiteID], c)
	return nil
}
func (m *memStore) GetCase(context.Context, uuid.UUID) (*models.Case, error) { panic("unused") }
func (m *memStore) ListCases(_ context.Context, suiteID uuid.UUID) ([]*models.Case, error) {
	return m.cases[suiteID], nil
}

func (m *memStore) CreateRun(_ context.Context, r *models.Run) error {
	m.runs[r.ID] = r
	return nil
}
func (m *memStore) GetRun(_ context.Context, id uuid.UUID) (*models.Run, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, errNotFoundForAPITest
	}
	return r, nil
}
func (m *memStore) ListRuns(_ context.Context, projectID uuid.UUID, suiteID *uuid.UUID, status *models.RunStatus, _, _ int) ([]*models.Run, int, error) {
	var out []*models.Run
	for _, r := range m.runs {
		if r.ProjectID != projectID {
			continue
		}
		if suiteID != nil && r.SuiteID != *suiteID {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}
func (m *memStore) CountRuns(context.Context, uuid.UUID) (int, error) { panic("unused") }
func (m *memStore) TransitionRunStatus(_ context.Context, runID uuid.UUID, from []models.RunStatus, to models.RunStatus, msg string) error {
	r, ok := m.runs[runID]
	if !ok {
		return errNotFoundForAPITest
	}
	r.Status = to
	r.Error = msg
	return nil
}
func (m *memStore) ClaimStaleRunningRuns(context.Context, time.Time) ([]uuid.UUID, error) {
	panic("unused")
}
func (m *memStore) DeleteRunsOlderThan(context.Context, time.Time) (int, error) { panic("unused") }
func (m *memStore) CreateResult(context.Context, *models.Result) error         { return nil }
func (m *memStore) GetResult(context.Context, uuid.UUID, uuid.UUID) (*models.Result, error) {
	panic("unused")
}
func (m *memStore) ListResults(context.Context, uuid.UUID) ([]*models.Result, error) {
	return nil, nil
}
func (m *memStore) DashboardStats(context.Context, uuid.UUID) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}
func (m *memStore) WeeklyVolume(context.Context, uuid.UUID) ([]models.WeeklyVolume, error) {
	return nil, nil
}
func (m *memStore) Close() error { return nil }

var errNotFoundForAPITest = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "entity not found" }

// Unwrap lets mapServiceError recognize the fake's error as store.ErrNotFound.
func (notFoundErr) Unwrap() error { return store.ErrNotFound }

func newTestServer() (*gin.Engine, *memStore) {
	gin.SetMode(gin.TestMode)
	ms := newMemStore()
	s := NewServer(ms, nil, comparator.New(ms), nil, nil)
	router := gin.New()
	auth := NewStaticAuthenticator(map[string]Principal{
		"test-key": {Scopes: map[Scope]bool{ScopeAdmin: true}},
	})
	RegisterRoutes(router, s, auth)
	return router, ms
}

func authedRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer test-key")
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateAndGetSuite(t *testing.T) {
	router, _ := newTestServer()
	projectID := uuid.New()

	createReq := authedRequest(http.MethodPost, "/v1/projects/"+projectID.String()+"/suites", CreateSuiteRequest{
		Name:          "smoke",
		AgentLocator:  "test:agent",
		PassThreshold: 0.7,
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, createReq)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Suite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	getReq := authedRequest(http.MethodGet, "/v1/suites/"+created.ID.String(), nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, getReq)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestGetSuiteNotFoundMapsTo404(t *testing.T) {
	router, _ := newTestServer()
	req := authedRequest(http.MethodGet, "/v1/suites/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthRequiresNoAuth(t *testing.T) {
	router, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompareRejectsInvalidRunID(t *testing.T) {
	router, _ := newTestServer()
	req := authedRequest(http.MethodPost, "/v1/compare", CompareRequest{
		BaselineRunID:  "not-a-uuid",
		CandidateRunID: uuid.New().String(),
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
