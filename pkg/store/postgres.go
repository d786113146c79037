package store

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/neon-eval/evalengine/pkg/models"
)

// PostgresStore implements Store on top of database/sql using the pgx
// stdlib driver. Every method issues plain SQL; there is no ORM layer.
type PostgresStore struct {
	db *stdsql.DB
}

// NewPostgresStore wraps an already-migrated *sql.DB.
func NewPostgresStore(db *stdsql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Projects ---------------------------------------------------------

func (s *PostgresStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %q: %w", p.Name, ErrAlreadyExists)
	}
	return err
}

func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p := &models.Project{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		p := &models.Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Suites -------------------------------------------------------------

func (s *PostgresStore) CreateSuite(ctx context.Context, st *models.Suite) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := time.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now
	weights, err := json.Marshal(st.ScorerWeights)
	if err != nil {
		return fmt.Errorf("marshal scorer weights: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO suites (id, project_id, name, description, agent_locator, scorer_weights,
			pass_threshold, default_timeout_ms, parallel, stop_on_failure, tags, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		st.ID, st.ProjectID, st.Name, st.Description, st.AgentLocator, weights,
		st.PassThreshold, st.DefaultTimeout.Milliseconds(), st.Parallel, st.StopOnFailure,
		st.Tags, st.CreatedAt, st.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("suite %q: %w", st.Name, ErrAlreadyExists)
	}
	return err
}

func scanSuite(row interface{ Scan(...any) error }) (*models.Suite, error) {
	st := &models.Suite{}
	var weights []byte
	var timeoutMS int64
	err := row.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Description, &st.AgentLocator,
		&weights, &st.PassThreshold, &timeoutMS, &st.Parallel, &st.StopOnFailure,
		&st.Tags, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.DefaultTimeout = time.Duration(timeoutMS) * time.Millisecond
	if len(weights) > 0 {
		if err := json.Unmarshal(weights, &st.ScorerWeights); err != nil {
			return nil, fmt.Errorf("unmarshal scorer weights: %w", err)
		}
	}
	return st, nil
}

const suiteColumns = `id, project_id, name, description, agent_locator, scorer_weights,
	pass_threshold, default_timeout_ms, parallel, stop_on_failure, tags, created_at, updated_at`

func (s *PostgresStore) GetSuite(ctx context.Context, id uuid.UUID) (*models.Suite, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+suiteColumns+` FROM suites WHERE id = $1`, id)
	st, err := scanSuite(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

func (s *PostgresStore) UpdateSuite(ctx context.Context, st *models.Suite) error {
	st.UpdatedAt = time.Now().UTC()
	weights, err := json.Marshal(st.ScorerWeights)
	if err != nil {
		return fmt.Errorf("marshal scorer weights: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE suites SET name=$2, description=$3, agent_locator=$4, scorer_weights=$5,
			pass_threshold=$6, default_timeout_ms=$7, parallel=$8, stop_on_failure=$9,
			tags=$10, updated_at=$11
		WHERE id = $1`,
		st.ID, st.Name, st.Description, st.AgentLocator, weights,
		st.PassThreshold, st.DefaultTimeout.Milliseconds(), st.Parallel, st.StopOnFailure,
		st.Tags, st.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("suite %q: %w", st.Name, ErrAlreadyExists)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSuite(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSuites(ctx context.Context, projectID uuid.UUID) ([]*models.Suite, error) {
	query := `SELECT ` + suiteColumns + ` FROM suites`
	args := []any{}
	if projectID != uuid.Nil {
		query += ` WHERE project_id = $1`
		args = append(args, projectID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Suite
	for rows.Next() {
		st, err := scanSuite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// --- Cases ----------------------------------------------------------------

func (s *PostgresStore) CreateCase(ctx context.Context, c *models.Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	context, err := json.Marshal(c.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	scorerConfig, err := json.Marshal(c.ScorerConfig)
	if err != nil {
		return fmt.Errorf("marshal scorer config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (id, suite_id, name, input, context, expected_tools,
			expected_tool_sequence, expected_content, expected_output_pattern,
			rubric_notes, scorers, scorer_config, min_score, timeout_ms, tags,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		c.ID, c.SuiteID, c.Name, c.Input, context, c.ExpectedTools,
		c.ExpectedToolSequence, c.ExpectedContent, c.ExpectedOutputPattern,
		c.RubricNotes, c.Scorers, scorerConfig, c.MinScore, c.Timeout.Milliseconds(), c.Tags,
		c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("case %q: %w", c.Name, ErrAlreadyExists)
	}
	return err
}

const caseColumns = `id, suite_id, name, input, context, expected_tools,
	expected_tool_sequence, expected_content, expected_output_pattern,
	rubric_notes, scorers, scorer_config, min_score, timeout_ms, tags,
	created_at, updated_at`

func scanCase(row interface{ Scan(...any) error }) (*models.Case, error) {
	c := &models.Case{}
	var timeoutMS int64
	var context, scorerConfig []byte
	err := row.Scan(&c.ID, &c.SuiteID, &c.Name, &c.Input, &context, &c.ExpectedTools,
		&c.ExpectedToolSequence, &c.ExpectedContent, &c.ExpectedOutputPattern,
		&c.RubricNotes, &c.Scorers, &scorerConfig, &c.MinScore, &timeoutMS, &c.Tags,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Timeout = time.Duration(timeoutMS) * time.Millisecond
	if len(context) > 0 {
		if err := json.Unmarshal(context, &c.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
	}
	if len(scorerConfig) > 0 {
		if err := json.Unmarshal(scorerConfig, &c.ScorerConfig); err != nil {
			return nil, fmt.Errorf("unmarshal scorer config: %w", err)
		}
	}
	return c, nil
}

func (s *PostgresStore) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) ListCases(ctx context.Context, suiteID uuid.UUID) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE suite_id = $1 ORDER BY name`, suiteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Runs -------------------------------------------------------------

func (s *PostgresStore) CreateRun(ctx context.Context, r *models.Run) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = models.RunStatusPending
	}
	config, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	var summary []byte
	if r.Summary != nil {
		summary, err = json.Marshal(r.Summary)
		if err != nil {
			return fmt.Errorf("marshal run summary: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, project_id, suite_id, agent_version, status, trigger, triggered_by,
			config, summary, started_at, finished_at, error, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		r.ID, r.ProjectID, r.SuiteID, r.AgentVersion, r.Status, r.Trigger, r.TriggeredBy,
		config, summary, r.StartedAt, r.FinishedAt, r.Error, r.CreatedAt, r.UpdatedAt)
	return err
}

const runColumns = `id, project_id, suite_id, agent_version, status, trigger, triggered_by,
	config, summary, started_at, finished_at, error, created_at, updated_at`

func scanRun(row interface{ Scan(...any) error }) (*models.Run, error) {
	r := &models.Run{}
	var projectID uuid.NullUUID
	var config, summary []byte
	err := row.Scan(&r.ID, &projectID, &r.SuiteID, &r.AgentVersion, &r.Status, &r.Trigger, &r.TriggeredBy,
		&config, &summary, &r.StartedAt, &r.FinishedAt, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if projectID.Valid {
		r.ProjectID = projectID.UUID
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &r.Config); err != nil {
			return nil, fmt.Errorf("unmarshal run config: %w", err)
		}
	}
	if len(summary) > 0 {
		r.Summary = &models.RunSummary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal run summary: %w", err)
		}
	}
	return r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	r, err := scanRun(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListRuns lists runs scoped to projectID, optionally narrowed to one suite
// and/or one status, returning the page alongside the total matching row
// count. The count is computed in the same query via a window function so
// this remains a single round trip, per spec.md §4.1/§4.8.
func (s *PostgresStore) ListRuns(ctx context.Context, projectID uuid.UUID, suiteID *uuid.UUID, status *models.RunStatus, limit, offset int) ([]*models.Run, int, error) {
	if limit <= 0 {
		limit = 50
	}

	where := []string{"project_id = $1"}
	args := []any{projectID}
	if suiteID != nil {
		args = append(args, *suiteID)
		where = append(where, fmt.Sprintf("suite_id = $%d", len(args)))
	}
	if status != nil {
		args = append(args, *status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count FROM runs
		WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		runColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*models.Run
	total := 0
	for rows.Next() {
		r, total2, err := scanRunWithCount(rows)
		if err != nil {
			return nil, 0, err
		}
		total = total2
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// scanRunWithCount scans a run row plus the trailing count(*) OVER() column
// ListRuns appends to its SELECT list.
func scanRunWithCount(row interface{ Scan(...any) error }) (*models.Run, int, error) {
	r := &models.Run{}
	var projectID uuid.NullUUID
	var config, summary []byte
	var total int
	err := row.Scan(&r.ID, &projectID, &r.SuiteID, &r.AgentVersion, &r.Status, &r.Trigger, &r.TriggeredBy,
		&config, &summary, &r.StartedAt, &r.FinishedAt, &r.Error, &r.CreatedAt, &r.UpdatedAt, &total)
	if err != nil {
		return nil, 0, err
	}
	if projectID.Valid {
		r.ProjectID = projectID.UUID
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &r.Config); err != nil {
			return nil, 0, fmt.Errorf("unmarshal run config: %w", err)
		}
	}
	if len(summary) > 0 {
		r.Summary = &models.RunSummary{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return nil, 0, fmt.Errorf("unmarshal run summary: %w", err)
		}
	}
	return r, total, nil
}

func (s *PostgresStore) CountRuns(ctx context.Context, suiteID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs WHERE suite_id = $1`, suiteID).Scan(&n)
	return n, err
}

// TransitionRunStatus performs the status move inside a single statement so
// that a cancel racing a completion (or a second cancel) is resolved by
// Postgres rather than by a check-then-act race in application code.
func (s *PostgresStore) TransitionRunStatus(ctx context.Context, runID uuid.UUID, fromStatuses []models.RunStatus, toStatus models.RunStatus, errMsg string) error {
	from := make([]string, len(fromStatuses))
	for i, f := range fromStatuses {
		from[i] = string(f)
	}
	now := time.Now().UTC()

	var startedAtClause, finishedAtClause string
	if toStatus == models.RunStatusRunning {
		startedAtClause = ", started_at = COALESCE(started_at, $5)"
	}
	if toStatus.Terminal() {
		finishedAtClause = ", finished_at = $5"
	}

	query := fmt.Sprintf(`
		UPDATE runs SET status = $2, error = $4, updated_at = $5%s%s
		WHERE id = $1 AND status = ANY($3)`, startedAtClause, finishedAtClause)

	res, err := s.db.ExecContext(ctx, query, runID, toStatus, from, errMsg, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PostgresStore) ClaimStaleRunningRuns(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE runs SET status = $1, error = $2, finished_at = $3, updated_at = $3
		WHERE status = $4 AND started_at < $5
		RETURNING id`,
		models.RunStatusFailed, "run exceeded maximum execution time and was reaped", time.Now().UTC(),
		models.RunStatusRunning, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) DeleteRunsOlderThan(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- Results ----------------------------------------------------------

func (s *PostgresStore) CreateResult(ctx context.Context, r *models.Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()
	details, err := json.Marshal(r.ScoreDetails)
	if err != nil {
		return fmt.Errorf("marshal score details: %w", err)
	}
	var trace []byte
	if r.TraceSummary != nil {
		trace, err = json.Marshal(r.TraceSummary)
		if err != nil {
			return fmt.Errorf("marshal trace summary: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (id, run_id, case_id, status, score, agent_output, tools_called,
			score_details, trace_summary, error, duration_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (run_id, case_id) DO UPDATE SET
			status = EXCLUDED.status, score = EXCLUDED.score, agent_output = EXCLUDED.agent_output,
			tools_called = EXCLUDED.tools_called, score_details = EXCLUDED.score_details,
			trace_summary = EXCLUDED.trace_summary, error = EXCLUDED.error,
			duration_ms = EXCLUDED.duration_ms`,
		r.ID, r.RunID, r.CaseID, r.Status, r.Score, r.AgentOutput, r.ToolsCalled,
		details, trace, r.Error, r.DurationMS, r.CreatedAt)
	return err
}

const resultColumns = `id, run_id, case_id, status, score, agent_output, tools_called,
	score_details, trace_summary, error, duration_ms, created_at`

func scanResult(row interface{ Scan(...any) error }) (*models.Result, error) {
	r := &models.Result{}
	var details []byte
	var trace []byte
	err := row.Scan(&r.ID, &r.RunID, &r.CaseID, &r.Status, &r.Score, &r.AgentOutput, &r.ToolsCalled,
		&details, &trace, &r.Error, &r.DurationMS, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &r.ScoreDetails); err != nil {
			return nil, fmt.Errorf("unmarshal score details: %w", err)
		}
	}
	if len(trace) > 0 {
		r.TraceSummary = &models.TraceSummary{}
		if err := json.Unmarshal(trace, r.TraceSummary); err != nil {
			return nil, fmt.Errorf("unmarshal trace summary: %w", err)
		}
	}
	return r, nil
}

func (s *PostgresStore) GetResult(ctx context.Context, runID, caseID uuid.UUID) (*models.Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE run_id = $1 AND case_id = $2`, runID, caseID)
	r, err := scanResult(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) ListResults(ctx context.Context, runID uuid.UUID) ([]*models.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM results WHERE run_id = $1 ORDER BY created_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Stats --------------------------------------------------------------

// DashboardStats computes every counter in a single round trip, deriving
// passed_runs/failed_runs from each completed run's persisted
// summary.failed/summary.errored (not from status alone, since a completed
// run can still contain failed or errored cases) and avg_score as the mean
// of each run's own summary.average_score, per spec.md §4.8.
func (s *PostgresStore) DashboardStats(ctx context.Context, suiteID uuid.UUID) (*models.DashboardStats, error) {
	where := ""
	args := []any{}
	if suiteID != uuid.Nil {
		where = "WHERE suite_id = $1"
		args = append(args, suiteID)
	}
	weekArg := len(args) + 1
	args = append(args, time.Now().UTC().AddDate(0, 0, -7))

	query := fmt.Sprintf(`
		SELECT
			count(*) FILTER (WHERE status IN ('completed','failed','cancelled')) AS total_runs,
			count(*) FILTER (
				WHERE status = 'completed'
				AND COALESCE((summary->>'failed')::int, 0) = 0
				AND COALESCE((summary->>'errored')::int, 0) = 0
			) AS passed_runs,
			count(*) FILTER (
				WHERE status = 'failed'
				OR (status = 'completed' AND (
					COALESCE((summary->>'failed')::int, 0) > 0
					OR COALESCE((summary->>'errored')::int, 0) > 0
				))
			) AS failed_runs,
			COALESCE(avg((summary->>'average_score')::double precision)
				FILTER (WHERE summary IS NOT NULL), 0) AS avg_score,
			count(*) FILTER (WHERE created_at >= $%d) AS runs_this_week
		FROM runs %s`, weekArg, where)

	stats := &models.DashboardStats{}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalRuns, &stats.PassedRuns, &stats.FailedRuns, &stats.AverageScore, &stats.RunsThisWeek,
	); err != nil {
		return nil, err
	}
	if stats.TotalRuns > 0 {
		stats.PassRate = float64(stats.PassedRuns) / float64(stats.TotalRuns) * 100
		stats.FailRate = float64(stats.FailedRuns) / float64(stats.TotalRuns) * 100
	}
	return stats, nil
}

func (s *PostgresStore) WeeklyVolume(ctx context.Context, suiteID uuid.UUID) ([]models.WeeklyVolume, error) {
	where := "WHERE created_at >= $1"
	args := []any{time.Now().UTC().AddDate(0, 0, -7)}
	if suiteID != uuid.Nil {
		where += " AND suite_id = $2"
		args = append(args, suiteID)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT date_trunc('day', created_at) AS day, count(*)
		FROM runs %s
		GROUP BY day ORDER BY day`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WeeklyVolume
	for rows.Next() {
		var v models.WeeklyVolume
		if err := rows.Scan(&v.Day, &v.Count); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
