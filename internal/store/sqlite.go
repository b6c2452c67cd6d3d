package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/goal-engine/internal/agents"
	"github.com/example/goal-engine/internal/models"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS goal_executions (
	id                 TEXT PRIMARY KEY,
	objective          TEXT NOT NULL,
	context            TEXT NOT NULL DEFAULT '',
	org_id             TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	tasks              TEXT NOT NULL DEFAULT '[]',
	current_task_index INTEGER NOT NULL DEFAULT 0,
	results            TEXT NOT NULL DEFAULT '[]',
	error              TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	goal_id    TEXT NOT NULL,
	task_index INTEGER NOT NULL,
	task_text  TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	execution  TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_goal ON checkpoints(goal_id, task_index);

CREATE TABLE IF NOT EXISTS decision_records (
	id               TEXT PRIMARY KEY,
	decision_type    TEXT NOT NULL,
	selected_goal_id TEXT NOT NULL DEFAULT '',
	paused_goal_ids  TEXT NOT NULL DEFAULT '[]',
	killed_goal_ids  TEXT NOT NULL DEFAULT '[]',
	reason           TEXT NOT NULL DEFAULT '',
	snapshot         TEXT NOT NULL DEFAULT '{}',
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS goal_priorities (
	goal_id    TEXT PRIMARY KEY,
	impact     REAL NOT NULL,
	urgency    REAL NOT NULL,
	effort     REAL NOT NULL,
	risk       REAL NOT NULL,
	confidence REAL NOT NULL,
	score      REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS priority_weights (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	impact     REAL NOT NULL,
	urgency    REAL NOT NULL,
	confidence REAL NOT NULL,
	effort     REAL NOT NULL,
	risk       REAL NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS planner_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	task       TEXT NOT NULL,
	raw_output TEXT NOT NULL DEFAULT '',
	plan       TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	attempt    INTEGER NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	successful INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
`

// SQLite is the Store implementation backed by a single sqlite database.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) CreateGoal(ctx context.Context, g *models.GoalExecution) error {
	tasks, _ := json.Marshal(g.Tasks)
	results, _ := json.Marshal(g.Results)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goal_executions (id, objective, context, org_id, status, tasks, current_task_index, results, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Objective, g.Context, g.OrgID, string(g.Status), string(tasks),
		g.CurrentTaskIndex, string(results), g.Error, fmtTime(g.CreatedAt), fmtTime(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *SQLite) GetGoal(ctx context.Context, id string) (*models.GoalExecution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, objective, context, org_id, status, tasks, current_task_index, results, error, created_at, updated_at
		FROM goal_executions WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *SQLite) UpdateGoal(ctx context.Context, g *models.GoalExecution) error {
	g.UpdatedAt = time.Now().UTC()
	tasks, _ := json.Marshal(g.Tasks)
	results, _ := json.Marshal(g.Results)
	res, err := s.db.ExecContext(ctx, `
		UPDATE goal_executions
		SET objective = ?, context = ?, org_id = ?, status = ?, tasks = ?, current_task_index = ?, results = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		g.Objective, g.Context, g.OrgID, string(g.Status), string(tasks),
		g.CurrentTaskIndex, string(results), g.Error, fmtTime(g.UpdatedAt), g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListGoalsByStatus(ctx context.Context, orgID string, statuses ...models.GoalStatus) ([]*models.GoalExecution, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := []any{orgID}
	ph := make([]string, len(statuses))
	for i, st := range statuses {
		ph[i] = "?"
		args = append(args, string(st))
	}
	// created_at then id keeps insertion order stable for equal timestamps.
	q := fmt.Sprintf(`
		SELECT id, objective, context, org_id, status, tasks, current_task_index, results, error, created_at, updated_at
		FROM goal_executions
		WHERE org_id = ? AND status IN (%s)
		ORDER BY created_at, id`, strings.Join(ph, ","))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []*models.GoalExecution
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("list goals: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLite) AppendCheckpoint(ctx context.Context, cp models.Checkpoint) error {
	verdict, _ := json.Marshal(cp.Verdict)
	exec, _ := json.Marshal(cp.Execution)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (goal_id, task_index, task_text, verdict, execution, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cp.GoalID, cp.TaskIndex, cp.TaskText, string(verdict), string(exec), fmtTime(cp.CreatedAt))
	if err != nil {
		return fmt.Errorf("append checkpoint: %w", err)
	}
	return nil
}

func (s *SQLite) ListCheckpoints(ctx context.Context, goalID string) ([]models.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT goal_id, task_index, task_text, verdict, execution, created_at
		FROM checkpoints WHERE goal_id = ? ORDER BY task_index, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []models.Checkpoint
	for rows.Next() {
		var cp models.Checkpoint
		var verdict, exec, created string
		if err := rows.Scan(&cp.GoalID, &cp.TaskIndex, &cp.TaskText, &verdict, &exec, &created); err != nil {
			return nil, fmt.Errorf("list checkpoints: %w", err)
		}
		json.Unmarshal([]byte(verdict), &cp.Verdict)
		json.Unmarshal([]byte(exec), &cp.Execution)
		cp.CreatedAt = parseTime(created)
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (s *SQLite) AppendDecision(ctx context.Context, rec models.DecisionRecord) error {
	paused, _ := json.Marshal(rec.PausedGoalIDs)
	killed, _ := json.Marshal(rec.KilledGoalIDs)
	snapshot, _ := json.Marshal(rec.Snapshot)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_records (id, decision_type, selected_goal_id, paused_goal_ids, killed_goal_ids, reason, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DecisionType, rec.SelectedGoalID, string(paused), string(killed),
		rec.Reason, string(snapshot), fmtTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

func (s *SQLite) GetPriority(ctx context.Context, goalID string) (models.GoalPriority, error) {
	var p models.GoalPriority
	err := s.db.QueryRowContext(ctx, `
		SELECT goal_id, impact, urgency, effort, risk, confidence, score
		FROM goal_priorities WHERE goal_id = ?`, goalID).
		Scan(&p.GoalID, &p.Impact, &p.Urgency, &p.Effort, &p.Risk, &p.Confidence, &p.Score)
	if err == sql.ErrNoRows {
		return models.DefaultPriority(goalID), nil
	}
	if err != nil {
		return models.GoalPriority{}, fmt.Errorf("get priority: %w", err)
	}
	return p, nil
}

func (s *SQLite) SavePriority(ctx context.Context, p models.GoalPriority) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goal_priorities (goal_id, impact, urgency, effort, risk, confidence, score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(goal_id) DO UPDATE SET
			impact = excluded.impact, urgency = excluded.urgency, effort = excluded.effort,
			risk = excluded.risk, confidence = excluded.confidence, score = excluded.score`,
		p.GoalID, p.Impact, p.Urgency, p.Effort, p.Risk, p.Confidence, p.Score)
	if err != nil {
		return fmt.Errorf("save priority: %w", err)
	}
	return nil
}

func (s *SQLite) LatestWeights(ctx context.Context) (models.PriorityWeights, error) {
	var w models.PriorityWeights
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, impact, urgency, confidence, effort, risk, created_at
		FROM priority_weights ORDER BY id DESC LIMIT 1`).
		Scan(&w.ID, &w.Impact, &w.Urgency, &w.Confidence, &w.Effort, &w.Risk, &created)
	if err == sql.ErrNoRows {
		return s.AppendWeights(ctx, models.DefaultWeights())
	}
	if err != nil {
		return models.PriorityWeights{}, fmt.Errorf("latest weights: %w", err)
	}
	w.CreatedAt = parseTime(created)
	return w, nil
}

func (s *SQLite) AppendWeights(ctx context.Context, w models.PriorityWeights) (models.PriorityWeights, error) {
	w.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO priority_weights (impact, urgency, confidence, effort, risk, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		w.Impact, w.Urgency, w.Confidence, w.Effort, w.Risk, fmtTime(w.CreatedAt))
	if err != nil {
		return models.PriorityWeights{}, fmt.Errorf("append weights: %w", err)
	}
	w.ID, _ = res.LastInsertId()
	return w, nil
}

func (s *SQLite) LogPlanAttempt(ctx context.Context, attempt agents.PlanAttempt) error {
	var plan string
	if attempt.Plan != nil {
		b, _ := json.Marshal(attempt.Plan)
		plan = string(b)
	}
	successful := 0
	if attempt.Successful {
		successful = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO planner_logs (task, raw_output, plan, error, attempt, confidence, successful, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.Task, attempt.RawOutput, plan, attempt.Error, attempt.Attempt,
		attempt.Confidence, successful, fmtTime(attempt.CreatedAt))
	if err != nil {
		return fmt.Errorf("log plan attempt: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*models.GoalExecution, error) {
	var g models.GoalExecution
	var status, tasks, results, created, updated string
	err := row.Scan(&g.ID, &g.Objective, &g.Context, &g.OrgID, &status, &tasks,
		&g.CurrentTaskIndex, &results, &g.Error, &created, &updated)
	if err != nil {
		return nil, err
	}
	g.Status = models.GoalStatus(status)
	json.Unmarshal([]byte(tasks), &g.Tasks)
	json.Unmarshal([]byte(results), &g.Results)
	g.CreatedAt = parseTime(created)
	g.UpdatedAt = parseTime(updated)
	return &g, nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
