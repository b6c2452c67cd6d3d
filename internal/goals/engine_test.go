package goals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goal-engine/internal/actions"
	"github.com/example/goal-engine/internal/agents"
	"github.com/example/goal-engine/internal/memory"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/orchestrator"
	"github.com/example/goal-engine/internal/providers/llm"
	"github.com/example/goal-engine/internal/store"
)

// cancellingOracle kills the caller's context on first use, simulating an
// abandoned goal mid-decomposition.
type cancellingOracle struct{ cancel context.CancelFunc }

func (o *cancellingOracle) Ask(ctx context.Context, prompt string) (string, error) {
	o.cancel()
	return "not json", nil
}

const respondPlan = `{"goal": "g", "confidence": 0.9, "steps": [{"step_id": 1, "action": "respond_user", "input": {"message": "task output goes here"}}]}`

const badReadPlan = `{"goal": "g", "confidence": 0.8, "steps": [{"step_id": 1, "action": "read_file", "input": {"path": "uploads/ghost.txt"}}]}`

func newEngine(t *testing.T, oracle llm.Oracle) (*Engine, *store.SQLite) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := actions.Builtin(oracle, "uploads")
	planner := &agents.Planner{Oracle: oracle, Registry: registry}
	runner := &orchestrator.TaskRunner{
		Planner:   planner,
		Executor:  &agents.Executor{Registry: registry},
		Verifier:  &agents.Verifier{Rules: agents.StaticRules{Rules: agents.DefaultRules()}},
		Analyzer:  &agents.Analyzer{Oracle: oracle},
		Replanner: &agents.Replanner{Planner: planner},
		Memory:    memory.Noop{},
		Gate:      &memory.Gate{Oracle: oracle},
	}
	return &Engine{
		Store:      db,
		Decomposer: &Decomposer{Oracle: oracle},
		Runner:     runner,
		Memory:     memory.Noop{},
	}, db
}

func TestStartRunsGoalToCompletion(t *testing.T) {
	// first response decomposes, everything after is plan/gate traffic
	mock := (&llm.MockOracle{Fallback: respondPlan}).Enqueue(
		decompJSON("Greet the user", "Close the conversation"),
	)
	e, db := newEngine(t, mock)

	g, err := e.Start(context.Background(), "be polite", "", "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, g.Status)
	assert.Equal(t, 2, g.CurrentTaskIndex)
	require.Len(t, g.Results, 2)
	assert.True(t, g.Results[0].Accepted)

	cps, err := db.ListCheckpoints(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.Equal(t, 0, cps[0].TaskIndex)
	assert.Equal(t, "Greet the user", cps[0].TaskText)
}

func TestStartStopsStrictlyOnRejectedTask(t *testing.T) {
	mock := (&llm.MockOracle{Fallback: badReadPlan}).Enqueue(
		decompJSON("Read the ghost file", "Never reached"),
	)
	e, db := newEngine(t, mock)

	g, err := e.Start(context.Background(), "haunted", "", "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.GoalFailed, g.Status)
	assert.Contains(t, g.Error, "task 0 rejected")
	require.Len(t, g.Results, 1)
	assert.False(t, g.Results[0].Accepted)

	cps, err := db.ListCheckpoints(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, cps, 1, "later tasks must never run after a rejection")
}

func TestResumeSkipsCompletedTasks(t *testing.T) {
	mock := &llm.MockOracle{Fallback: respondPlan}
	e, db := newEngine(t, mock)

	now := time.Now().UTC()
	g := &models.GoalExecution{
		ID:               "resume-goal",
		Objective:        "finish the rest",
		OrgID:            "org-1",
		Status:           models.GoalPaused,
		Tasks:            []string{"Task zero already done", "Run task one", "Run task two"},
		CurrentTaskIndex: 1,
		Results: []models.TaskSummary{
			{Task: "Task zero already done", Accepted: true, Score: 1.0},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.CreateGoal(context.Background(), g))

	got, err := e.Resume(context.Background(), "resume-goal")
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, got.Status)
	assert.Equal(t, 3, got.CurrentTaskIndex)
	require.Len(t, got.Results, 3)

	// no planner prompt may mention the already-completed task
	for _, p := range mock.Prompts {
		assert.NotContains(t, p, "Task zero already done")
	}

	cps, err := db.ListCheckpoints(context.Background(), "resume-goal")
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.Equal(t, 1, cps[0].TaskIndex)
	assert.Equal(t, 2, cps[1].TaskIndex)
}

func TestResumeRejectsTerminalGoal(t *testing.T) {
	e, db := newEngine(t, &llm.MockOracle{Fallback: respondPlan})

	now := time.Now().UTC()
	require.NoError(t, db.CreateGoal(context.Background(), &models.GoalExecution{
		ID: "done-goal", Objective: "o", OrgID: "org-1",
		Status: models.GoalCompleted, CreatedAt: now, UpdatedAt: now,
	}))

	_, err := e.Resume(context.Background(), "done-goal")
	assert.Error(t, err)
}

func TestStartFailsTerminallyWhenDecompositionErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, db := newEngine(t, &cancellingOracle{cancel: cancel})

	g, err := e.Start(ctx, "objective", "", "org-1")
	require.Error(t, err)
	require.NotNil(t, g)
	assert.Equal(t, models.GoalFailed, g.Status)
	assert.Contains(t, g.Error, "decomposition failed")

	stored, gerr := db.GetGoal(context.Background(), g.ID)
	require.NoError(t, gerr)
	assert.Equal(t, models.GoalFailed, stored.Status)
}

func TestPauseKeepsTaskIndex(t *testing.T) {
	e, db := newEngine(t, &llm.MockOracle{Fallback: respondPlan})

	now := time.Now().UTC()
	require.NoError(t, db.CreateGoal(context.Background(), &models.GoalExecution{
		ID: "p1", Objective: "o", OrgID: "org-1", Status: models.GoalRunning,
		Tasks: []string{"a", "b"}, CurrentTaskIndex: 1, CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, e.Pause(context.Background(), "p1"))
	g, err := db.GetGoal(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.GoalPaused, g.Status)
	assert.Equal(t, 1, g.CurrentTaskIndex)
}
