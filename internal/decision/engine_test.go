package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goal-engine/internal/memory"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/store"
)

func newDecider(t *testing.T) (*Engine, *store.SQLite) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Engine{
		Store:       db,
		Emotions:    NewEmotionTracker(),
		Personality: "CEO",
		Org:         OrgProfileFor("Acme", "STARTUP", 0.5),
	}, db
}

func addGoal(t *testing.T, db *store.SQLite, id string, status models.GoalStatus, prio models.GoalPriority) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.CreateGoal(context.Background(), &models.GoalExecution{
		ID: id, Objective: "objective " + id, OrgID: "org-1",
		Status: status, CreatedAt: now, UpdatedAt: now,
	}))
	prio.GoalID = id
	require.NoError(t, db.SavePriority(context.Background(), prio))
}

func TestDecideNoCandidates(t *testing.T) {
	e, _ := newDecider(t)

	rec, err := e.Decide(context.Background(), "u1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNone, rec.DecisionType)
	assert.Contains(t, rec.Reason, "No active goals")
}

func TestDecideSelectsHighestAndPausesRunners(t *testing.T) {
	e, db := newDecider(t)
	addGoal(t, db, "strong", models.GoalRunning, models.GoalPriority{
		Impact: 0.9, Urgency: 0.8, Confidence: 0.9, Effort: 0.1, Risk: 0.1,
	})
	addGoal(t, db, "weak", models.GoalRunning, models.GoalPriority{
		Impact: 0.4, Urgency: 0.4, Confidence: 0.5, Effort: 0.3, Risk: 0.2,
	})

	rec, err := e.Decide(context.Background(), "u1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionSelect, rec.DecisionType)
	assert.Equal(t, "strong", rec.SelectedGoalID)
	assert.Equal(t, []string{"weak"}, rec.PausedGoalIDs)
	assert.Empty(t, rec.KilledGoalIDs)

	// single-goal-active policy actually persisted
	weak, err := db.GetGoal(context.Background(), "weak")
	require.NoError(t, err)
	assert.Equal(t, models.GoalPaused, weak.Status)

	require.Contains(t, rec.Snapshot, "strong")
	assert.Equal(t, "CEO", rec.Snapshot["strong"].Personality)
}

func TestDecideKillsHopelessGoals(t *testing.T) {
	e, db := newDecider(t)
	addGoal(t, db, "viable", models.GoalPending, models.GoalPriority{
		Impact: 0.8, Urgency: 0.7, Confidence: 0.8, Effort: 0.2, Risk: 0.1,
	})
	// heavy effort and risk, amplified by a frustrated user, push the final
	// score under the kill threshold
	addGoal(t, db, "doomed", models.GoalRunning, models.GoalPriority{
		Impact: 0.05, Urgency: 0.05, Confidence: 0.1, Effort: 1.0, Risk: 1.0,
	})
	e.Emotions.Detect("u1", TriggerGoalKilled)

	rec, err := e.Decide(context.Background(), "u1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionSelect, rec.DecisionType)
	assert.Equal(t, "viable", rec.SelectedGoalID)
	assert.Equal(t, []string{"doomed"}, rec.KilledGoalIDs)

	doomed, err := db.GetGoal(context.Background(), "doomed")
	require.NoError(t, err)
	assert.Equal(t, models.GoalFailed, doomed.Status)
	assert.Contains(t, doomed.Error, "killed by arbitration")

	// killing a goal frustrates the user
	assert.Equal(t, EmotionFrustrated, e.Emotions.Current("u1"))
}

func TestDecideNoneWhenWinnerKilled(t *testing.T) {
	e, db := newDecider(t)
	addGoal(t, db, "only", models.GoalRunning, models.GoalPriority{
		Impact: 0.05, Urgency: 0.05, Confidence: 0.1, Effort: 1.0, Risk: 1.0,
	})
	e.Emotions.Detect("u1", TriggerGoalKilled)

	rec, err := e.Decide(context.Background(), "u1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNone, rec.DecisionType)
	assert.Empty(t, rec.SelectedGoalID)
	assert.Equal(t, []string{"only"}, rec.KilledGoalIDs)
}

func TestDecideTieBreaksByInsertionOrder(t *testing.T) {
	e, db := newDecider(t)
	same := models.GoalPriority{Impact: 0.6, Urgency: 0.6, Confidence: 0.6, Effort: 0.2, Risk: 0.2}
	addGoal(t, db, "first", models.GoalPending, same)
	addGoal(t, db, "second", models.GoalPending, same)

	rec, err := e.Decide(context.Background(), "u1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "first", rec.SelectedGoalID)
}

func TestDecideMemoryAdjustsConfidence(t *testing.T) {
	e, db := newDecider(t)
	addGoal(t, db, "bruised", models.GoalPending, models.GoalPriority{
		Impact: 0.7, Urgency: 0.6, Confidence: 0.8, Effort: 0.2, Risk: 0.2,
	})
	e.Memory = stubMemory{mems: []models.Memory{
		{Summary: "similar goal failed", Type: models.MemoryMistake},
		{Summary: "similar goal failed again", Type: models.MemoryMistake},
	}}

	rec, err := e.Decide(context.Background(), "u1", "org-1")
	require.NoError(t, err)
	// 0.8 - 0.2 - 0.2 = 0.4
	assert.InDelta(t, 0.4, rec.Snapshot["bruised"].ConfidenceAdjusted, 1e-9)
}

type stubMemory struct{ mems []models.Memory }

func (s stubMemory) Recall(ctx context.Context, query string, k int) ([]models.Memory, error) {
	return s.mems, nil
}

func (s stubMemory) AddMemory(ctx context.Context, summary string, meta memory.Meta) error {
	return nil
}
