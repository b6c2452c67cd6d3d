package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/store"
)

func newUpdater(t *testing.T) (*Updater, *store.SQLite) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Updater{Store: db}, db
}

func TestApplySimpleAdjustment(t *testing.T) {
	u, _ := newUpdater(t)

	snap, changed, err := u.Apply(context.Background(), map[string]float64{"impact": 0.02, "risk": -0.01})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.InDelta(t, 0.42, snap.Impact, 1e-9)
	assert.InDelta(t, 0.19, snap.Risk, 1e-9)
	// untouched fields keep their defaults
	assert.InDelta(t, 0.3, snap.Urgency, 1e-9)
}

func TestApplyCapsStepChange(t *testing.T) {
	u, _ := newUpdater(t)

	snap, changed, err := u.Apply(context.Background(), map[string]float64{"impact": 0.5})
	require.NoError(t, err)
	assert.True(t, changed)
	// default 0.4 plus at most MaxStepChange
	assert.InDelta(t, 0.45, snap.Impact, 1e-9)
}

func TestApplyClampsToWeightRange(t *testing.T) {
	u, _ := newUpdater(t)

	// walk effort down from 0.1; the floor stops it at MinWeight
	_, _, err := u.Apply(context.Background(), map[string]float64{"effort": -0.03})
	require.NoError(t, err)
	snap, changed, err := u.Apply(context.Background(), map[string]float64{"effort": -0.05})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.InDelta(t, MinWeight, snap.Effort, 1e-9)

	// a third push cannot go below the floor, so nothing changes
	_, changed, err = u.Apply(context.Background(), map[string]float64{"effort": -0.05})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyNoChangeWritesNoSnapshot(t *testing.T) {
	u, db := newUpdater(t)

	before, err := db.LatestWeights(context.Background())
	require.NoError(t, err)

	_, changed, err := u.Apply(context.Background(), map[string]float64{"impact": 0, "bogus": 0.5})
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := db.LatestWeights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID, "no new snapshot may be appended")
}

func TestApplyKeepsHistory(t *testing.T) {
	u, db := newUpdater(t)

	first, _, err := u.Apply(context.Background(), map[string]float64{"urgency": 0.03})
	require.NoError(t, err)
	second, _, err := u.Apply(context.Background(), map[string]float64{"urgency": 0.03})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	latest, err := db.LatestWeights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.InDelta(t, 0.36, latest.Urgency, 1e-9)
}

func TestAnalyzeOutcomeCompleted(t *testing.T) {
	g := &models.GoalExecution{Status: models.GoalCompleted}
	adj := AnalyzeOutcome(g, models.GoalPriority{Impact: 0.8, Urgency: 0.9, Confidence: 0.85})
	assert.Equal(t, map[string]float64{"impact": 0.01, "urgency": 0.01, "confidence": 0.01}, adj)
}

func TestAnalyzeOutcomeFailedUnderratedRisk(t *testing.T) {
	g := &models.GoalExecution{Status: models.GoalFailed}
	adj := AnalyzeOutcome(g, models.GoalPriority{Risk: 0.2, Confidence: 0.9})
	assert.Equal(t, map[string]float64{"risk": 0.05, "confidence": -0.02}, adj)
}

func TestAnalyzeOutcomeFailedKnownRisk(t *testing.T) {
	g := &models.GoalExecution{Status: models.GoalFailed}
	adj := AnalyzeOutcome(g, models.GoalPriority{Risk: 0.7, Confidence: 0.5})
	assert.Equal(t, map[string]float64{"risk": 0.01}, adj)
}

func TestAnalyzeOutcomeNonTerminal(t *testing.T) {
	g := &models.GoalExecution{Status: models.GoalRunning}
	assert.Empty(t, AnalyzeOutcome(g, models.GoalPriority{}))
}
