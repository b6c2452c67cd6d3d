package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goal-engine/internal/actions"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/providers/llm"
)

type panicAction struct{}

func (panicAction) Name() string { return "boom" }
func (panicAction) Execute(ctx context.Context, input map[string]any) actions.Result {
	panic("kaboom")
}

func testRegistry() *actions.Registry {
	return actions.Builtin(&llm.MockOracle{}, "uploads")
}

func TestExecutorRunsAllSteps(t *testing.T) {
	e := &Executor{Registry: testRegistry()}
	plan := models.Plan{Steps: []models.Step{
		{StepID: 1, Action: "respond_user", Input: map[string]any{"message": "one"}},
		{StepID: 2, Action: "respond_user", Input: map[string]any{"message": "two"}},
	}}

	trace := e.Execute(context.Background(), plan)
	assert.True(t, trace.Success)
	assert.Zero(t, trace.FailedStep)
	require.Len(t, trace.Results, 2)
	assert.Equal(t, "two", trace.Results[1].Output["message"])
}

func TestExecutorHaltsAtFirstFailure(t *testing.T) {
	e := &Executor{Registry: testRegistry()}
	plan := models.Plan{Steps: []models.Step{
		{StepID: 1, Action: "respond_user", Input: map[string]any{"message": "ok"}},
		{StepID: 2, Action: "read_file", Input: map[string]any{"path": "../forbidden.txt"}},
		{StepID: 3, Action: "respond_user", Input: map[string]any{"message": "never runs"}},
	}}

	trace := e.Execute(context.Background(), plan)
	assert.False(t, trace.Success)
	assert.Equal(t, 2, trace.FailedStep)
	require.Len(t, trace.Results, 2)
	assert.Equal(t, models.StepSuccess, trace.Results[0].Status)
	assert.Equal(t, models.StepFailed, trace.Results[1].Status)
}

func TestExecutorUnknownActionFails(t *testing.T) {
	e := &Executor{Registry: testRegistry()}
	plan := models.Plan{Steps: []models.Step{
		{StepID: 1, Action: "no_such_action"},
	}}

	trace := e.Execute(context.Background(), plan)
	assert.False(t, trace.Success)
	assert.Equal(t, 1, trace.FailedStep)
	assert.Contains(t, trace.Results[0].Error, "unknown action")
}

func TestExecutorRecoversPanics(t *testing.T) {
	r := testRegistry()
	r.Register(panicAction{})
	e := &Executor{Registry: r}
	plan := models.Plan{Steps: []models.Step{
		{StepID: 1, Action: "boom"},
		{StepID: 2, Action: "respond_user", Input: map[string]any{"message": "unreached"}},
	}}

	trace := e.Execute(context.Background(), plan)
	assert.False(t, trace.Success)
	require.Len(t, trace.Results, 1)
	assert.Contains(t, trace.Results[0].Error, "panicked")
}

func TestExecutorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Executor{Registry: testRegistry()}
	plan := models.Plan{Steps: []models.Step{
		{StepID: 1, Action: "respond_user", Input: map[string]any{"message": "x"}},
	}}

	trace := e.Execute(ctx, plan)
	assert.False(t, trace.Success)
	assert.Equal(t, 1, trace.FailedStep)
	assert.Contains(t, trace.Results[0].Error, "cancelled")
}
