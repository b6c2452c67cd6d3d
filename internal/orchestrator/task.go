package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/agents"
	"github.com/example/goal-engine/internal/memory"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/pkg/logger"
)

// MaxRetries is how many replanned attempts follow the initial one, so a
// task gets MaxRetries+1 attempts in total.
const MaxRetries = 2

const recallK = 5

// TaskOutcome is the full record of one atomic task's retry sequence.
type TaskOutcome struct {
	Task     string
	Accepted bool
	Attempts int
	Plan     models.Plan
	Trace    models.ExecutionTrace
	Verdict  models.Verdict
}

// TaskRunner drives one atomic task through the plan/execute/verify loop,
// replanning on rejection until accepted or retries are exhausted.
type TaskRunner struct {
	Planner   *agents.Planner
	Executor  *agents.Executor
	Verifier  *agents.Verifier
	Analyzer  *agents.Analyzer
	Replanner *agents.Replanner
	Memory    memory.Store
	Gate      *memory.Gate
	Hub       *Hub // optional
}

// Run executes the task to an outcome. It never returns an error: every
// failure mode ends in a rejected outcome, and memory or event side effects
// are logged and dropped rather than escalated.
func (r *TaskRunner) Run(ctx context.Context, goalID, task string) TaskOutcome {
	contextBlock := r.recallContext(ctx, task)

	plan := r.Planner.Plan(ctx, task, contextBlock)

	out := TaskOutcome{Task: task}
	for attempt := 1; attempt <= MaxRetries+1; attempt++ {
		out.Attempts = attempt
		out.Plan = plan
		r.publish(goalID, Event{Event: "attempt", GoalID: goalID, Payload: map[string]any{
			"task": task, "attempt": attempt, "plan": plan,
		}})

		out.Trace = r.Executor.Execute(ctx, plan)
		out.Verdict = r.Verifier.Verify(plan, out.Trace)
		r.publish(goalID, Event{Event: "verdict", GoalID: goalID, Payload: out.Verdict})

		if out.Verdict.Accepted {
			out.Accepted = true
			r.storeAcceptedMemory(ctx, goalID, task, out.Verdict)
			return out
		}

		log.Info().
			Str(logger.GoalField, goalID).
			Int(logger.AttemptField, attempt).
			Float64("score", out.Verdict.Score).
			Strs("issues", out.Verdict.Issues).
			Msg("attempt rejected")

		if attempt > MaxRetries {
			break
		}
		analysis := r.Analyzer.Analyze(ctx, task, out.Trace, out.Verdict)
		plan = r.Replanner.Replan(ctx, task, contextBlock, analysis)
	}

	r.storeMistakeMemory(ctx, goalID, task, out)
	return out
}

func (r *TaskRunner) recallContext(ctx context.Context, task string) string {
	if r.Memory == nil {
		return ""
	}
	mems, err := r.Memory.Recall(ctx, task, recallK)
	if err != nil {
		log.Warn().Err(err).Msg("memory recall failed, planning without context")
		return ""
	}
	return memory.ContextBlock(mems)
}

func (r *TaskRunner) storeAcceptedMemory(ctx context.Context, goalID, task string, verdict models.Verdict) {
	if r.Gate == nil || r.Memory == nil {
		return
	}
	rec := r.Gate.Decide(ctx, task, verdict)
	if rec == nil {
		return
	}
	meta := memory.Meta{Type: rec.Type, Tags: rec.Tags, GoalID: goalID}
	if err := r.Memory.AddMemory(ctx, rec.Summary, meta); err != nil {
		log.Warn().Err(err).Msg("memory write failed")
	}
}

func (r *TaskRunner) storeMistakeMemory(ctx context.Context, goalID, task string, out TaskOutcome) {
	if r.Memory == nil {
		return
	}
	summary := fmt.Sprintf("Task failed after %d attempts: %s (issues: %s)",
		out.Attempts, task, strings.Join(out.Verdict.Issues, ", "))
	meta := memory.Meta{Type: models.MemoryMistake, GoalID: goalID}
	if err := r.Memory.AddMemory(ctx, summary, meta); err != nil {
		log.Warn().Err(err).Msg("mistake memory write failed")
	}
}

func (r *TaskRunner) publish(goalID string, ev Event) {
	if r.Hub != nil {
		r.Hub.Publish(goalID, ev)
	}
}
