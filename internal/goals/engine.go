package goals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/memory"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/orchestrator"
	"github.com/example/goal-engine/internal/store"
	"github.com/example/goal-engine/pkg/logger"
)

// Engine owns the goal lifecycle: decomposition, task-by-task execution
// with checkpoints, and resumption.
type Engine struct {
	Store      store.Store
	Decomposer *Decomposer
	Runner     *orchestrator.TaskRunner
	Memory     memory.Store // optional
	Hub        *orchestrator.Hub
}

// Start creates a new goal, decomposes it and runs it to a terminal or
// paused state. Decomposition failure leaves the goal FAILED with the error
// recorded on the record.
func (e *Engine) Start(ctx context.Context, objective, contextBlock, orgID string) (*models.GoalExecution, error) {
	now := time.Now().UTC()
	g := &models.GoalExecution{
		ID:        uuid.NewString(),
		Objective: objective,
		Context:   contextBlock,
		OrgID:     orgID,
		Status:    models.GoalRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Store.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	if err := e.Store.SavePriority(ctx, models.DefaultPriority(g.ID)); err != nil {
		log.Warn().Err(err).Str(logger.GoalField, g.ID).Msg("priority seed failed")
	}

	tasks, err := e.Decomposer.Decompose(ctx, objective, contextBlock)
	if err != nil {
		g.Status = models.GoalFailed
		g.Error = fmt.Sprintf("decomposition failed: %v", err)
		// record the terminal state even when the caller's context died
		if uerr := e.Store.UpdateGoal(context.WithoutCancel(ctx), g); uerr != nil {
			log.Error().Err(uerr).Str(logger.GoalField, g.ID).Msg("failed to persist decomposition failure")
		}
		return g, fmt.Errorf("decompose goal: %w", err)
	}
	g.Tasks = tasks
	if err := e.Store.UpdateGoal(ctx, g); err != nil {
		return nil, err
	}

	log.Info().Str(logger.GoalField, g.ID).Int("tasks", len(tasks)).Msg("goal started")
	return e.runFrom(ctx, g)
}

// Resume reloads a non-terminal goal and continues from its current task
// index. Completed indices are never re-run.
func (e *Engine) Resume(ctx context.Context, goalID string) (*models.GoalExecution, error) {
	g, err := e.Store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return nil, fmt.Errorf("goal %s is %s and cannot be resumed", goalID, g.Status)
	}
	g.Status = models.GoalRunning
	if err := e.Store.UpdateGoal(ctx, g); err != nil {
		return nil, err
	}
	log.Info().Str(logger.GoalField, g.ID).Int("from_index", g.CurrentTaskIndex).Msg("goal resumed")
	return e.runFrom(ctx, g)
}

// runFrom executes tasks from g.CurrentTaskIndex. The index is persisted
// before each task runs, so a crash mid-task re-runs that same task on
// resume rather than skipping it.
func (e *Engine) runFrom(ctx context.Context, g *models.GoalExecution) (*models.GoalExecution, error) {
	for i := g.CurrentTaskIndex; i < len(g.Tasks); i++ {
		task := g.Tasks[i]
		g.CurrentTaskIndex = i
		if err := e.Store.UpdateGoal(ctx, g); err != nil {
			return nil, err
		}
		e.publish(g.ID, "task_started", map[string]any{"index": i, "task": task})

		out := e.Runner.Run(ctx, g.ID, task)

		cp := models.Checkpoint{
			GoalID:    g.ID,
			TaskIndex: i,
			TaskText:  task,
			Verdict:   out.Verdict,
			Execution: out.Trace,
			CreatedAt: time.Now().UTC(),
		}
		if err := e.Store.AppendCheckpoint(ctx, cp); err != nil {
			log.Warn().Err(err).Str(logger.GoalField, g.ID).Int(logger.TaskField, i).Msg("checkpoint write failed")
		}
		g.Results = append(g.Results, models.TaskSummary{
			Task:     task,
			Accepted: out.Accepted,
			Score:    out.Verdict.Score,
			Issues:   out.Verdict.Issues,
		})

		if !out.Accepted {
			g.Status = models.GoalFailed
			g.Error = fmt.Sprintf("task %d rejected after %d attempts: %s", i, out.Attempts, strings.Join(out.Verdict.Issues, ", "))
			if err := e.Store.UpdateGoal(ctx, g); err != nil {
				return nil, err
			}
			e.publish(g.ID, "goal_status", map[string]any{"status": g.Status, "error": g.Error})
			e.recordGoalMemory(ctx, g, false)
			return g, nil
		}

		g.CurrentTaskIndex = i + 1
		if err := e.Store.UpdateGoal(ctx, g); err != nil {
			return nil, err
		}
		e.publish(g.ID, "task_completed", map[string]any{"index": i, "score": out.Verdict.Score})
	}

	g.Status = models.GoalCompleted
	if err := e.Store.UpdateGoal(ctx, g); err != nil {
		return nil, err
	}
	e.publish(g.ID, "goal_status", map[string]any{"status": g.Status})
	e.recordGoalMemory(ctx, g, true)
	log.Info().Str(logger.GoalField, g.ID).Msg("goal completed")
	return g, nil
}

// Pause marks a running goal PAUSED without touching its task index.
func (e *Engine) Pause(ctx context.Context, goalID string) error {
	g, err := e.Store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if g.Status.Terminal() {
		return fmt.Errorf("goal %s is %s and cannot be paused", goalID, g.Status)
	}
	g.Status = models.GoalPaused
	return e.Store.UpdateGoal(ctx, g)
}

func (e *Engine) recordGoalMemory(ctx context.Context, g *models.GoalExecution, success bool) {
	if e.Memory == nil {
		return
	}
	var summary string
	meta := memory.Meta{GoalID: g.ID, Tags: []string{"goal"}}
	if success {
		summary = fmt.Sprintf("Completed goal '%s' through %d tasks", g.Objective, len(g.Tasks))
		meta.Type = models.MemoryStrategy
	} else {
		summary = fmt.Sprintf("Goal '%s' failed: %s", g.Objective, g.Error)
		meta.Type = models.MemoryMistake
	}
	if err := e.Memory.AddMemory(ctx, summary, meta); err != nil {
		log.Warn().Err(err).Str(logger.GoalField, g.ID).Msg("goal memory write failed")
	}
}

func (e *Engine) publish(goalID, event string, payload any) {
	if e.Hub != nil {
		e.Hub.Publish(goalID, orchestrator.Event{Event: event, GoalID: goalID, Payload: payload})
	}
}
