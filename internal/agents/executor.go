package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/actions"
	"github.com/example/goal-engine/internal/models"
)

// Executor runs plan steps strictly in order and stops at the first failure.
type Executor struct {
	Registry *actions.Registry
}

// Execute runs the plan. Unknown actions and panicking actions are converted
// into failed step results; in both cases execution halts and the remaining
// steps are never attempted.
func (e *Executor) Execute(ctx context.Context, plan models.Plan) models.ExecutionTrace {
	trace := models.ExecutionTrace{Success: true}
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			trace.Results = append(trace.Results, models.ExecutionResult{
				StepID: step.StepID,
				Action: step.Action,
				Status: models.StepFailed,
				Error:  fmt.Sprintf("execution cancelled: %v", err),
			})
			trace.Success = false
			trace.FailedStep = step.StepID
			return trace
		}

		res := e.runStep(ctx, step)
		trace.Results = append(trace.Results, res)
		if res.Status != models.StepSuccess {
			trace.Success = false
			trace.FailedStep = step.StepID
			log.Debug().Int("step", step.StepID).Str("action", step.Action).Str("error", res.Error).Msg("step failed, halting plan")
			return trace
		}
	}
	return trace
}

func (e *Executor) runStep(ctx context.Context, step models.Step) (res models.ExecutionResult) {
	res = models.ExecutionResult{StepID: step.StepID, Action: step.Action}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Status = models.StepFailed
			res.Output = nil
			res.Error = fmt.Sprintf("action panicked: %v", r)
		}
	}()

	action, ok := e.Registry.Get(step.Action)
	if !ok {
		res.Status = models.StepFailed
		res.Error = fmt.Sprintf("unknown action: %s", step.Action)
		return res
	}

	out := action.Execute(ctx, step.Input)
	res.Status = out.Status
	res.Output = out.Output
	res.Error = out.Error
	return res
}
