package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/actions"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/providers/llm"
)

const defaultPlanRetries = 2 // retries after the first attempt, 3 attempts total

// PlanAttempt is one audit entry, written for every attempt, success or not.
type PlanAttempt struct {
	Task       string
	RawOutput  string
	Plan       *models.Plan
	Error      string
	Attempt    int
	Confidence float64
	Successful bool
	CreatedAt  time.Time
}

// AuditSink receives plan attempts. Writes are best-effort: the planner logs
// sink failures and moves on.
type AuditSink interface {
	LogPlanAttempt(ctx context.Context, attempt PlanAttempt) error
}

// Planner turns a task into a schema-validated plan of registry calls.
type Planner struct {
	Oracle     llm.Oracle
	Registry   *actions.Registry
	Audit      AuditSink // optional
	MaxRetries int       // 0 means defaultPlanRetries
}

const plannerPrompt = `You are the Planner Agent.
Your job is to decide WHAT actions are required to fulfill the user's request.
You must NOT answer the user directly unless you use the 'respond_user' action.

RULES:
1. Return ONLY valid JSON. No markdown formatting, no explanations, no text.
2. Use ONLY allowed actions: %s
3. If you are unsure, produce a 'respond_user' action instead of guessing.
4. Your output must match this schema exactly:
{
  "goal": "string (The core objective)",
  "confidence": 0.0 to 1.0 (float),
  "steps": [
    {
      "step_id": 1,
      "action": "allowed_action_name",
      "input": { "arg_name": "value" }
    }
  ]
}

USER REQUEST: %s`

// Plan generates a plan for the task. Each failed attempt feeds its error
// back into the next prompt; on exhaustion a deterministic fallback plan
// (single respond_user step, confidence 0) is returned instead of an error.
func (p *Planner) Plan(ctx context.Context, task, contextBlock string) models.Plan {
	prompt := fmt.Sprintf(plannerPrompt, strings.Join(p.Registry.Names(), ", "), task)
	if contextBlock != "" {
		prompt += "\nCONTEXT: " + contextBlock
	}

	retries := p.MaxRetries
	if retries == 0 {
		retries = defaultPlanRetries
	}

	opts := llm.CallOptions{
		MaxRetries: retries,
		OnAttempt: func(attempt int, raw string, err error) {
			p.audit(ctx, task, raw, nil, err, attempt)
		},
	}
	plan, attempts, err := llm.Structured(ctx, p.Oracle, prompt, opts, p.validate)
	if err != nil {
		log.Warn().Err(err).Str("task", task).Int("attempts", attempts).Msg("planner exhausted retries, using fallback")
		fallback := fallbackPlan()
		p.audit(ctx, task, "", &fallback, err, attempts)
		return fallback
	}
	p.audit(ctx, task, "", plan, nil, attempts)
	return *plan
}

func (p *Planner) validate(plan *models.Plan) error {
	if len(plan.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	if plan.Confidence < 0 || plan.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", plan.Confidence)
	}
	prev := 0
	for _, s := range plan.Steps {
		if s.StepID != prev+1 {
			return fmt.Errorf("step_ids must be dense and increasing from 1, got %d after %d", s.StepID, prev)
		}
		prev = s.StepID
		if _, ok := p.Registry.Get(s.Action); !ok {
			return fmt.Errorf("action '%s' is not allowed", s.Action)
		}
	}
	return nil
}

func (p *Planner) audit(ctx context.Context, task, raw string, plan *models.Plan, err error, attempt int) {
	if p.Audit == nil {
		return
	}
	entry := PlanAttempt{
		Task:      task,
		RawOutput: raw,
		Plan:      plan,
		Attempt:   attempt,
		CreatedAt: time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	} else if plan != nil {
		entry.Successful = true
		entry.Confidence = plan.Confidence
	}
	if serr := p.Audit.LogPlanAttempt(ctx, entry); serr != nil {
		log.Warn().Err(serr).Msg("plan audit write failed")
	}
}

func fallbackPlan() models.Plan {
	return models.Plan{
		Goal:       "Clarify request with user due to planning failure",
		Confidence: 0.0,
		Steps: []models.Step{{
			StepID: 1,
			Action: "respond_user",
			Input:  map[string]any{"message": "I'm having trouble understanding how to proceed. Could you rephrase your request?"},
		}},
	}
}
