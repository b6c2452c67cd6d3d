package agents

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/goal-engine/internal/models"
)

// Verifier scores a (plan, trace) pair against the current rule set. It is
// deterministic: same plan, trace and rules always yield the same verdict.
type Verifier struct {
	Rules RulesSource
}

const (
	issueExecutionFailed = "execution_failed"

	missingStepCost  = 0.2
	missingFieldCost = 0.2
	shortOutputCost  = 0.1
)

// Verify judges the trace. A failed execution rejects immediately; otherwise
// the score starts at 1.0 and each rule violation subtracts its cost.
func (v *Verifier) Verify(plan models.Plan, trace models.ExecutionTrace) models.Verdict {
	rules := v.Rules.Current()

	if !trace.Success {
		return models.Verdict{Accepted: false, Score: 0.0, Issues: []string{issueExecutionFailed}}
	}

	score := 1.0
	issues := []string{}
	partial := false

	byStep := make(map[int]models.ExecutionResult, len(trace.Results))
	for _, r := range trace.Results {
		byStep[r.StepID] = r
	}

	for _, step := range plan.Steps {
		res, ok := byStep[step.StepID]
		if !ok {
			score -= missingStepCost
			issues = append(issues, fmt.Sprintf("missing_step_%d", step.StepID))
			partial = true
			continue
		}

		ar, ok := rules.Actions[step.Action]
		if !ok {
			continue
		}
		for _, field := range ar.RequiredFields {
			if _, present := res.Output[field]; !present {
				score -= missingFieldCost
				issues = append(issues, fmt.Sprintf("step_%d_missing_field_%s", step.StepID, field))
			}
		}
		if ar.MinLength > 0 && ar.TextField != "" {
			if text, ok := res.Output[ar.TextField].(string); ok {
				if len(strings.TrimSpace(text)) < ar.MinLength {
					score -= shortOutputCost
					issues = append(issues, fmt.Sprintf("step_%d_output_too_short", step.StepID))
				}
			}
		}
	}

	score = math.Round(math.Max(score, 0)*100) / 100

	accepted := score >= rules.General.ConfidenceThreshold
	if partial && !rules.General.AllowPartial {
		accepted = false
	}
	return models.Verdict{Accepted: accepted, Score: score, Issues: issues}
}
