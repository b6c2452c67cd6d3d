package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/example/goal-engine/internal/models"
)

// replanConfidencePenalty is subtracted from every replanned plan's
// confidence: a corrected plan is never trusted more than its predecessor.
const replanConfidencePenalty = 0.15

// Replanner produces a corrected plan from a failure diagnosis.
type Replanner struct {
	Planner *Planner
}

// Replan folds the diagnosis into the planning context and generates a new
// plan with a confidence penalty applied (floored at 0).
func (r *Replanner) Replan(ctx context.Context, task, contextBlock string, analysis models.FailureAnalysis) models.Plan {
	block := fmt.Sprintf(`PREVIOUS ATTEMPT FAILED.
Failure type: %s
Root causes: %s
Apply these fixes: %s
Produce a corrected plan that avoids the failure.`,
		analysis.FailureType,
		strings.Join(analysis.RootCauses, "; "),
		strings.Join(analysis.RecommendedFix, "; "))
	if contextBlock != "" {
		block = contextBlock + "\n" + block
	}

	plan := r.Planner.Plan(ctx, task, block)
	plan.Confidence = math.Max(plan.Confidence-replanConfidencePenalty, 0)
	return plan
}
