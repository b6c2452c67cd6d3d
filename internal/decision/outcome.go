package decision

import (
	"github.com/example/goal-engine/internal/models"
)

// AnalyzeOutcome compares how a finished goal went against what its
// priority predicted and suggests weight deltas for the Updater. Pure
// function; non-terminal goals yield no adjustments.
func AnalyzeOutcome(g *models.GoalExecution, p models.GoalPriority) map[string]float64 {
	adjustments := map[string]float64{}

	switch g.Status {
	case models.GoalCompleted:
		// Success confirms the signals that argued for running it.
		if p.Impact > 0.7 {
			adjustments["impact"] = 0.01
		}
		if p.Urgency > 0.7 {
			adjustments["urgency"] = 0.01
		}
		if p.Confidence > 0.8 {
			adjustments["confidence"] = 0.01
		}
	case models.GoalFailed:
		if p.Risk < 0.4 {
			// Rated safe but failed: risk was underweighted.
			adjustments["risk"] = 0.05
		} else {
			adjustments["risk"] = 0.01
		}
		if p.Confidence > 0.7 {
			// Confident and wrong: trust confidence less.
			adjustments["confidence"] = -0.02
		}
	}
	return adjustments
}
