package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/providers/llm"
)

// Analyzer classifies a rejected attempt so the replanner can correct it.
type Analyzer struct {
	Oracle llm.Oracle
}

const analyzerPrompt = `You are a Failure Analysis Agent.
A plan was executed but rejected by the verifier. Diagnose why.

RULES:
1. Return ONLY valid JSON.
2. failure_type must be one of: INCOMPLETE_OUTPUT, EXECUTION_ERROR, POOR_QUALITY, RULE_VIOLATION, UNKNOWN
3. Output Schema:
{
  "failure_type": "...",
  "root_causes": ["cause 1"],
  "recommended_fix": ["fix 1"]
}

TASK: %s
VERDICT: score=%.2f issues=%s
EXECUTION SUMMARY:
%s`

// Analyze diagnoses the rejection. Execution failures are classified without
// an oracle call; anything the oracle cannot explain degrades to UNKNOWN
// with a generic retry recommendation instead of an error.
func (a *Analyzer) Analyze(ctx context.Context, task string, trace models.ExecutionTrace, verdict models.Verdict) models.FailureAnalysis {
	if verdict.HasIssue(issueExecutionFailed) {
		causes := []string{}
		for _, r := range trace.Results {
			if r.Status == models.StepFailed {
				causes = append(causes, fmt.Sprintf("step %d (%s): %s", r.StepID, r.Action, r.Error))
			}
		}
		if len(causes) == 0 {
			causes = append(causes, "execution failed with no step results")
		}
		return models.FailureAnalysis{
			FailureType: models.FailureExecutionError,
			RootCauses:  causes,
			RecommendedFix: []string{
				"Check action inputs and file paths",
				"Retry with different parameters",
			},
		}
	}

	prompt := fmt.Sprintf(analyzerPrompt, task, verdict.Score, strings.Join(verdict.Issues, ","), traceSummary(trace))
	raw, err := a.Oracle.Ask(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("analyzer oracle call failed")
		return unknownAnalysis()
	}
	var out models.FailureAnalysis
	if err := llm.DecodeJSON(raw, &out); err != nil || !validFailureType(out.FailureType) {
		log.Warn().Str("raw", raw).Msg("analyzer returned unusable diagnosis")
		return unknownAnalysis()
	}
	if len(out.RecommendedFix) == 0 {
		out.RecommendedFix = []string{"retry plan"}
	}
	return out
}

// traceSummary keeps prompts small: step outcomes and output field names
// only, never the output values.
func traceSummary(trace models.ExecutionTrace) string {
	var b strings.Builder
	for _, r := range trace.Results {
		fields := make([]string, 0, len(r.Output))
		for k := range r.Output {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		fmt.Fprintf(&b, "- step %d %s: %s, output_fields=[%s]", r.StepID, r.Action, r.Status, strings.Join(fields, ","))
		if r.Error != "" {
			fmt.Fprintf(&b, ", error=%s", r.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func validFailureType(t models.FailureType) bool {
	switch t {
	case models.FailureIncompleteOutput, models.FailureExecutionError,
		models.FailurePoorQuality, models.FailureRuleViolation, models.FailureUnknown:
		return true
	}
	return false
}

func unknownAnalysis() models.FailureAnalysis {
	return models.FailureAnalysis{
		FailureType:    models.FailureUnknown,
		RootCauses:     []string{"diagnosis unavailable"},
		RecommendedFix: []string{"retry plan"},
	}
}
