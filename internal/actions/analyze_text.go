package actions

import (
	"context"
	"fmt"

	"github.com/example/goal-engine/internal/providers/llm"
)

const maxTextInput = 100000 // chars handed to the oracle

// AnalyzeTextAction extracts key points, themes and risks from text.
// Inputs:
// - text: string (required, <=100k chars)
// Output: {"key_points": []string, "themes": []string, "risks": []string};
// missing keys in the oracle answer are backfilled with empty lists.
type AnalyzeTextAction struct{ Oracle llm.Oracle }

func (a *AnalyzeTextAction) Name() string { return "analyze_text" }

type analysisOutput struct {
	KeyPoints []string `json:"key_points"`
	Themes    []string `json:"themes"`
	Risks     []string `json:"risks"`
}

func (a *AnalyzeTextAction) Execute(ctx context.Context, input map[string]any) Result {
	text := getString(input, "text")
	if text == "" {
		return failed("missing text")
	}
	if len(text) > maxTextInput {
		return failed("Input text too long: %d chars (Max: %d)", len(text), maxTextInput)
	}

	prompt := fmt.Sprintf(`Analyze the following text and extract insights.

RULES:
1. Return ONLY valid JSON.
2. Output Schema:
{
  "key_points": ["point 1", "point 2"],
  "themes": ["theme 1", "theme 2"],
  "risks": ["risk 1", "risk 2"]
}

TEXT:
%s`, text)

	raw, err := a.Oracle.Ask(ctx, prompt)
	if err != nil {
		return failed("oracle call failed: %v", err)
	}
	var out analysisOutput
	if err := llm.DecodeJSON(raw, &out); err != nil {
		return failed("oracle returned invalid JSON for analysis")
	}
	if out.KeyPoints == nil {
		out.KeyPoints = []string{}
	}
	if out.Themes == nil {
		out.Themes = []string{}
	}
	if out.Risks == nil {
		out.Risks = []string{}
	}
	return success(map[string]any{
		"key_points": out.KeyPoints,
		"themes":     out.Themes,
		"risks":      out.Risks,
	})
}
