package actions

import (
	"context"
	"fmt"

	"github.com/example/goal-engine/internal/providers/llm"
)

// SummarizeAction condenses text into concise bullet points.
// Inputs:
// - text: string (required, <=100k chars)
// Output: {"summary": string}
type SummarizeAction struct{ Oracle llm.Oracle }

func (s *SummarizeAction) Name() string { return "summarize" }

func (s *SummarizeAction) Execute(ctx context.Context, input map[string]any) Result {
	text := getString(input, "text")
	if text == "" {
		return failed("missing text")
	}
	if len(text) > maxTextInput {
		return failed("Input text too long: %d chars (Max: %d)", len(text), maxTextInput)
	}
	prompt := fmt.Sprintf("Summarize the following text in concise bullet points.\nKeep it factual and objective.\n\nTEXT:\n%s", text)
	out, err := s.Oracle.Ask(ctx, prompt)
	if err != nil {
		return failed("oracle call failed: %v", err)
	}
	return success(map[string]any{"summary": out})
}
