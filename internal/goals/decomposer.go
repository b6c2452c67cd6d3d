package goals

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/providers/llm"
)

const (
	minTasks         = 1
	maxTasks         = 10
	maxTaskLen       = 200
	decomposeRetries = 2
)

// vagueVerbs are whole words that mark a task as unexecutable: they describe
// thinking, not doing.
var vagueVerbs = regexp.MustCompile(`(?i)\b(think|understand|explore|consider|ponder|imagine)\b`)

// Decomposition is the oracle's breakdown of an objective.
type Decomposition struct {
	StrategyExplanation string   `json:"strategy_explanation"`
	Tasks               []string `json:"tasks"`
}

// Decomposer splits an objective into concrete, ordered atomic tasks.
type Decomposer struct {
	Oracle llm.Oracle
}

const decomposerPrompt = `You are a Goal Decomposition Agent.
Break the objective into concrete, independently executable tasks.

RULES:
1. Return ONLY valid JSON.
2. Between 1 and 10 tasks. Each task is a single imperative sentence of at most 200 characters.
3. Tasks must be concrete actions. Never use vague verbs like "think", "understand", "explore", "consider", "ponder" or "imagine".
4. Output Schema:
{
  "strategy_explanation": "one short paragraph",
  "tasks": ["task 1", "task 2"]
}

OBJECTIVE: %s`

// Decompose returns the ordered task list. Schema violations are retried
// with injected error text; on exhaustion a single manual-analysis task is
// returned instead. Only caller cancellation surfaces as an error.
func (d *Decomposer) Decompose(ctx context.Context, objective, contextBlock string) ([]string, error) {
	prompt := fmt.Sprintf(decomposerPrompt, objective)
	if contextBlock != "" {
		prompt += "\nCONTEXT: " + contextBlock
	}

	opts := llm.CallOptions{MaxRetries: decomposeRetries}
	dec, attempts, err := llm.Structured(ctx, d.Oracle, prompt, opts, validateDecomposition)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Int("attempts", attempts).Str("objective", objective).Msg("decomposition exhausted retries, using manual fallback")
		return []string{"Analyze manually: " + objective}, nil
	}
	return dec.Tasks, nil
}

func validateDecomposition(d *Decomposition) error {
	if len(d.Tasks) < minTasks || len(d.Tasks) > maxTasks {
		return fmt.Errorf("task count %d outside [%d,%d]", len(d.Tasks), minTasks, maxTasks)
	}
	for i, t := range d.Tasks {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("task %d is empty", i+1)
		}
		if len(t) > maxTaskLen {
			return fmt.Errorf("task %d is %d chars, max %d", i+1, len(t), maxTaskLen)
		}
		if m := vagueVerbs.FindString(t); m != "" {
			return fmt.Errorf("task %d uses vague verb '%s', tasks must be concrete actions", i+1, strings.ToLower(m))
		}
	}
	return nil
}
