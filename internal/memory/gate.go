package memory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/providers/llm"
)

// Score bands that skip the oracle entirely: clear failures teach nothing
// new and middling successes are not worth remembering.
const (
	gateRejectedSkipBelow = 0.3
	gateAcceptedSkipBelow = 0.6
)

// Record is a memory the gate decided to keep.
type Record struct {
	Summary string
	Type    string
	Tags    []string
}

type gateDecision struct {
	Decision string   `json:"decision"`
	Summary  string   `json:"summary"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
}

// Gate decides whether an attempt outcome is worth a memory record. Cheap
// deterministic bands short-circuit; only ambiguous high-value outcomes
// reach the oracle.
type Gate struct {
	Oracle llm.Oracle
}

const gatePrompt = `You decide whether an agent outcome should be stored as a long-term memory.
Only STORE outcomes that would change how a similar task is approached later.

RULES:
1. Return ONLY valid JSON.
2. Output Schema:
{
  "decision": "STORE" or "SKIP",
  "summary": "one-sentence lesson, imperative voice",
  "type": "knowledge" or "strategy" or "mistake",
  "tags": ["tag1", "tag2"]
}

TASK: %s
OUTCOME: accepted=%t score=%.2f issues=%v`

// Decide returns the record to store, or nil to skip. Oracle failures skip:
// memory writes are never worth blocking the control loop for.
func (g *Gate) Decide(ctx context.Context, task string, verdict models.Verdict) *Record {
	if !verdict.Accepted && verdict.Score < gateRejectedSkipBelow {
		return nil
	}
	if verdict.Accepted && verdict.Score < gateAcceptedSkipBelow {
		return nil
	}

	prompt := fmt.Sprintf(gatePrompt, task, verdict.Accepted, verdict.Score, verdict.Issues)
	raw, err := g.Oracle.Ask(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("memory gate oracle call failed, skipping")
		return nil
	}
	var d gateDecision
	if err := llm.DecodeJSON(raw, &d); err != nil {
		log.Warn().Str("raw", raw).Msg("memory gate returned invalid JSON, skipping")
		return nil
	}
	if d.Decision != "STORE" || d.Summary == "" {
		return nil
	}
	switch d.Type {
	case models.MemoryKnowledge, models.MemoryStrategy, models.MemoryMistake:
	default:
		d.Type = models.MemoryKnowledge
	}
	return &Record{Summary: d.Summary, Type: d.Type, Tags: d.Tags}
}
