package memory

import (
	"strings"

	"github.com/example/goal-engine/internal/models"
)

// ContextBlock renders recalled memories into the context string handed to
// the planner. Strategies come first, then knowledge, then mistakes, so the
// most actionable guidance leads the prompt. Empty input yields "".
func ContextBlock(mems []models.Memory) string {
	if len(mems) == 0 {
		return ""
	}

	byType := map[string][]string{}
	for _, m := range mems {
		if strings.TrimSpace(m.Summary) == "" {
			continue
		}
		byType[m.Type] = append(byType[m.Type], m.Summary)
	}

	var b strings.Builder
	section := func(header string, items []string) {
		if len(items) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(header + "\n")
		for _, it := range items {
			b.WriteString("- " + it + "\n")
		}
	}
	section("PROVEN STRATEGIES:", byType[models.MemoryStrategy])
	section("RELEVANT KNOWLEDGE:", byType[models.MemoryKnowledge])
	section("PAST MISTAKES TO AVOID:", byType[models.MemoryMistake])
	return b.String()
}
