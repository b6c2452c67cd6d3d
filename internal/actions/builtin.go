package actions

import (
	"github.com/example/goal-engine/internal/providers/llm"
)

// Builtin returns a registry with the four built-in actions.
func Builtin(oracle llm.Oracle, allowedDirs ...string) *Registry {
	r := NewRegistry()
	r.Register(NewReadFile(allowedDirs...))
	r.Register(&AnalyzeTextAction{Oracle: oracle})
	r.Register(&SummarizeAction{Oracle: oracle})
	r.Register(&RespondUserAction{})
	return r
}
