// Package actions holds the fixed set of named operations a plan may invoke.
// Every action maps a typed input map to a standardized result envelope and
// never lets a failure escape its boundary: all errors become a failed
// Result. The registry itself is side-effect-free dispatch.
package actions

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/goal-engine/internal/models"
)

// Result is the standardized action output contract.
type Result struct {
	Status models.StepStatus
	Output map[string]any
	Error  string
}

func success(output map[string]any) Result {
	if output == nil {
		output = map[string]any{}
	}
	return Result{Status: models.StepSuccess, Output: output}
}

func failed(format string, args ...any) Result {
	return Result{Status: models.StepFailed, Output: map[string]any{}, Error: fmt.Sprintf(format, args...)}
}

// Action is one registered operation.
type Action interface {
	Name() string
	Execute(ctx context.Context, input map[string]any) Result
}

type Registry struct {
	actions map[string]Action
}

func NewRegistry() *Registry {
	return &Registry{actions: map[string]Action{}}
}

func (r *Registry) Register(a Action) {
	r.actions[a.Name()] = a
}

func (r *Registry) Get(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names, sorted, for prompt whitelists.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.actions))
	for name := range r.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
