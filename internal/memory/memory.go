package memory

import (
	"context"

	"github.com/example/goal-engine/internal/models"
)

// Meta describes a memory record being written.
type Meta struct {
	Type   string
	Tags   []string
	GoalID string
}

// Store is the long-term recall collaborator. Writes are best-effort:
// callers log Add failures and continue, they never abort the control flow.
type Store interface {
	Recall(ctx context.Context, query string, k int) ([]models.Memory, error)
	AddMemory(ctx context.Context, summary string, meta Meta) error
}

// Noop is a Store that remembers nothing. Used when no vector store is
// configured.
type Noop struct{}

func (Noop) Recall(ctx context.Context, query string, k int) ([]models.Memory, error) {
	return nil, nil
}

func (Noop) AddMemory(ctx context.Context, summary string, meta Meta) error { return nil }
