package store

import (
	"context"
	"errors"

	"github.com/example/goal-engine/internal/agents"
	"github.com/example/goal-engine/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for goal state, checkpoints, decisions
// and weight snapshots. Checkpoints, decision records and weight snapshots
// are append-only; past rows are never mutated.
type Store interface {
	agents.AuditSink

	CreateGoal(ctx context.Context, g *models.GoalExecution) error
	GetGoal(ctx context.Context, id string) (*models.GoalExecution, error)
	UpdateGoal(ctx context.Context, g *models.GoalExecution) error
	ListGoalsByStatus(ctx context.Context, orgID string, statuses ...models.GoalStatus) ([]*models.GoalExecution, error)

	AppendCheckpoint(ctx context.Context, cp models.Checkpoint) error
	ListCheckpoints(ctx context.Context, goalID string) ([]models.Checkpoint, error)

	AppendDecision(ctx context.Context, rec models.DecisionRecord) error

	GetPriority(ctx context.Context, goalID string) (models.GoalPriority, error)
	SavePriority(ctx context.Context, p models.GoalPriority) error

	// LatestWeights returns the newest snapshot, seeding the defaults on
	// first use so callers always get a usable row.
	LatestWeights(ctx context.Context) (models.PriorityWeights, error)
	AppendWeights(ctx context.Context, w models.PriorityWeights) (models.PriorityWeights, error)

	Close() error
}
