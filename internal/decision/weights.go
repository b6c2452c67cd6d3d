package decision

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/store"
)

// Safety rails: a single update may move a weight by at most MaxStepChange,
// and no weight ever leaves [MinWeight, MaxWeight].
const (
	MinWeight     = 0.05
	MaxWeight     = 0.6
	MaxStepChange = 0.05

	weightEpsilon = 1e-5
)

// Updater applies outcome-driven weight adjustments, appending a new
// immutable snapshot whenever anything actually changed.
type Updater struct {
	Store store.Store
}

// Apply clamps and applies the per-field deltas. It returns the snapshot in
// force afterwards and whether a new one was written. Unknown fields are
// ignored.
func (u *Updater) Apply(ctx context.Context, adjustments map[string]float64) (models.PriorityWeights, bool, error) {
	last, err := u.Store.LatestWeights(ctx)
	if err != nil {
		return models.PriorityWeights{}, false, err
	}

	next := last
	changed := false
	apply := func(field string, cur float64) float64 {
		delta, ok := adjustments[field]
		if !ok {
			return cur
		}
		safe := math.Max(-MaxStepChange, math.Min(MaxStepChange, delta))
		val := math.Max(MinWeight, math.Min(MaxWeight, cur+safe))
		if math.Abs(val-cur) > weightEpsilon {
			log.Info().Str("field", field).Float64("from", cur).Float64("to", val).Msg("priority weight adjusted")
			changed = true
		}
		return val
	}

	next.Impact = apply("impact", last.Impact)
	next.Urgency = apply("urgency", last.Urgency)
	next.Confidence = apply("confidence", last.Confidence)
	next.Effort = apply("effort", last.Effort)
	next.Risk = apply("risk", last.Risk)

	if !changed {
		return last, false, nil
	}
	snap, err := u.Store.AppendWeights(ctx, next)
	if err != nil {
		return models.PriorityWeights{}, false, err
	}
	return snap, true, nil
}
