package decision

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/memory"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/store"
	"github.com/example/goal-engine/pkg/logger"
)

// Factor weights combining the five sub-scores into the final score.
const (
	wSystem  = 0.40
	wUser    = 0.20
	wRole    = 0.15
	wOrgFit  = 0.15
	wOrgRisk = 0.10
)

// killThreshold fails any goal scoring below it outright.
const killThreshold = 0.20

const memoryLookupK = 3

// Engine arbitrates between active goals: it scores every RUNNING, PENDING
// or PAUSED goal, kills the hopeless ones, selects a single winner and
// pauses every other running survivor.
type Engine struct {
	Store       store.Store
	Memory      memory.Store // optional
	Emotions    *EmotionTracker
	Personality string
	Org         OrgProfile
	Preference  func(userID string) UserPreference // optional
	RoleOf      func(userID string) string         // optional
}

// SystemScore is the weighted linear priority combination, clamped to [0,1].
func SystemScore(p models.GoalPriority, w models.PriorityWeights) float64 {
	raw := p.Impact*w.Impact +
		p.Urgency*w.Urgency +
		p.Confidence*w.Confidence -
		p.Effort*w.Effort -
		p.Risk*w.Risk
	return clamp01(raw)
}

// Decide runs one arbitration pass for the tenant and persists an immutable
// DecisionRecord with a per-goal scoring snapshot.
func (e *Engine) Decide(ctx context.Context, userID, orgID string) (models.DecisionRecord, error) {
	candidates, err := e.Store.ListGoalsByStatus(ctx, orgID,
		models.GoalRunning, models.GoalPending, models.GoalPaused)
	if err != nil {
		return models.DecisionRecord{}, err
	}
	if len(candidates) == 0 {
		rec := models.DecisionRecord{
			ID:           uuid.NewString(),
			DecisionType: models.DecisionNone,
			Reason:       "No active goals found for this org",
			Snapshot:     map[string]models.GoalScoreSnapshot{},
			CreatedAt:    time.Now().UTC(),
		}
		return rec, e.Store.AppendDecision(ctx, rec)
	}

	weights, err := e.Store.LatestWeights(ctx)
	if err != nil {
		return models.DecisionRecord{}, err
	}

	pref := DefaultPreference()
	if e.Preference != nil {
		pref = e.Preference(userID)
	}
	role := ""
	if e.RoleOf != nil {
		role = e.RoleOf(userID)
	}
	roleWeight := RoleWeight(role)

	personality := e.Personality
	if personality == "" {
		personality = DefaultPersonality
	}
	emotion := EmotionCalm
	if e.Emotions != nil {
		emotion = e.Emotions.Current(userID)
	}
	biases := Pipeline(PersonalityBias(personality), EmotionBias(emotion))

	type scored struct {
		goal  *models.GoalExecution
		prio  models.GoalPriority
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	snapshot := make(map[string]models.GoalScoreSnapshot, len(candidates))

	for _, g := range candidates {
		prio, err := e.Store.GetPriority(ctx, g.ID)
		if err != nil {
			return models.DecisionRecord{}, err
		}
		prio = e.adjustConfidenceFromMemory(ctx, prio, g.Objective)

		systemScore := SystemScore(prio, weights)
		userScore := UserScore(prio, pref)
		orgFit := OrgFit(prio, e.Org)
		orgRisk := OrgRiskFit(prio, e.Org)

		base := systemScore*wSystem + userScore*wUser + roleWeight*wRole +
			orgFit*wOrgFit + orgRisk*wOrgRisk
		final := biases(base, prio)

		prio.Score = final
		if err := e.Store.SavePriority(ctx, prio); err != nil {
			log.Warn().Err(err).Str(logger.GoalField, g.ID).Msg("priority save failed")
		}

		ranked = append(ranked, scored{goal: g, prio: prio, score: final})
		snapshot[g.ID] = models.GoalScoreSnapshot{
			Objective:          g.Objective,
			Score:              round3(final),
			SystemScore:        round3(systemScore),
			UserScore:          round3(userScore),
			RoleWeight:         round3(roleWeight),
			OrgFit:             round3(orgFit),
			OrgRiskFit:         round3(orgRisk),
			Personality:        personality,
			Emotion:            emotion,
			Status:             g.Status,
			ConfidenceAdjusted: round3(prio.Confidence),
		}
	}

	// Stable sort keeps insertion order as the deterministic tie-break.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	winner := ranked[0]
	var paused, killed []string
	winnerKilled := false

	for _, item := range ranked {
		if item.score < killThreshold {
			item.goal.Status = models.GoalFailed
			item.goal.Error = fmt.Sprintf("killed by arbitration: score %.3f below %.2f", item.score, killThreshold)
			if err := e.Store.UpdateGoal(ctx, item.goal); err != nil {
				log.Warn().Err(err).Str(logger.GoalField, item.goal.ID).Msg("kill update failed")
			}
			killed = append(killed, item.goal.ID)
			if e.Emotions != nil {
				e.Emotions.Detect(userID, TriggerGoalKilled)
			}
			if item.goal.ID == winner.goal.ID {
				winnerKilled = true
			}
			continue
		}
		if item.goal.ID == winner.goal.ID {
			continue
		}
		// Single-goal-active policy: every other running survivor pauses.
		if item.goal.Status == models.GoalRunning {
			item.goal.Status = models.GoalPaused
			if err := e.Store.UpdateGoal(ctx, item.goal); err != nil {
				log.Warn().Err(err).Str(logger.GoalField, item.goal.ID).Msg("pause update failed")
			}
			paused = append(paused, item.goal.ID)
		}
	}

	rec := models.DecisionRecord{
		ID:            uuid.NewString(),
		PausedGoalIDs: paused,
		KilledGoalIDs: killed,
		Snapshot:      snapshot,
		CreatedAt:     time.Now().UTC(),
	}
	if winnerKilled {
		rec.DecisionType = models.DecisionNone
		rec.Reason = "Winner was killed due to low score"
	} else {
		rec.DecisionType = models.DecisionSelect
		rec.SelectedGoalID = winner.goal.ID
		rec.Reason = fmt.Sprintf("Selected based on highest score: %.3f", winner.score)
	}

	if err := e.Store.AppendDecision(ctx, rec); err != nil {
		return models.DecisionRecord{}, err
	}
	log.Info().Str("decision", rec.DecisionType).Str(logger.GoalField, rec.SelectedGoalID).
		Int("paused", len(paused)).Int("killed", len(killed)).Msg("arbitration pass complete")
	return rec, nil
}

// adjustConfidenceFromMemory nudges confidence by goal history: recalled
// mistakes cost 0.2 each (floor 0.1), recalled successful strategies add
// 0.1 each (ceiling 1.0).
func (e *Engine) adjustConfidenceFromMemory(ctx context.Context, p models.GoalPriority, objective string) models.GoalPriority {
	if e.Memory == nil {
		return p
	}
	mems, err := e.Memory.Recall(ctx, objective, memoryLookupK)
	if err != nil {
		log.Warn().Err(err).Msg("memory lookup failed during arbitration")
		return p
	}
	for _, m := range mems {
		switch m.Type {
		case models.MemoryMistake:
			p.Confidence = max(0.1, p.Confidence-0.2)
		case models.MemoryStrategy:
			p.Confidence = min(1.0, p.Confidence+0.1)
		}
	}
	return p
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
