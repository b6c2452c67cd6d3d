package decision

import (
	"github.com/example/goal-engine/internal/models"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// BiasFunc adjusts a score given the goal's priority profile. Bias functions
// are pure: same inputs, same output, no side effects.
type BiasFunc func(score float64, p models.GoalPriority) float64

// Pipeline composes biases in order and clamps the result to [0,1].
func Pipeline(biases ...BiasFunc) BiasFunc {
	return func(score float64, p models.GoalPriority) float64 {
		for _, b := range biases {
			score = b(score, p)
		}
		return clamp01(score)
	}
}

// PersonalityProfile holds the additive bonuses and penalties one persona
// applies when a priority crosses its thresholds.
type PersonalityProfile struct {
	ImpactBonus          float64
	UrgencyBonus         float64
	RiskPenalty          float64
	EffortPenalty        float64
	ConfidenceBonus      float64
	ExperimentationBonus float64
}

const DefaultPersonality = "CEO"

// Personalities are the built-in personas. CEO chases impact, CTO certainty,
// RESEARCHER novelty.
var Personalities = map[string]PersonalityProfile{
	"CEO": {
		ImpactBonus:   0.2,
		UrgencyBonus:  0.1,
		RiskPenalty:   0.1,
		EffortPenalty: 0.1,
	},
	"CTO": {
		ImpactBonus:     0.1,
		ConfidenceBonus: 0.2,
		RiskPenalty:     0.3,
		UrgencyBonus:    -0.1,
	},
	"RESEARCHER": {
		ExperimentationBonus: 0.3,
		UrgencyBonus:         -0.2,
		RiskPenalty:          -0.1,
	},
}

// PersonalityBias returns the bias for the named persona, falling back to
// the default persona for unknown names.
func PersonalityBias(personality string) BiasFunc {
	profile, ok := Personalities[personality]
	if !ok {
		profile = Personalities[DefaultPersonality]
	}
	return func(score float64, p models.GoalPriority) float64 {
		if p.Impact > 0.7 {
			score += profile.ImpactBonus
		}
		if p.Urgency > 0.7 {
			score += profile.UrgencyBonus
		}
		if p.Risk > 0.6 {
			score -= profile.RiskPenalty
		}
		if p.Confidence > 0.8 {
			score += profile.ConfidenceBonus
		}
		// Low-confidence but promising goals read as experiments.
		if profile.ExperimentationBonus != 0 && p.Confidence < 0.6 && p.Impact > 0.4 {
			score += profile.ExperimentationBonus
		}
		return clamp01(score)
	}
}

// EmotionBias shifts every score by a flat amount keyed on the acting
// user's most recent emotion.
func EmotionBias(emotion string) BiasFunc {
	delta := emotionDelta(emotion)
	return func(score float64, _ models.GoalPriority) float64 {
		return score + delta
	}
}

func emotionDelta(emotion string) float64 {
	switch emotion {
	case EmotionStressed:
		return -0.1
	case EmotionFrustrated:
		return -0.2
	case EmotionConfident:
		return 0.1
	}
	return 0.0
}

// UserPreference captures how the acting user likes goals run, each axis
// in [0,1].
type UserPreference struct {
	SpeedVsQuality  float64 // 1 = speed, 0 = quality
	RiskTolerance   float64 // 1 = risky, 0 = safe
	Experimentation float64 // 1 = loves novelty
}

func DefaultPreference() UserPreference {
	return UserPreference{SpeedVsQuality: 0.5, RiskTolerance: 0.5, Experimentation: 0.5}
}

// UserScore rates how much the user would like this goal, from a neutral
// 0.5 baseline.
func UserScore(p models.GoalPriority, pref UserPreference) float64 {
	score := 0.5

	if pref.SpeedVsQuality > 0.6 {
		score += (p.Urgency - 0.5) * (pref.SpeedVsQuality - 0.5)
	} else if pref.SpeedVsQuality < 0.4 {
		score += (p.Confidence - 0.5) * (0.5 - pref.SpeedVsQuality)
	}

	if pref.RiskTolerance > 0.6 {
		if p.Risk > 0.5 {
			score += 0.1
		}
	} else if pref.RiskTolerance < 0.4 {
		if p.Risk > 0.4 {
			score -= (p.Risk - 0.4) * (0.5 - pref.RiskTolerance) * 4.0
		}
	}

	if pref.Experimentation > 0.7 && p.Confidence < 0.6 {
		score += 0.1
	}

	return clamp01(score)
}

// RoleWeights map user roles to their arbitration weight.
var RoleWeights = map[string]float64{
	"OWNER":       1.0,
	"ADMIN":       0.8,
	"MANAGER":     0.6,
	"CONTRIBUTOR": 0.3,
}

const defaultRoleWeight = 0.3

func RoleWeight(role string) float64 {
	if w, ok := RoleWeights[role]; ok {
		return w
	}
	return defaultRoleWeight
}

// OrgProfile is an organization's cognitive bias toward risk and novelty.
type OrgProfile struct {
	Name                 string
	Industry             string
	RiskTolerance        float64
	RiskPenalty          float64
	ExperimentationBoost float64
}

// OrgProfileFor derives the bias profile for an industry. Unknown industries
// get a neutral startup-like profile.
func OrgProfileFor(name, industry string, riskTolerance float64) OrgProfile {
	p := OrgProfile{Name: name, Industry: industry, RiskTolerance: riskTolerance}
	switch industry {
	case "BANKING":
		p.RiskPenalty = 0.3
		p.ExperimentationBoost = -0.2
	case "STARTUP":
		p.RiskPenalty = -0.1
		p.ExperimentationBoost = 0.3
	case "GOVERNMENT":
		p.RiskPenalty = 0.5
	default:
		p.ExperimentationBoost = 0.1
	}
	return p
}

// OrgFit scores how well the goal matches the org's personality, from a
// neutral 0.5 baseline.
func OrgFit(p models.GoalPriority, org OrgProfile) float64 {
	score := 0.5
	if p.Risk > 0.5 {
		score -= org.RiskPenalty
	}
	if p.Confidence < 0.6 {
		score += org.ExperimentationBoost
	}
	return clamp01(score)
}

// OrgRiskFit aligns the goal's risk with the org's tolerance: anything at
// or under tolerance fits perfectly, overshoot decays linearly.
func OrgRiskFit(p models.GoalPriority, org OrgProfile) float64 {
	if p.Risk <= org.RiskTolerance {
		return 1.0
	}
	return clamp01(1.0 - (p.Risk - org.RiskTolerance))
}
