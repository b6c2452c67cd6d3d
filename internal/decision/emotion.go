package decision

import (
	"sync"
)

const (
	EmotionCalm       = "CALM"
	EmotionStressed   = "STRESSED"
	EmotionFrustrated = "FRUSTRATED"
	EmotionConfident  = "CONFIDENT"
	EmotionDetermined = "DETERMINED"
)

// Lifecycle triggers that move a user's emotional state.
const (
	TriggerGoalKilled    = "GOAL_KILLED"
	TriggerGoalFailed    = "GOAL_FAILED"
	TriggerGoalCompleted = "GOAL_COMPLETED"
	TriggerUserOverride  = "USER_OVERRIDE"
)

type emotionState struct {
	Emotion   string
	Intensity float64
}

// EmotionTracker keeps the latest inferred emotion per user. State is
// in-process; the arbitration engine only ever needs the most recent value.
type EmotionTracker struct {
	mu     sync.RWMutex
	latest map[string]emotionState
}

func NewEmotionTracker() *EmotionTracker {
	return &EmotionTracker{latest: map[string]emotionState{}}
}

// Detect infers an emotion from a lifecycle trigger, records it for the
// user, and returns it.
func (t *EmotionTracker) Detect(userID, trigger string) string {
	emotion, intensity := EmotionCalm, 0.5
	switch trigger {
	case TriggerGoalKilled:
		emotion, intensity = EmotionFrustrated, 0.8
	case TriggerGoalFailed:
		emotion, intensity = EmotionStressed, 0.7
	case TriggerGoalCompleted:
		emotion, intensity = EmotionConfident, 0.9
	case TriggerUserOverride:
		emotion, intensity = EmotionDetermined, 0.6
	}
	t.mu.Lock()
	t.latest[userID] = emotionState{Emotion: emotion, Intensity: intensity}
	t.mu.Unlock()
	return emotion
}

// Current returns the user's latest emotion, CALM when nothing was detected.
func (t *EmotionTracker) Current(userID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.latest[userID]; ok {
		return s.Emotion
	}
	return EmotionCalm
}
