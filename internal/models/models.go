package models

import (
	"time"
)

// StepStatus is the per-step execution outcome.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// Plan is a schema-validated sequence of action calls for one atomic task.
type Plan struct {
	Goal       string  `json:"goal"`
	Confidence float64 `json:"confidence"`
	Steps      []Step  `json:"steps"`
}

// Step is one registry call. StepIDs are dense and increasing within a plan.
type Step struct {
	StepID int            `json:"step_id"`
	Action string         `json:"action"`
	Input  map[string]any `json:"input"`
}

// ExecutionResult is the outcome of a single executed step.
type ExecutionResult struct {
	StepID   int            `json:"step_id"`
	Action   string         `json:"action"`
	Status   StepStatus     `json:"status"`
	Output   map[string]any `json:"output"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
}

// ExecutionTrace is the ordered record of a plan run. Once a step fails no
// further results are appended. FailedStep is 0 when every step succeeded
// (step ids are positive).
type ExecutionTrace struct {
	Success    bool              `json:"success"`
	FailedStep int               `json:"failed_step,omitempty"`
	Results    []ExecutionResult `json:"results"`
}

// Verdict is the verifier's judgement of one (plan, trace) pair.
type Verdict struct {
	Accepted bool     `json:"accepted"`
	Score    float64  `json:"score"`
	Issues   []string `json:"issues"`
}

// HasIssue reports whether the verdict carries the given issue code.
func (v Verdict) HasIssue(code string) bool {
	for _, i := range v.Issues {
		if i == code {
			return true
		}
	}
	return false
}

// FailureType classifies why a plan was rejected.
type FailureType string

const (
	FailureIncompleteOutput FailureType = "INCOMPLETE_OUTPUT"
	FailureExecutionError   FailureType = "EXECUTION_ERROR"
	FailurePoorQuality      FailureType = "POOR_QUALITY"
	FailureRuleViolation    FailureType = "RULE_VIOLATION"
	FailureUnknown          FailureType = "UNKNOWN"
)

// FailureAnalysis is the analyzer's output fed back into replanning.
type FailureAnalysis struct {
	FailureType    FailureType `json:"failure_type"`
	RootCauses     []string    `json:"root_causes"`
	RecommendedFix []string    `json:"recommended_fix"`
}

// GoalStatus is the lifecycle state of a goal execution.
type GoalStatus string

const (
	GoalPending   GoalStatus = "PENDING"
	GoalRunning   GoalStatus = "RUNNING"
	GoalPaused    GoalStatus = "PAUSED"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalFailed    GoalStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s GoalStatus) Terminal() bool {
	return s == GoalCompleted || s == GoalFailed
}

// TaskSummary is the persisted summary of one atomic task's retry sequence.
type TaskSummary struct {
	Task     string   `json:"task"`
	Accepted bool     `json:"accepted"`
	Score    float64  `json:"score"`
	Issues   []string `json:"issues,omitempty"`
}

// GoalExecution is the persistent, resumable record of one goal.
type GoalExecution struct {
	ID               string        `json:"id"`
	Objective        string        `json:"objective"`
	Context          string        `json:"context,omitempty"`
	OrgID            string        `json:"org_id"`
	Status           GoalStatus    `json:"status"`
	Tasks            []string      `json:"tasks"`
	CurrentTaskIndex int           `json:"current_task_index"`
	Results          []TaskSummary `json:"results,omitempty"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// GoalPriority holds the scoring inputs for one goal, each in [0,1].
type GoalPriority struct {
	GoalID     string  `json:"goal_id"`
	Impact     float64 `json:"impact"`
	Urgency    float64 `json:"urgency"`
	Effort     float64 `json:"effort"`
	Risk       float64 `json:"risk"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
}

// DefaultPriority returns the neutral priority assigned to new goals.
func DefaultPriority(goalID string) GoalPriority {
	return GoalPriority{
		GoalID:     goalID,
		Impact:     0.5,
		Urgency:    0.5,
		Effort:     0.5,
		Risk:       0.1,
		Confidence: 0.5,
	}
}

// PriorityWeights is one immutable snapshot of the arbitration weights.
// A new snapshot is appended on every update; the latest row is current.
type PriorityWeights struct {
	ID         int64     `json:"id"`
	Impact     float64   `json:"impact"`
	Urgency    float64   `json:"urgency"`
	Confidence float64   `json:"confidence"`
	Effort     float64   `json:"effort"`
	Risk       float64   `json:"risk"`
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultWeights is the seed snapshot used before any update has run.
func DefaultWeights() PriorityWeights {
	return PriorityWeights{
		Impact:     0.4,
		Urgency:    0.3,
		Confidence: 0.2,
		Effort:     0.1,
		Risk:       0.2,
	}
}

// GoalScoreSnapshot is the per-goal factor breakdown written with each
// arbitration pass.
type GoalScoreSnapshot struct {
	Objective          string     `json:"objective"`
	Score              float64    `json:"score"`
	SystemScore        float64    `json:"system_score"`
	UserScore          float64    `json:"user_score"`
	RoleWeight         float64    `json:"role_weight"`
	OrgFit             float64    `json:"org_fit"`
	OrgRiskFit         float64    `json:"org_risk"`
	Personality        string     `json:"personality"`
	Emotion            string     `json:"emotion"`
	Status             GoalStatus `json:"status"`
	ConfidenceAdjusted float64    `json:"confidence_adjusted"`
}

// DecisionRecord is the immutable audit entry for one arbitration pass.
type DecisionRecord struct {
	ID             string                       `json:"id"`
	DecisionType   string                       `json:"decision_type"`
	SelectedGoalID string                       `json:"selected_goal_id,omitempty"`
	PausedGoalIDs  []string                     `json:"paused_goal_ids,omitempty"`
	KilledGoalIDs  []string                     `json:"killed_goal_ids,omitempty"`
	Reason         string                       `json:"reason"`
	Snapshot       map[string]GoalScoreSnapshot `json:"snapshot"`
	CreatedAt      time.Time                    `json:"created_at"`
}

const (
	DecisionSelect = "SELECT"
	DecisionNone   = "NONE"
)

// Checkpoint is the immutable record of one completed atomic task within a
// goal, successful or not. Checkpoints are the resumability substrate.
type Checkpoint struct {
	GoalID    string         `json:"goal_id"`
	TaskIndex int            `json:"task_index"`
	TaskText  string         `json:"task_text"`
	Verdict   Verdict        `json:"verdict"`
	Execution ExecutionTrace `json:"execution_result"`
	CreatedAt time.Time      `json:"created_at"`
}

// Memory is one recalled item from the memory collaborator.
type Memory struct {
	Summary string   `json:"summary"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags,omitempty"`
	Score   float64  `json:"score"`
}

const (
	MemoryKnowledge = "knowledge"
	MemoryMistake   = "mistake"
	MemoryStrategy  = "strategy"
)
