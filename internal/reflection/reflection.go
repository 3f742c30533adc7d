// Package reflection periodically examines recent conversion history,
// derives insights, and plans improvement actions when the engine has
// enough autonomy to act on them.
package reflection

import "time"

// Cause identifies which trigger started a reflection pass. Triggers
// are evaluated in a fixed order, so at most one cause fires per
// conversion.
type Cause string

const (
	CauseFailureThreshold Cause = "failure_threshold"
	CauseConfidenceDrop   Cause = "confidence_drop"
	CausePeriodic         Cause = "periodic"
	CauseUserFeedback     Cause = "user_feedback"
)

// Insight kinds, each bound to a fixed priority in buildInsights.
const (
	InsightStrategySuccess   = "strategy_success"
	InsightStrategyFailure   = "strategy_failure"
	InsightLowPatternUsage   = "low_pattern_usage"
	InsightEffectiveLearning = "effective_pattern_learning"
	InsightFailurePattern    = "failure_pattern"
	InsightLowSatisfaction   = "low_user_satisfaction"
	InsightHighSatisfaction  = "high_user_satisfaction"
	InsightDeclining         = "declining_performance"
	InsightImproving         = "improving_performance"
)

// Insight is one observation from a reflection pass. Priority runs
// from 1 (informational) to 5 (critical); priorities of 4 and above
// are actionable.
type Insight struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
	Action   string `json:"action,omitempty"`
}

// Record is a persisted reflection: the window metrics at the time it
// ran plus the insights it produced.
type Record struct {
	ID               string    `json:"id"`
	Cause            Cause     `json:"cause"`
	SuccessRate      float64   `json:"success_rate"`
	AvgConfidence    float64   `json:"avg_confidence"`
	AvgExecutionTime float64   `json:"avg_execution_time"`
	PatternUsageRate float64   `json:"pattern_usage_rate"`
	AvgFeedback      float64   `json:"avg_feedback"`
	Insights         []Insight `json:"insights"`
	CreatedAt        time.Time `json:"created_at"`
}

// Action statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Action is a planned improvement derived from a high-priority
// insight.
type Action struct {
	ID           string    `json:"id"`
	ReflectionID string    `json:"reflection_id"`
	InsightKind  string    `json:"insight_kind"`
	Action       string    `json:"action"`
	Priority     int       `json:"priority"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary condenses reflection history for status reporting.
type Summary struct {
	TotalReflections int        `json:"total_reflections"`
	LastCause        Cause      `json:"last_cause,omitempty"`
	LastReflection   *time.Time `json:"last_reflection,omitempty"`
	PlannedActions   int        `json:"planned_actions"`
	CompletedActions int        `json:"completed_actions"`
	AutonomyLevel    float64    `json:"autonomy_level"`
}
