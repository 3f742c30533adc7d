// Package memory persists conversion cases and per-strategy
// performance so the engine can learn from past work.
package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ziadkadry99/testmorph/internal/strategy"
)

// Case is one recorded conversion, keyed by the hash of its input.
// Re-converting the same input overwrites the previous case.
type Case struct {
	InputHash     string            `json:"input_hash"`
	InputCode     string            `json:"input_code"`
	OutputCode    string            `json:"output_code"`
	Strategy      strategy.Strategy `json:"strategy"`
	Success       bool              `json:"success"`
	Confidence    float64           `json:"confidence"`
	ExecutionTime float64           `json:"execution_time"`
	Context       map[string]any    `json:"context"`
	PatternID     string            `json:"pattern_id,omitempty"`
	FeedbackScore *float64          `json:"feedback_score,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Stats summarizes the whole case table.
type Stats struct {
	TotalCases       int     `json:"total_cases"`
	SuccessfulCases  int     `json:"successful_cases"`
	SuccessRate      float64 `json:"success_rate"`
	AvgConfidence    float64 `json:"avg_confidence"`
	AvgExecutionTime float64 `json:"avg_execution_time"`
	FeedbackCount    int     `json:"feedback_count"`
	AvgFeedback      float64 `json:"avg_feedback"`
}

// StrategyStats is one row of accumulated strategy performance for a
// context bucket.
type StrategyStats struct {
	Strategy         strategy.Strategy `json:"strategy"`
	ContextBucket    string            `json:"context_bucket"`
	Attempts         int               `json:"attempts"`
	Successes        int               `json:"successes"`
	SuccessRate      float64           `json:"success_rate"`
	AvgConfidence    float64           `json:"avg_confidence"`
	AvgExecutionTime float64           `json:"avg_execution_time"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// HashInput returns the content hash used as the case key. Identical
// input code always maps to the same case.
func HashInput(inputCode string) string {
	sum := sha256.Sum256([]byte(inputCode))
	return hex.EncodeToString(sum[:])[:16]
}
