package reflection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/testmorph/internal/memory"
)

const (
	// windowSize is how many recent cases a reflection examines.
	windowSize = 20
	// triggerWindow is the shorter window the trigger checks use.
	triggerWindow = 10

	failureTriggerCount  = 3
	confidenceDropDelta  = 0.2
	periodicInterval     = 50
	feedbackTriggerCount = 2
	lowFeedbackScore     = 3.0

	// ActingGate is the autonomy level the engine must exceed before
	// high-priority insights become planned actions.
	ActingGate = 0.7
	// actionablePriority marks the insights worth acting on.
	actionablePriority = 4
	// minStrategyAttempts keeps single-shot strategies out of the
	// per-strategy insights.
	minStrategyAttempts = 3
)

// Engine evaluates reflection triggers and runs reflection passes
// over case memory.
type Engine struct {
	store    *Store
	memory   *memory.Store
	autonomy float64
}

// New creates a reflection engine. Autonomy is clamped to [0, 1].
func New(store *Store, mem *memory.Store, autonomy float64) *Engine {
	if autonomy < 0 {
		autonomy = 0
	}
	if autonomy > 1 {
		autonomy = 1
	}
	return &Engine{store: store, memory: mem, autonomy: autonomy}
}

// Autonomy returns the configured autonomy level.
func (e *Engine) Autonomy() float64 { return e.autonomy }

// Store exposes the underlying reflection store for read endpoints.
func (e *Engine) Store() *Store { return e.store }

// ShouldReflect evaluates the triggers in fixed order and returns the
// first cause that fires. totalConversions is the engine's monotonic
// conversion counter, used only by the periodic trigger.
func (e *Engine) ShouldReflect(ctx context.Context, totalConversions int) (Cause, bool, error) {
	recent, err := e.memory.Recent(ctx, windowSize)
	if err != nil {
		return "", false, fmt.Errorf("loading recent cases: %w", err)
	}

	last := recent
	if len(last) > triggerWindow {
		last = last[:triggerWindow]
	}

	failures := 0
	lowFeedback := 0
	for _, c := range last {
		if !c.Success {
			failures++
		}
		if c.FeedbackScore != nil && *c.FeedbackScore < lowFeedbackScore {
			lowFeedback++
		}
	}
	if failures >= failureTriggerCount {
		return CauseFailureThreshold, true, nil
	}

	if len(recent) >= 2*triggerWindow {
		drop := meanConfidence(recent[:triggerWindow]) - meanConfidence(recent[triggerWindow:2*triggerWindow])
		if drop < -confidenceDropDelta {
			return CauseConfidenceDrop, true, nil
		}
	}

	if totalConversions > 0 && totalConversions%periodicInterval == 0 {
		return CausePeriodic, true, nil
	}

	if lowFeedback >= feedbackTriggerCount {
		return CauseUserFeedback, true, nil
	}

	return "", false, nil
}

// Reflect runs a reflection pass: it measures the recent window,
// derives insights sorted by priority, persists the record and, when
// autonomy exceeds the acting gate, plans actions for every insight
// at priority 4 or above.
func (e *Engine) Reflect(ctx context.Context, cause Cause) (*Record, error) {
	window, err := e.memory.Recent(ctx, windowSize)
	if err != nil {
		return nil, fmt.Errorf("loading reflection window: %w", err)
	}

	m := computeMetrics(window)
	insights := buildInsights(m)

	record := Record{
		ID:               uuid.NewString(),
		Cause:            cause,
		SuccessRate:      m.successRate,
		AvgConfidence:    m.avgConfidence,
		AvgExecutionTime: m.avgExecutionTime,
		PatternUsageRate: m.patternUsageRate,
		AvgFeedback:      m.avgFeedback,
		Insights:         insights,
		CreatedAt:        time.Now().UTC(),
	}
	if err := e.store.InsertRecord(ctx, record); err != nil {
		return nil, err
	}

	if e.autonomy > ActingGate {
		for _, in := range insights {
			if in.Priority < actionablePriority {
				continue
			}
			action := Action{
				ID:           uuid.NewString(),
				ReflectionID: record.ID,
				InsightKind:  in.Kind,
				Action:       in.Action,
				Priority:     in.Priority,
				Status:       StatusPlanned,
				CreatedAt:    record.CreatedAt,
			}
			if err := e.store.InsertAction(ctx, action); err != nil {
				return nil, err
			}
		}
	}

	return &record, nil
}

// Summary reports reflection history for status endpoints.
func (e *Engine) Summary(ctx context.Context) (*Summary, error) {
	total, err := e.store.CountRecords(ctx)
	if err != nil {
		return nil, err
	}
	planned, err := e.store.CountActions(ctx, StatusPlanned)
	if err != nil {
		return nil, err
	}
	completed, err := e.store.CountActions(ctx, StatusCompleted)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		TotalReflections: total,
		PlannedActions:   planned,
		CompletedActions: completed,
		AutonomyLevel:    e.autonomy,
	}
	if latest, err := e.store.Latest(ctx); err != nil {
		return nil, err
	} else if latest != nil {
		s.LastCause = latest.Cause
		t := latest.CreatedAt
		s.LastReflection = &t
	}
	return s, nil
}

type strategyWindow struct {
	attempts  int
	successes int
}

type metrics struct {
	windowSize       int
	successRate      float64
	avgConfidence    float64
	avgExecutionTime float64
	patternUsageRate float64
	avgFeedback      float64
	feedbackCount    int
	failures         int
	confidenceTrend  float64
	trendKnown       bool
	strategies       map[string]strategyWindow
}

// computeMetrics aggregates the reflection window. Cases arrive
// newest first.
func computeMetrics(window []memory.Case) metrics {
	m := metrics{windowSize: len(window), strategies: map[string]strategyWindow{}}
	if len(window) == 0 {
		return m
	}

	var confSum, execSum, feedbackSum float64
	successes, patternUses := 0, 0
	for _, c := range window {
		confSum += c.Confidence
		execSum += c.ExecutionTime
		if c.Success {
			successes++
		} else {
			m.failures++
		}
		if c.PatternID != "" {
			patternUses++
		}
		if c.FeedbackScore != nil {
			feedbackSum += *c.FeedbackScore
			m.feedbackCount++
		}
		sw := m.strategies[string(c.Strategy)]
		sw.attempts++
		if c.Success {
			sw.successes++
		}
		m.strategies[string(c.Strategy)] = sw
	}

	n := float64(len(window))
	m.successRate = float64(successes) / n
	m.avgConfidence = confSum / n
	m.avgExecutionTime = execSum / n
	m.patternUsageRate = float64(patternUses) / n
	if m.feedbackCount > 0 {
		m.avgFeedback = feedbackSum / float64(m.feedbackCount)
	}

	if len(window) >= triggerWindow {
		half := len(window) / 2
		m.confidenceTrend = meanConfidence(window[:half]) - meanConfidence(window[half:])
		m.trendKnown = true
	}
	return m
}

// buildInsights derives insights from window metrics. Each kind has a
// fixed priority; the result is sorted highest priority first with
// kind as the tie-break.
func buildInsights(m metrics) []Insight {
	if m.windowSize == 0 {
		return nil
	}
	var insights []Insight

	names := make([]string, 0, len(m.strategies))
	for name := range m.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sw := m.strategies[name]
		if sw.attempts < minStrategyAttempts {
			continue
		}
		rate := float64(sw.successes) / float64(sw.attempts)
		if rate > 0.8 {
			insights = append(insights, Insight{
				Kind:     InsightStrategySuccess,
				Message:  fmt.Sprintf("strategy %s succeeds in %.0f%% of recent conversions", name, rate*100),
				Priority: 4,
				Action:   "increase_strategy_usage:" + name,
			})
		} else if rate < 0.5 {
			insights = append(insights, Insight{
				Kind:     InsightStrategyFailure,
				Message:  fmt.Sprintf("strategy %s fails in %.0f%% of recent conversions", name, (1-rate)*100),
				Priority: 5,
				Action:   "review_strategy:" + name,
			})
		}
	}

	if m.patternUsageRate < 0.2 {
		insights = append(insights, Insight{
			Kind:     InsightLowPatternUsage,
			Message:  fmt.Sprintf("learned patterns drive only %.0f%% of recent conversions", m.patternUsageRate*100),
			Priority: 3,
			Action:   "expand_pattern_learning",
		})
	} else if m.patternUsageRate > 0.6 && m.successRate > 0.8 {
		insights = append(insights, Insight{
			Kind:     InsightEffectiveLearning,
			Message:  "pattern-guided conversions are carrying a high success rate",
			Priority: 2,
			Action:   "maintain_pattern_approach",
		})
	}

	if m.failures >= failureTriggerCount {
		insights = append(insights, Insight{
			Kind:     InsightFailurePattern,
			Message:  fmt.Sprintf("%d of the last %d conversions failed", m.failures, m.windowSize),
			Priority: 5,
			Action:   "analyze_failure_causes",
		})
	}

	if m.feedbackCount > 0 {
		if m.avgFeedback < lowFeedbackScore {
			insights = append(insights, Insight{
				Kind:     InsightLowSatisfaction,
				Message:  fmt.Sprintf("average user feedback is %.1f/5", m.avgFeedback),
				Priority: 5,
				Action:   "review_output_quality",
			})
		} else if m.avgFeedback > 4.0 {
			insights = append(insights, Insight{
				Kind:     InsightHighSatisfaction,
				Message:  fmt.Sprintf("average user feedback is %.1f/5", m.avgFeedback),
				Priority: 2,
				Action:   "maintain_quality",
			})
		}
	}

	if m.trendKnown {
		if m.confidenceTrend < -0.1 {
			insights = append(insights, Insight{
				Kind:     InsightDeclining,
				Message:  fmt.Sprintf("confidence dropped %.2f between window halves", -m.confidenceTrend),
				Priority: 5,
				Action:   "investigate_regression",
			})
		} else if m.confidenceTrend > 0.1 {
			insights = append(insights, Insight{
				Kind:     InsightImproving,
				Message:  fmt.Sprintf("confidence rose %.2f between window halves", m.confidenceTrend),
				Priority: 3,
				Action:   "reinforce_recent_changes",
			})
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].Priority != insights[j].Priority {
			return insights[i].Priority > insights[j].Priority
		}
		return insights[i].Kind < insights[j].Kind
	})
	return insights
}

func meanConfidence(cases []memory.Case) float64 {
	if len(cases) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cases {
		sum += c.Confidence
	}
	return sum / float64(len(cases))
}
