package engine

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/testmorph/internal/memory"
	"github.com/ziadkadry99/testmorph/internal/reflection"
	"github.com/ziadkadry99/testmorph/internal/tools"
)

// Status is the read-only engine snapshot served by the status
// endpoints and the CLI.
type Status struct {
	AgentType        string                       `json:"agent_type"`
	AutonomyLevel    float64                      `json:"autonomy_level"`
	Capabilities     []string                     `json:"capabilities"`
	TotalConversions int                          `json:"total_conversions"`
	Performance      *memory.Stats                `json:"performance"`
	Strategies       []memory.StrategyStats       `json:"strategies"`
	Tools            map[string]tools.Performance `json:"tools"`
	Learning         LearningStatus               `json:"learning"`
	Reflection       *reflection.Summary          `json:"reflection"`
}

// LearningStatus summarizes the learning subsystem.
type LearningStatus struct {
	LearnedPatterns int `json:"learned_patterns"`
	StoredCases     int `json:"stored_cases"`
	KnowledgeItems  int `json:"knowledge_items"`
}

// Status reports engine-wide performance, learning, and reflection
// state. TotalConversions counts conversions performed by this process.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	stats, err := e.memory.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting case stats: %w", err)
	}
	strategies, err := e.memory.StrategyPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting strategy stats: %w", err)
	}
	patternCount, err := e.learner.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting patterns: %w", err)
	}
	summary, err := e.reflector.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarizing reflections: %w", err)
	}

	knowledgeItems := 0
	if e.knowledge != nil {
		knowledgeItems = e.knowledge.Count()
	}

	e.mu.Lock()
	total := e.conversions
	e.mu.Unlock()

	return &Status{
		AgentType:     "fully_agentic",
		AutonomyLevel: e.reflector.Autonomy(),
		Capabilities: []string{
			"decision_making",
			"planning",
			"tool_selection",
			"adaptation",
			"self_reflection",
			"autonomous_improvement",
		},
		TotalConversions: total,
		Performance:      stats,
		Strategies:       strategies,
		Tools:            e.tools.Performance(),
		Learning: LearningStatus{
			LearnedPatterns: patternCount,
			StoredCases:     stats.TotalCases,
			KnowledgeItems:  knowledgeItems,
		},
		Reflection: summary,
	}, nil
}
