package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
	"github.com/ziadkadry99/testmorph/internal/db"
	"github.com/ziadkadry99/testmorph/internal/knowledge"
	"github.com/ziadkadry99/testmorph/internal/memory"
	"github.com/ziadkadry99/testmorph/internal/oracle"
	"github.com/ziadkadry99/testmorph/internal/patterns"
	"github.com/ziadkadry99/testmorph/internal/reflection"
	"github.com/ziadkadry99/testmorph/internal/strategy"
	"github.com/ziadkadry99/testmorph/internal/tools"
)

const (
	// confidenceCap bounds every confidence the engine reports,
	// learned-pattern boosts included.
	confidenceCap = 0.95
	// learnInterval is how many conversions pass between pattern
	// synthesis runs.
	learnInterval = 10
	// exemplarLimit caps how many knowledge-base exemplars enrich a
	// conversion prompt.
	exemplarLimit = 2
)

// Config carries the tunables the engine reads from application
// configuration.
type Config struct {
	// Model is the oracle model used for conversion prompts.
	Model string
	// BaseConfidence is reported for standard successful conversions.
	// Zero means the default of 0.85.
	BaseConfidence float64
	// PatternBoost is added to a learned pattern's average confidence
	// when the pattern drives a conversion. Zero means the default of
	// 0.10.
	PatternBoost float64
	// AutonomyLevel in [0,1] controls whether reflection plans
	// improvement actions on its own.
	AutonomyLevel float64
}

// ProgressFunc receives per-stage progress while a conversion runs.
type ProgressFunc func(agent, status, message string)

// Engine runs the adaptive conversion pipeline: context analysis, tool
// orchestration, learned-pattern shortcuts, strategy selection, oracle
// generation, and the learning and reflection loops that feed future
// conversions.
type Engine struct {
	provider  oracle.Provider
	model     string
	analyzer  *analyzer.Analyzer
	tools     *tools.Orchestrator
	memory    *memory.Store
	learner   *patterns.Learner
	reflector *reflection.Engine
	knowledge *knowledge.Store

	baseConfidence float64
	patternBoost   float64

	mu          sync.Mutex
	conversions int
}

// New assembles an engine over the given oracle provider and database.
func New(provider oracle.Provider, database *db.DB, cfg Config) *Engine {
	if cfg.BaseConfidence == 0 {
		cfg.BaseConfidence = 0.85
	}
	if cfg.PatternBoost == 0 {
		cfg.PatternBoost = 0.10
	}
	mem := memory.NewStore(database)
	return &Engine{
		provider:       provider,
		model:          cfg.Model,
		analyzer:       analyzer.New(provider, cfg.Model),
		tools:          tools.NewOrchestrator(tools.DefaultTools()...),
		memory:         mem,
		learner:        patterns.NewLearner(patterns.NewStore(database), mem, provider, cfg.Model),
		reflector:      reflection.New(reflection.NewStore(database), mem, cfg.AutonomyLevel),
		baseConfidence: cfg.BaseConfidence,
		patternBoost:   cfg.PatternBoost,
	}
}

// SetKnowledge attaches the optional conversion knowledge base. Without
// it the engine skips exemplar retrieval and similarity queries.
func (e *Engine) SetKnowledge(kb *knowledge.Store) { e.knowledge = kb }

// Knowledge returns the attached knowledge base, nil when none is set.
func (e *Engine) Knowledge() *knowledge.Store { return e.knowledge }

// Memory exposes the case store for read paths (HTTP, MCP, CLI).
func (e *Engine) Memory() *memory.Store { return e.memory }

// Reflections exposes the reflection store for read paths.
func (e *Engine) Reflections() *reflection.Store { return e.reflector.Store() }

// Convert runs the full pipeline on one Cypress source. It never
// returns an error: an oracle failure yields a failed Result with the
// cause in Issues.
func (e *Engine) Convert(ctx context.Context, inputCode string) *Result {
	return e.ConvertWithProgress(ctx, inputCode, nil)
}

// ConvertWithProgress is Convert with a per-stage callback, used by the
// WebSocket progress stream. A nil callback is allowed.
func (e *Engine) ConvertWithProgress(ctx context.Context, inputCode string, progress ProgressFunc) *Result {
	start := time.Now()
	notify := func(agent, status, message string) {
		if progress != nil {
			progress(agent, status, message)
		}
	}

	inputHash := memory.HashInput(inputCode)

	notify("analyzer", "working", "Profiling test structure")
	tctx := e.analyzer.Analyze(ctx, inputCode)
	notify("analyzer", "done", fmt.Sprintf("Complexity %d/10, %d tests", tctx.Complexity, tctx.TestCount))

	notify("tools", "working", "Running conversion tools")
	insights := e.tools.Run(inputCode, tctx)
	notify("tools", "done", fmt.Sprintf("%d tools applied", insights.ToolsUsed))

	ctxMap := tctx.Map()

	var result *Result
	var applied *patterns.Pattern

	match, err := e.learner.Match(ctx, inputCode, ctxMap)
	if err != nil {
		log.Printf("engine: pattern match: %v", err)
	}
	if match != nil && match.SuccessRate > patterns.ApplyThreshold {
		notify("patterns", "working", fmt.Sprintf("Applying learned pattern (%.0f%% success rate)", match.SuccessRate*100))
		raw, err := e.learner.Apply(ctx, match, inputCode)
		if err != nil {
			// The standard path below takes over.
			log.Printf("engine: pattern apply: %v", err)
			notify("patterns", "error", "Pattern application failed, falling back")
		} else {
			result = &Result{
				Success:    true,
				Code:       normalizeOutput(raw),
				Confidence: math.Min(confidenceCap, match.AvgConfidence+e.patternBoost),
				Strategy:   strategy.Simple,
				Metadata:   map[string]any{"used_pattern": match.ID},
			}
			applied = match
		}
	}

	if result == nil {
		strat := strategy.Select(tctx, insights)
		notify("converter", "working", fmt.Sprintf("Converting with %s strategy", strat))
		result = e.convertWithStrategy(ctx, inputCode, strat)
	}

	executionTime := time.Since(start).Seconds()
	result.InputHash = inputHash
	result.ExecutionTime = executionTime
	result.Metadata["tool_analysis"] = insights

	if result.Success {
		notify("converter", "done", "Conversion complete")
	} else {
		notify("converter", "error", "Conversion failed")
	}

	patternID := ""
	if applied != nil {
		patternID = applied.ID
	}

	if err := e.memory.Upsert(ctx, memory.Case{
		InputHash:     inputHash,
		InputCode:     inputCode,
		OutputCode:    result.Code,
		Strategy:      result.Strategy,
		Success:       result.Success,
		Confidence:    result.Confidence,
		ExecutionTime: executionTime,
		Context:       ctxMap,
		PatternID:     patternID,
	}); err != nil {
		log.Printf("engine: store case: %v", err)
	}

	if err := e.memory.UpdateStrategyPerformance(ctx, result.Strategy, tctx.Bucket(), result.Success, result.Confidence, executionTime); err != nil {
		log.Printf("engine: strategy performance: %v", err)
	}

	if result.Success && e.knowledge != nil {
		if err := e.knowledge.Add(ctx, knowledge.Exemplar{
			InputHash:  inputHash,
			InputCode:  inputCode,
			OutputCode: result.Code,
			Strategy:   string(result.Strategy),
			Confidence: result.Confidence,
		}); err != nil {
			log.Printf("engine: knowledge add: %v", err)
		}
	}

	n := e.bump()

	if n%learnInterval == 0 {
		notify("learning", "working", "Synthesizing patterns from recent conversions")
		learned, err := e.learner.Learn(ctx)
		switch {
		case err != nil:
			log.Printf("engine: pattern learning: %v", err)
		case learned > 0:
			notify("learning", "done", fmt.Sprintf("Learned %d new patterns", learned))
		default:
			notify("learning", "done", "No new patterns found")
		}
	}

	patternCount, err := e.learner.Count(ctx)
	if err != nil {
		log.Printf("engine: pattern count: %v", err)
	}
	result.Metadata["learning"] = map[string]any{
		"used_learned_pattern":   applied != nil,
		"pattern_id":             patternID,
		"total_learned_patterns": patternCount,
		"conversion_number":      n,
		"input_hash":             inputHash,
	}

	cause, shouldReflect, err := e.reflector.ShouldReflect(ctx, n)
	if err != nil {
		log.Printf("engine: reflection check: %v", err)
	}
	reflectionMeta := map[string]any{
		"reflection_triggered": shouldReflect,
		"autonomy_level":       e.reflector.Autonomy(),
	}
	if shouldReflect {
		notify("reflection", "working", fmt.Sprintf("Reflecting on recent performance (%s)", cause))
		rec, err := e.reflector.Reflect(ctx, cause)
		if err != nil {
			log.Printf("engine: reflection: %v", err)
		} else {
			reflectionMeta["cause"] = string(cause)
			reflectionMeta["insights"] = len(rec.Insights)
			notify("reflection", "done", fmt.Sprintf("Gained %d insights", len(rec.Insights)))
		}
	}
	result.Metadata["reflection"] = reflectionMeta

	return result
}

// convertWithStrategy runs the standard oracle conversion for a chosen
// strategy, enriching the prompt with knowledge-base exemplars whose
// similarity clears the floor.
func (e *Engine) convertWithStrategy(ctx context.Context, inputCode string, strat strategy.Strategy) *Result {
	plan := buildPlan(strat)

	var exemplars []knowledge.Exemplar
	if e.knowledge != nil {
		similar, err := e.knowledge.Similar(ctx, inputCode, exemplarLimit)
		if err != nil {
			log.Printf("engine: knowledge query: %v", err)
		}
		for _, ex := range similar {
			if float64(ex.Similarity) >= knowledge.MinSimilarity {
				exemplars = append(exemplars, ex)
			}
		}
	}

	resp, err := e.provider.Complete(ctx, oracle.CompletionRequest{
		Model: e.model,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: conversionSystemPrompt},
			{Role: oracle.RoleUser, Content: buildConversionPrompt(strat, inputCode, exemplars)},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
	})
	if err != nil {
		return &Result{
			Success:    false,
			Code:       fmt.Sprintf("// Error during conversion: %v", err),
			Confidence: 0,
			Strategy:   strat,
			Issues:     []string{err.Error()},
			Metadata:   map[string]any{"error": err.Error()},
		}
	}

	meta := map[string]any{
		"plan_steps": len(plan),
		"agentic":    true,
	}
	if len(exemplars) > 0 {
		meta["exemplars_used"] = len(exemplars)
	}

	return &Result{
		Success:    true,
		Code:       normalizeOutput(resp.Content),
		Confidence: e.baseConfidence,
		Strategy:   strat,
		Metadata:   meta,
	}
}

// bump advances the in-process conversion counter.
func (e *Engine) bump() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conversions++
	return e.conversions
}

// Feedback attaches a user score in [1,5] to a stored conversion case.
func (e *Engine) Feedback(ctx context.Context, inputHash string, score float64) error {
	return e.memory.AttachFeedback(ctx, inputHash, score)
}

// Similar returns stored conversions whose input resembles the query.
// Without a knowledge base it returns nothing.
func (e *Engine) Similar(ctx context.Context, inputCode string, limit int) ([]knowledge.Exemplar, error) {
	if e.knowledge == nil {
		return nil, nil
	}
	return e.knowledge.Similar(ctx, inputCode, limit)
}
