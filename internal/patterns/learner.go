package patterns

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ziadkadry99/testmorph/internal/memory"
	"github.com/ziadkadry99/testmorph/internal/oracle"
)

const (
	// MatchThreshold is the combined score a pattern must exceed
	// (strictly) to count as a match.
	MatchThreshold = 0.7
	// ApplyThreshold is the success rate a matched pattern must
	// exceed before it is allowed to drive a conversion.
	ApplyThreshold = 0.8

	signatureWeight = 0.7
	contextWeight   = 0.3

	// Synthesis looks at this many recent cases and promotes groups
	// of at least minGroupSize high-confidence successes.
	synthesisWindow = 20
	minGroupSize    = 2
	highConfidence  = 0.7
)

// flagKeys are the boolean context flags that can become pattern
// conditions.
var flagKeys = []string{"has_custom_commands", "has_api_calls", "has_form_interactions"}

const applySystemPrompt = "You are an expert at converting Cypress tests to Playwright. Return only the converted Playwright code."

// Learner matches inputs against learned patterns, applies them via
// the oracle, and synthesizes new patterns from recent cases.
type Learner struct {
	store    *Store
	memory   *memory.Store
	provider oracle.Provider
	model    string
}

// NewLearner wires a learner to its pattern store, case memory and
// oracle provider.
func NewLearner(store *Store, mem *memory.Store, provider oracle.Provider, model string) *Learner {
	return &Learner{store: store, memory: mem, provider: provider, model: model}
}

// Count reports how many patterns have been learned.
func (l *Learner) Count(ctx context.Context) (int, error) {
	return l.store.Count(ctx)
}

// Match scores every stored pattern against the input's signature
// (70%) and the pattern's context conditions (30%) and returns the
// best pattern scoring strictly above MatchThreshold, or nil. Ties go
// to the lowest pattern ID so repeated calls pick the same pattern.
func (l *Learner) Match(ctx context.Context, inputCode string, tctx map[string]any) (*Pattern, error) {
	all, _, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	inputTokens := tokenSet(ExtractSignature(inputCode))

	var best *Pattern
	bestScore := MatchThreshold
	for i := range all {
		p := &all[i]
		score := signatureWeight*jaccard(inputTokens, tokenSet(p.InputSignature)) +
			contextWeight*conditionScore(p.ContextConditions, tctx)
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	return best, nil
}

// Apply asks the oracle to convert using a proven pattern as guidance
// and records the usage. The raw oracle output is returned; callers
// normalize it. On oracle failure the error propagates so the caller
// can fall back to a standard conversion.
func (l *Learner) Apply(ctx context.Context, p *Pattern, inputCode string) (string, error) {
	prompt := fmt.Sprintf(`Convert this Cypress test to Playwright using this proven pattern:

Input Pattern: %s
Expected Output Pattern: %s
Success Rate: %.0f%%

Cypress Code:
%s

Generate the Playwright equivalent following the proven pattern:`,
		p.InputSignature, p.OutputSignature, p.SuccessRate*100, inputCode)

	resp, err := l.provider.Complete(ctx, oracle.CompletionRequest{
		Model: l.model,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: applySystemPrompt},
			{Role: oracle.RoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("pattern-guided conversion: %w", err)
	}

	if err := l.store.RecordUsage(ctx, p.ID); err != nil {
		return "", fmt.Errorf("recording pattern usage: %w", err)
	}
	return resp.Content, nil
}

// Learn synthesizes new patterns from the recent case window: groups
// of at least two high-confidence successful conversions sharing an
// input signature become a pattern, unless that signature is already
// known. Returns how many patterns were created.
func (l *Learner) Learn(ctx context.Context) (int, error) {
	cases, err := l.memory.Recent(ctx, synthesisWindow)
	if err != nil {
		return 0, fmt.Errorf("loading recent cases: %w", err)
	}
	if len(cases) == 0 {
		return 0, nil
	}

	existing, _, err := l.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading patterns: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.InputSignature] = struct{}{}
	}

	// Group the window by signature, preserving newest-first order.
	groups := make(map[string][]memory.Case)
	var order []string
	for _, c := range cases {
		sig := ExtractSignature(c.InputCode)
		if sig == "" {
			continue
		}
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], c)
	}

	created := 0
	for _, sig := range order {
		if _, ok := known[sig]; ok {
			continue
		}
		group := groups[sig]

		successes := 0
		var hits []memory.Case
		for _, c := range group {
			if c.Success {
				successes++
				if c.Confidence > highConfidence {
					hits = append(hits, c)
				}
			}
		}
		if len(hits) < minGroupSize {
			continue
		}

		sum := 0.0
		for _, c := range hits {
			sum += c.Confidence
		}

		p := Pattern{
			ID:                uuid.NewString(),
			InputSignature:    sig,
			OutputSignature:   ExtractSignature(hits[0].OutputCode),
			SuccessRate:       float64(successes) / float64(len(group)),
			AvgConfidence:     sum / float64(len(hits)),
			ContextConditions: sharedFlags(hits),
		}
		if err := l.store.Insert(ctx, p); err != nil {
			return created, fmt.Errorf("storing synthesized pattern: %w", err)
		}
		created++
	}
	return created, nil
}

// sharedFlags keeps the boolean context flags every case in the group
// agrees on.
func sharedFlags(cases []memory.Case) map[string]any {
	conditions := map[string]any{}
	for _, key := range flagKeys {
		first, ok := cases[0].Context[key].(bool)
		if !ok {
			continue
		}
		shared := true
		for _, c := range cases[1:] {
			v, ok := c.Context[key].(bool)
			if !ok || v != first {
				shared = false
				break
			}
		}
		if shared {
			conditions[key] = first
		}
	}
	return conditions
}

// conditionScore is the fraction of a pattern's conditions satisfied
// by the current context. A pattern without conditions contributes
// nothing, so signature similarity alone can never clear the match
// threshold.
func conditionScore(conditions, tctx map[string]any) float64 {
	if len(conditions) == 0 {
		return 0
	}
	matched := 0
	for key, want := range conditions {
		if got, ok := tctx[key]; ok && looselyEqual(got, want) {
			matched++
		}
	}
	return float64(matched) / float64(len(conditions))
}

// looselyEqual compares condition values across the JSON decode
// boundary, where every number comes back as float64.
func looselyEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
