package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/testmorph/internal/db"
	"github.com/ziadkadry99/testmorph/internal/embeddings"
	"github.com/ziadkadry99/testmorph/internal/knowledge"
	"github.com/ziadkadry99/testmorph/internal/memory"
	"github.com/ziadkadry99/testmorph/internal/oracle"
	"github.com/ziadkadry99/testmorph/internal/patterns"
	"github.com/ziadkadry99/testmorph/internal/reflection"
	"github.com/ziadkadry99/testmorph/internal/strategy"
)

const sampleCypress = `describe('login', () => {
  it('logs in', () => {
    cy.visit('/login');
    cy.get('#user').type('admin');
    cy.get('#pass').type('secret');
    cy.get('button[type=submit]').click();
    cy.contains('Welcome').should('be.visible');
  });
});`

const playwrightResponse = "```javascript\nimport { test, expect } from '@playwright/test';\n\ntest('logs in', async ({ page }) => {\n  await page.goto('/login');\n});\n```"

// fakeProvider answers every completion with a fixed response. When
// failContains is set, prompts containing it fail instead, which lets
// tests break one pipeline stage while the others keep working.
type fakeProvider struct {
	mu           sync.Mutex
	response     string
	err          error
	failContains string
	prompts      []string
}

func (f *fakeProvider) Complete(_ context.Context, req oracle.CompletionRequest) (*oracle.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	if f.failContains != "" && strings.Contains(prompt, f.failContains) {
		return nil, errors.New("simulated oracle failure")
	}
	return &oracle.CompletionResponse{Content: f.response, Model: req.Model}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func setupTestEngine(t *testing.T, provider oracle.Provider) (*Engine, *db.DB) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	eng := New(provider, database, Config{Model: "test-model", AutonomyLevel: 0.8})
	return eng, database
}

func TestConvert_Success(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, _ := setupTestEngine(t, provider)
	ctx := t.Context()

	res := eng.Convert(ctx, sampleCypress)

	if !res.Success {
		t.Fatalf("conversion failed: %v", res.Issues)
	}
	if res.Strategy != strategy.Simple {
		t.Errorf("strategy = %q, want %q", res.Strategy, strategy.Simple)
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
	if strings.Contains(res.Code, "```") {
		t.Errorf("code still carries fences: %q", res.Code)
	}
	if !strings.Contains(res.Code, "page.goto") {
		t.Errorf("code missing converted body: %q", res.Code)
	}
	if res.InputHash != memory.HashInput(sampleCypress) {
		t.Errorf("input hash = %q, want %q", res.InputHash, memory.HashInput(sampleCypress))
	}
	if res.ExecutionTime < 0 {
		t.Errorf("execution time = %v", res.ExecutionTime)
	}

	if res.Metadata["agentic"] != true {
		t.Errorf("metadata agentic = %v", res.Metadata["agentic"])
	}
	if res.Metadata["plan_steps"] != 4 {
		t.Errorf("metadata plan_steps = %v, want 4", res.Metadata["plan_steps"])
	}
	learning, ok := res.Metadata["learning"].(map[string]any)
	if !ok {
		t.Fatalf("metadata learning missing: %v", res.Metadata)
	}
	if learning["conversion_number"] != 1 {
		t.Errorf("conversion_number = %v, want 1", learning["conversion_number"])
	}
	if learning["used_learned_pattern"] != false {
		t.Errorf("used_learned_pattern = %v, want false", learning["used_learned_pattern"])
	}

	stored, err := eng.Memory().Get(ctx, res.InputHash)
	if err != nil {
		t.Fatalf("loading stored case: %v", err)
	}
	if stored == nil {
		t.Fatal("case was not persisted")
	}
	if !stored.Success || stored.Strategy != strategy.Simple || stored.Confidence != 0.85 {
		t.Errorf("stored case = %+v", stored)
	}
}

func TestConvert_OracleFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	eng, _ := setupTestEngine(t, provider)
	ctx := t.Context()

	res := eng.Convert(ctx, sampleCypress)

	if res.Success {
		t.Fatal("conversion reported success despite oracle failure")
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
	if !strings.HasPrefix(res.Code, "// Error during conversion") {
		t.Errorf("code = %q", res.Code)
	}
	if len(res.Issues) != 1 || !strings.Contains(res.Issues[0], "rate limited") {
		t.Errorf("issues = %v", res.Issues)
	}

	stored, err := eng.Memory().Get(ctx, res.InputHash)
	if err != nil {
		t.Fatalf("loading stored case: %v", err)
	}
	if stored == nil || stored.Success {
		t.Errorf("failed case not persisted correctly: %+v", stored)
	}
}

func TestConvert_PatternShortcut(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, database := setupTestEngine(t, provider)
	ctx := t.Context()

	pstore := patterns.NewStore(database)
	if err := pstore.Insert(ctx, patterns.Pattern{
		ID:                "pat-1",
		InputSignature:    patterns.ExtractSignature(sampleCypress),
		OutputSignature:   "NAVIGATE",
		SuccessRate:       0.9,
		AvgConfidence:     0.8,
		ContextConditions: map[string]any{"has_form_interactions": true},
		LastUpdated:       time.Now(),
	}); err != nil {
		t.Fatalf("seeding pattern: %v", err)
	}

	res := eng.Convert(ctx, sampleCypress)

	if !res.Success {
		t.Fatalf("conversion failed: %v", res.Issues)
	}
	if res.Metadata["used_pattern"] != "pat-1" {
		t.Errorf("used_pattern = %v", res.Metadata["used_pattern"])
	}
	if res.Strategy != strategy.Simple {
		t.Errorf("strategy = %q, want %q", res.Strategy, strategy.Simple)
	}
	if math.Abs(res.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9", res.Confidence)
	}

	learning := res.Metadata["learning"].(map[string]any)
	if learning["used_learned_pattern"] != true {
		t.Errorf("used_learned_pattern = %v, want true", learning["used_learned_pattern"])
	}
	if learning["pattern_id"] != "pat-1" {
		t.Errorf("pattern_id = %v", learning["pattern_id"])
	}

	got, err := pstore.Get(ctx, "pat-1")
	if err != nil {
		t.Fatalf("loading pattern: %v", err)
	}
	if got.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", got.UsageCount)
	}

	stored, err := eng.Memory().Get(ctx, res.InputHash)
	if err != nil {
		t.Fatalf("loading stored case: %v", err)
	}
	if stored.PatternID != "pat-1" {
		t.Errorf("stored pattern id = %q", stored.PatternID)
	}
}

func TestConvert_PatternBelowApplyThreshold(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, database := setupTestEngine(t, provider)
	ctx := t.Context()

	pstore := patterns.NewStore(database)
	if err := pstore.Insert(ctx, patterns.Pattern{
		ID:                "pat-weak",
		InputSignature:    patterns.ExtractSignature(sampleCypress),
		SuccessRate:       0.75,
		AvgConfidence:     0.8,
		ContextConditions: map[string]any{"has_form_interactions": true},
		LastUpdated:       time.Now(),
	}); err != nil {
		t.Fatalf("seeding pattern: %v", err)
	}

	res := eng.Convert(ctx, sampleCypress)

	if !res.Success {
		t.Fatalf("conversion failed: %v", res.Issues)
	}
	if _, ok := res.Metadata["used_pattern"]; ok {
		t.Error("pattern below apply threshold was applied")
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want base 0.85", res.Confidence)
	}

	got, err := pstore.Get(ctx, "pat-weak")
	if err != nil {
		t.Fatalf("loading pattern: %v", err)
	}
	if got.UsageCount != 0 {
		t.Errorf("usage count = %d, want 0", got.UsageCount)
	}
}

func TestConvert_PatternApplyFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse, failContains: "proven pattern"}
	eng, database := setupTestEngine(t, provider)
	ctx := t.Context()

	pstore := patterns.NewStore(database)
	if err := pstore.Insert(ctx, patterns.Pattern{
		ID:                "pat-broken",
		InputSignature:    patterns.ExtractSignature(sampleCypress),
		SuccessRate:       0.9,
		AvgConfidence:     0.8,
		ContextConditions: map[string]any{"has_form_interactions": true},
		LastUpdated:       time.Now(),
	}); err != nil {
		t.Fatalf("seeding pattern: %v", err)
	}

	res := eng.Convert(ctx, sampleCypress)

	if !res.Success {
		t.Fatalf("fallback conversion failed: %v", res.Issues)
	}
	if _, ok := res.Metadata["used_pattern"]; ok {
		t.Error("failed pattern application still marked as used")
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want base 0.85", res.Confidence)
	}

	got, err := pstore.Get(ctx, "pat-broken")
	if err != nil {
		t.Fatalf("loading pattern: %v", err)
	}
	if got.UsageCount != 0 {
		t.Errorf("usage count = %d, want 0", got.UsageCount)
	}
}

func TestConvert_EveryTenthLearns(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, database := setupTestEngine(t, provider)
	ctx := t.Context()

	var last *Result
	for i := 0; i < 10; i++ {
		input := fmt.Sprintf(`describe('suite %d', () => {
  it('works', () => {
    cy.visit('/page/%d');
    cy.get('#field').type('value');
  });
});`, i, i)
		last = eng.Convert(ctx, input)
		if !last.Success {
			t.Fatalf("conversion %d failed: %v", i, last.Issues)
		}
	}

	count, err := patterns.NewStore(database).Count(ctx)
	if err != nil {
		t.Fatalf("counting patterns: %v", err)
	}
	if count != 1 {
		t.Fatalf("learned patterns = %d, want 1", count)
	}

	learning := last.Metadata["learning"].(map[string]any)
	if learning["total_learned_patterns"] != 1 {
		t.Errorf("total_learned_patterns = %v, want 1", learning["total_learned_patterns"])
	}
	if learning["conversion_number"] != 10 {
		t.Errorf("conversion_number = %v, want 10", learning["conversion_number"])
	}
}

func TestConvert_FailureTriggersReflection(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model offline")}
	eng, _ := setupTestEngine(t, provider)
	ctx := t.Context()

	inputs := []string{
		"cy.visit('/a');",
		"cy.visit('/b');",
		"cy.visit('/c');",
	}
	var last *Result
	for i, input := range inputs {
		last = eng.Convert(ctx, input)
		if last.Success {
			t.Fatalf("conversion %d unexpectedly succeeded", i)
		}
		refl := last.Metadata["reflection"].(map[string]any)
		if i < 2 && refl["reflection_triggered"] == true {
			t.Fatalf("reflection fired after only %d failures", i+1)
		}
	}

	refl := last.Metadata["reflection"].(map[string]any)
	if refl["reflection_triggered"] != true {
		t.Fatal("reflection did not fire after three failures")
	}
	if refl["cause"] != string(reflection.CauseFailureThreshold) {
		t.Errorf("cause = %v, want %q", refl["cause"], reflection.CauseFailureThreshold)
	}

	n, err := eng.Reflections().CountRecords(ctx)
	if err != nil {
		t.Fatalf("counting reflections: %v", err)
	}
	if n != 1 {
		t.Errorf("reflection records = %d, want 1", n)
	}
}

func TestFeedback(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, _ := setupTestEngine(t, provider)
	ctx := t.Context()

	res := eng.Convert(ctx, sampleCypress)
	if err := eng.Feedback(ctx, res.InputHash, 4.5); err != nil {
		t.Fatalf("attaching feedback: %v", err)
	}

	stored, err := eng.Memory().Get(ctx, res.InputHash)
	if err != nil {
		t.Fatalf("loading stored case: %v", err)
	}
	if stored.FeedbackScore == nil || *stored.FeedbackScore != 4.5 {
		t.Errorf("feedback score = %v", stored.FeedbackScore)
	}

	if err := eng.Feedback(ctx, "no-such-hash", 4); !errors.Is(err, memory.ErrCaseNotFound) {
		t.Errorf("feedback on unknown hash: %v", err)
	}
}

func TestStatus(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, _ := setupTestEngine(t, provider)
	ctx := t.Context()

	eng.Convert(ctx, sampleCypress)
	eng.Convert(ctx, "cy.visit('/about');\ncy.get('h1').should('exist');")

	status, err := eng.Status(ctx)
	if err != nil {
		t.Fatalf("collecting status: %v", err)
	}

	if status.AgentType != "fully_agentic" {
		t.Errorf("agent type = %q", status.AgentType)
	}
	if status.AutonomyLevel != 0.8 {
		t.Errorf("autonomy = %v, want 0.8", status.AutonomyLevel)
	}
	if status.TotalConversions != 2 {
		t.Errorf("total conversions = %d, want 2", status.TotalConversions)
	}
	if status.Performance.TotalCases != 2 {
		t.Errorf("total cases = %d, want 2", status.Performance.TotalCases)
	}
	if status.Performance.SuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0", status.Performance.SuccessRate)
	}
	if len(status.Strategies) == 0 {
		t.Error("no strategy stats collected")
	}
	if len(status.Tools) == 0 {
		t.Error("no tool stats collected")
	}
	if status.Learning.StoredCases != 2 {
		t.Errorf("stored cases = %d, want 2", status.Learning.StoredCases)
	}
	if status.Learning.LearnedPatterns != 0 {
		t.Errorf("learned patterns = %d, want 0", status.Learning.LearnedPatterns)
	}
	if status.Reflection == nil || status.Reflection.TotalReflections != 0 {
		t.Errorf("reflection summary = %+v", status.Reflection)
	}
	if len(status.Capabilities) != 6 {
		t.Errorf("capabilities = %v", status.Capabilities)
	}
}

func TestConvert_KnowledgeRoundTrip(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, _ := setupTestEngine(t, provider)

	kb, err := knowledge.NewStore(embeddings.NewLocalEmbedder(64))
	if err != nil {
		t.Fatalf("creating knowledge store: %v", err)
	}
	eng.SetKnowledge(kb)
	ctx := t.Context()

	res := eng.Convert(ctx, sampleCypress)
	if !res.Success {
		t.Fatalf("conversion failed: %v", res.Issues)
	}
	if kb.Count() != 1 {
		t.Fatalf("knowledge count = %d, want 1", kb.Count())
	}

	similar, err := eng.Similar(ctx, sampleCypress, 3)
	if err != nil {
		t.Fatalf("querying similar: %v", err)
	}
	if len(similar) != 1 {
		t.Fatalf("similar results = %d, want 1", len(similar))
	}
	if similar[0].InputHash != res.InputHash {
		t.Errorf("similar hash = %q, want %q", similar[0].InputHash, res.InputHash)
	}
}

func TestSimilar_NoKnowledge(t *testing.T) {
	provider := &fakeProvider{response: playwrightResponse}
	eng, _ := setupTestEngine(t, provider)

	similar, err := eng.Similar(t.Context(), "cy.visit('/');", 3)
	if err != nil {
		t.Fatalf("similar without knowledge base: %v", err)
	}
	if len(similar) != 0 {
		t.Errorf("similar results = %d, want 0", len(similar))
	}
}

func TestNormalizeOutput(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"javascript fence", "```javascript\nconst a = 1;\n```", "const a = 1;"},
		{"typescript fence", "```typescript\nlet b: string;\n```", "let b: string;"},
		{"bare fence", "```\ncode here\n```", "code here"},
		{"prose around fence", "Here is the converted test:\n```js\nawait page.goto('/');\n```\nLet me know!", "await page.goto('/');"},
		{"no fence", "  await page.click('#go');  ", "await page.click('#go');"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeOutput(tc.in); got != tc.want {
				t.Errorf("normalizeOutput(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBuildPlan(t *testing.T) {
	base := buildPlan(strategy.Simple)
	if len(base) != 4 {
		t.Fatalf("base plan has %d steps", len(base))
	}

	custom := buildPlan(strategy.CustomCommands)
	if custom[1].Step != "identify_custom_commands" || custom[len(custom)-1].Step != "create_helper_functions" {
		t.Errorf("custom plan = %+v", custom)
	}

	api := buildPlan(strategy.APITesting)
	if api[2].Step != "convert_intercepts" || api[len(api)-1].Step != "add_api_error_handling" {
		t.Errorf("api plan = %+v", api)
	}

	form := buildPlan(strategy.FormHeavy)
	if len(form) != 6 || form[4].Step != "optimize_form_selectors" {
		t.Errorf("form plan = %+v", form)
	}
}
