package patterns

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ziadkadry99/testmorph/internal/db"
	"github.com/ziadkadry99/testmorph/internal/memory"
	"github.com/ziadkadry99/testmorph/internal/oracle"
	"github.com/ziadkadry99/testmorph/internal/strategy"
)

type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Complete(_ context.Context, _ oracle.CompletionRequest) (*oracle.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &oracle.CompletionResponse{Content: f.response, Model: "fake"}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func setupTestLearner(t *testing.T, provider oracle.Provider) (*Learner, *Store, *memory.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	mem := memory.NewStore(database)
	return NewLearner(store, mem, provider, "test-model"), store, mem
}

func TestMatch_StrictThreshold(t *testing.T) {
	learner, store, _ := setupTestLearner(t, &fakeProvider{})
	ctx := context.Background()

	err := store.Insert(ctx, Pattern{
		ID:                "p1",
		InputSignature:    "NAVIGATE->GET_ELEMENT",
		SuccessRate:       0.9,
		AvgConfidence:     0.85,
		ContextConditions: map[string]any{"has_api_calls": true},
	})
	if err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	input := "cy.visit('/')\ncy.get('#a')"

	// Identical signature but a failed condition scores exactly 0.7,
	// which must not match.
	got, err := learner.Match(ctx, input, map[string]any{"has_api_calls": false})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got != nil {
		t.Errorf("Match() = %q at score 0.7, want nil (threshold is strict)", got.ID)
	}

	// With the condition satisfied the score is 1.0.
	got, err = learner.Match(ctx, input, map[string]any{"has_api_calls": true})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got == nil || got.ID != "p1" {
		t.Errorf("Match() = %v, want pattern p1", got)
	}
}

func TestMatch_NoPatterns(t *testing.T) {
	learner, _, _ := setupTestLearner(t, &fakeProvider{})

	got, err := learner.Match(context.Background(), "cy.visit('/')", nil)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got != nil {
		t.Errorf("Match() = %v, want nil with empty store", got)
	}
}

func TestMatch_TiesGoToLowestID(t *testing.T) {
	learner, store, _ := setupTestLearner(t, &fakeProvider{})
	ctx := context.Background()

	for _, id := range []string{"b-second", "a-first"} {
		err := store.Insert(ctx, Pattern{
			ID:                id,
			InputSignature:    "NAVIGATE",
			SuccessRate:       0.9,
			ContextConditions: map[string]any{"has_api_calls": true},
		})
		if err != nil {
			t.Fatalf("Insert() error: %v", err)
		}
	}

	got, err := learner.Match(ctx, "cy.visit('/')", map[string]any{"has_api_calls": true})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if got == nil || got.ID != "a-first" {
		t.Errorf("Match() = %v, want deterministic winner a-first", got)
	}
}

func TestApply_RecordsUsage(t *testing.T) {
	provider := &fakeProvider{response: "await page.goto('/');"}
	learner, store, _ := setupTestLearner(t, provider)
	ctx := context.Background()

	p := Pattern{ID: "p1", InputSignature: "NAVIGATE", OutputSignature: "NAVIGATE", SuccessRate: 0.95}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	out, err := learner.Apply(ctx, &p, "cy.visit('/')")
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if out != provider.response {
		t.Errorf("Apply() = %q, want %q", out, provider.response)
	}

	stored, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if stored.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", stored.UsageCount)
	}
}

func TestApply_OracleFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	learner, store, _ := setupTestLearner(t, provider)
	ctx := context.Background()

	p := Pattern{ID: "p1", InputSignature: "NAVIGATE", SuccessRate: 0.95}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	if _, err := learner.Apply(ctx, &p, "cy.visit('/')"); err == nil {
		t.Fatal("Apply() succeeded despite oracle failure")
	}

	stored, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if stored.UsageCount != 0 {
		t.Errorf("UsageCount = %d, want 0 after failed apply", stored.UsageCount)
	}
}

func seedCase(t *testing.T, mem *memory.Store, input, output string, success bool, confidence float64, at time.Time) {
	t.Helper()
	err := mem.Upsert(context.Background(), memory.Case{
		InputCode:     input,
		OutputCode:    output,
		Strategy:      strategy.Simple,
		Success:       success,
		Confidence:    confidence,
		ExecutionTime: 0.2,
		Context: map[string]any{
			"complexity":            2,
			"has_custom_commands":   false,
			"has_api_calls":         false,
			"has_form_interactions": true,
		},
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("seeding case: %v", err)
	}
}

func TestLearn_SynthesizesPattern(t *testing.T) {
	learner, store, mem := setupTestLearner(t, &fakeProvider{})
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Three cases share the NAVIGATE->GET_ELEMENT signature: two
	// high-confidence successes and one failure.
	seedCase(t, mem, "cy.visit('/a')\ncy.get('#a')", "await page.goto('/a');\nawait page.locator('#a');", true, 0.9, base)
	seedCase(t, mem, "cy.visit('/b')\ncy.get('#b')", "await page.goto('/b');\nawait page.locator('#b');\nawait expect(page).toBeTruthy();", true, 0.8, base.Add(time.Second))
	seedCase(t, mem, "cy.visit('/c')\ncy.get('#c')", "", false, 0.2, base.Add(2*time.Second))

	created, err := learner.Learn(ctx)
	if err != nil {
		t.Fatalf("Learn() error: %v", err)
	}
	if created != 1 {
		t.Fatalf("Learn() created %d patterns, want 1", created)
	}

	all, dropped, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if dropped != 0 {
		t.Errorf("List() dropped %d rows, want 0", dropped)
	}
	if len(all) != 1 {
		t.Fatalf("List() returned %d patterns, want 1", len(all))
	}

	p := all[0]
	if p.InputSignature != "NAVIGATE->GET_ELEMENT" {
		t.Errorf("InputSignature = %q", p.InputSignature)
	}
	// The newest successful case drives the output signature.
	if p.OutputSignature != "NAVIGATE->GET_ELEMENT->ASSERTION" {
		t.Errorf("OutputSignature = %q, want from the newest success", p.OutputSignature)
	}
	if math.Abs(p.SuccessRate-2.0/3.0) > 1e-9 {
		t.Errorf("SuccessRate = %f, want %f", p.SuccessRate, 2.0/3.0)
	}
	if math.Abs(p.AvgConfidence-0.85) > 1e-9 {
		t.Errorf("AvgConfidence = %f, want 0.85", p.AvgConfidence)
	}
	if v, ok := p.ContextConditions["has_form_interactions"].(bool); !ok || !v {
		t.Errorf("ContextConditions = %v, want shared has_form_interactions=true", p.ContextConditions)
	}
}

func TestLearn_SkipsKnownSignatures(t *testing.T) {
	learner, _, mem := setupTestLearner(t, &fakeProvider{})
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	seedCase(t, mem, "cy.visit('/a')", "await page.goto('/a');", true, 0.9, base)
	seedCase(t, mem, "cy.visit('/b')", "await page.goto('/b');", true, 0.85, base.Add(time.Second))

	if created, err := learner.Learn(ctx); err != nil || created != 1 {
		t.Fatalf("Learn() = (%d, %v), want (1, nil)", created, err)
	}
	if created, err := learner.Learn(ctx); err != nil || created != 0 {
		t.Errorf("second Learn() = (%d, %v), want (0, nil)", created, err)
	}
}

func TestLearn_RequiresGroupOfHighConfidenceSuccesses(t *testing.T) {
	learner, _, mem := setupTestLearner(t, &fakeProvider{})
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Two successes, but one sits below the confidence bar.
	seedCase(t, mem, "cy.visit('/a')", "await page.goto('/a');", true, 0.9, base)
	seedCase(t, mem, "cy.visit('/b')", "await page.goto('/b');", true, 0.6, base.Add(time.Second))

	created, err := learner.Learn(ctx)
	if err != nil {
		t.Fatalf("Learn() error: %v", err)
	}
	if created != 0 {
		t.Errorf("Learn() created %d patterns, want 0", created)
	}
}

func TestList_SkipsMalformedRows(t *testing.T) {
	_, store, _ := setupTestLearner(t, &fakeProvider{})
	ctx := context.Background()

	if err := store.Insert(ctx, Pattern{ID: "good", InputSignature: "NAVIGATE", SuccessRate: 0.9}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO learned_patterns (id, input_signature, output_signature, success_rate, usage_count, avg_confidence, context_conditions, last_updated)
		VALUES ('bad', 'NAVIGATE', '', 0.9, 0, 0.8, '{broken', '2025-06-01 10:00:00.000000000')`)
	if err != nil {
		t.Fatalf("seeding malformed row: %v", err)
	}

	all, dropped, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(all) != 1 || all[0].ID != "good" {
		t.Errorf("List() = %v, want only the good pattern", all)
	}
}

func TestLooselyEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{2, 2.0, true},
		{int64(3), 3.0, true},
		{true, true, true},
		{true, false, false},
		{"x", "x", true},
		{2, true, false},
	}
	for _, tt := range tests {
		if got := looselyEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("looselyEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
