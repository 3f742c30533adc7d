package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/testmorph/internal/oracle"
)

// Analyzer derives a Context profile from raw Cypress source. The primary
// path asks the generation oracle for a structured profile; if the oracle
// fails or replies with something unparseable, local heuristics take over.
type Analyzer struct {
	provider oracle.Provider
	model    string
}

// New creates a context analyzer. A nil provider skips the oracle path and
// always uses heuristics.
func New(provider oracle.Provider, model string) *Analyzer {
	return &Analyzer{provider: provider, model: model}
}

// Analyze produces the Context for the given input. It never fails: any
// oracle or parse error falls back to text heuristics.
func (a *Analyzer) Analyze(ctx context.Context, inputCode string) Context {
	if a.provider == nil {
		return Heuristics(inputCode)
	}

	resp, err := a.provider.Complete(ctx, oracle.CompletionRequest{
		Model: a.model,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: profileSystemPrompt},
			{Role: oracle.RoleUser, Content: buildProfilePrompt(inputCode)},
		},
		MaxTokens:   512,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return Heuristics(inputCode)
	}

	profile, err := parseProfileResponse(resp.Content)
	if err != nil {
		return Heuristics(inputCode)
	}

	return profile
}

const profileSystemPrompt = `You are a test code analyzer. Examine the Cypress test code and respond with valid JSON matching this schema:
{
  "complexity": <integer 1-10>,
  "has_custom_commands": <bool, true if the suite defines or relies on custom cy commands>,
  "has_api_calls": <bool, true if the suite intercepts or issues network requests>,
  "has_form_interactions": <bool, true if the suite types into or selects form fields>,
  "test_count": <number of it() blocks>
}
Respond with the JSON object only.`

func buildProfilePrompt(inputCode string) string {
	var b strings.Builder
	b.WriteString("Analyze this Cypress test file:\n\n```javascript\n")
	b.WriteString(inputCode)
	b.WriteString("\n```\n")
	return b.String()
}

// parseProfileResponse extracts a Context from the oracle reply. The reply
// may be wrapped in markdown fences or prose, so the parser looks for the
// outermost JSON object.
func parseProfileResponse(content string) (Context, error) {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var profile Context
	if err := json.Unmarshal([]byte(jsonStr), &profile); err != nil {
		return Context{}, fmt.Errorf("parsing profile response: %w", err)
	}

	profile.Complexity = clamp(profile.Complexity, 1, 10)
	if profile.TestCount < 0 {
		profile.TestCount = 0
	}
	return profile, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
