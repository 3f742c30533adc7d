package tools

import (
	"strings"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

// Strategy suggestions emitted by the pattern analyzer. The first two are
// lifted into Insights and can override the strategy decision table.
const (
	SuggestionAPITesting  = "api_testing_focused"
	SuggestionCustomHeavy = "custom_command_heavy"
	SuggestionInteraction = "interaction_heavy"
	SuggestionAssertion   = "assertion_heavy"
)

// PatternAnalyzer counts interaction, assertion, and network patterns in the
// suite and suggests a conversion focus.
type PatternAnalyzer struct{}

func (a *PatternAnalyzer) Kind() Kind { return KindPatternAnalyzer }

func (a *PatternAnalyzer) CanHandle(inputCode string, tctx analyzer.Context) float64 {
	if strings.Contains(inputCode, "cy.intercept") ||
		strings.Contains(inputCode, "Cypress.Commands.add") ||
		tctx.HasAPICalls || tctx.HasCustomCommands {
		return 0.9
	}
	return 0.4
}

func (a *PatternAnalyzer) Execute(inputCode string, tctx analyzer.Context) (*Result, error) {
	intercepts := strings.Count(inputCode, "cy.intercept")
	custom := strings.Count(inputCode, "Cypress.Commands.add")
	assertions := strings.Count(inputCode, ".should(")
	interactions := strings.Count(inputCode, ".click(") +
		strings.Count(inputCode, ".type(") +
		strings.Count(inputCode, ".select(")

	var suggested string
	switch {
	case intercepts > 0:
		suggested = SuggestionAPITesting
	case custom > 2:
		suggested = SuggestionCustomHeavy
	case interactions > assertions:
		suggested = SuggestionInteraction
	default:
		suggested = SuggestionAssertion
	}

	return &Result{
		Kind:    KindPatternAnalyzer,
		Success: true,
		Payload: map[string]any{
			"api_intercepts":     intercepts,
			"custom_commands":    custom,
			"assertions":         assertions,
			"interactions":       interactions,
			"suggested_strategy": suggested,
		},
	}, nil
}
