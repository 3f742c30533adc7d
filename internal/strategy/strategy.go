// Package strategy selects a conversion strategy from the analyzed
// test context and optional tool insights.
package strategy

import (
	"github.com/ziadkadry99/testmorph/internal/analyzer"
	"github.com/ziadkadry99/testmorph/internal/tools"
)

// Strategy identifies one of the closed set of conversion approaches.
// The string values are stored in the database and returned over the
// API, so they must stay stable.
type Strategy string

const (
	// Simple is the fallback for low-complexity tests.
	Simple Strategy = "simple_conversion"
	// Complex handles tests whose structure needs extra care.
	Complex Strategy = "complex_conversion"
	// CustomCommands targets tests that rely on cy.Commands.add helpers.
	CustomCommands Strategy = "custom_command_focused"
	// FormHeavy targets suites dominated by form interactions.
	FormHeavy Strategy = "form_heavy"
	// APITesting targets tests built around intercepts and requests.
	APITesting Strategy = "api_testing_focused"
)

// All lists every known strategy in priority order.
func All() []Strategy {
	return []Strategy{CustomCommands, APITesting, FormHeavy, Complex, Simple}
}

// Valid reports whether s is one of the known strategies.
func Valid(s Strategy) bool {
	switch s {
	case Simple, Complex, CustomCommands, FormHeavy, APITesting:
		return true
	}
	return false
}

// Select picks the strategy for a conversion. Tool insights take
// precedence: when the orchestrator saw strong API or custom-command
// signals, its suggestion overrides the context rules. Otherwise the
// decision table runs in fixed priority order, so the same context
// always yields the same strategy.
func Select(tctx analyzer.Context, insights *tools.Insights) Strategy {
	if insights != nil {
		switch insights.SuggestedStrategy {
		case tools.SuggestionAPITesting:
			return APITesting
		case tools.SuggestionCustomHeavy:
			return CustomCommands
		}
	}

	switch {
	case tctx.HasCustomCommands:
		return CustomCommands
	case tctx.HasAPICalls && tctx.Complexity > 7:
		return APITesting
	case tctx.HasFormInteractions && tctx.TestCount > 3:
		return FormHeavy
	case tctx.Complexity > 6:
		return Complex
	default:
		return Simple
	}
}
