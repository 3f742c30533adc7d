package engine

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/testmorph/internal/knowledge"
	"github.com/ziadkadry99/testmorph/internal/strategy"
)

const conversionSystemPrompt = `You are an expert at migrating Cypress test suites to Playwright. Produce idiomatic Playwright TypeScript using @playwright/test. Return only the converted code.`

// buildConversionPrompt assembles the strategy-specific user prompt,
// optionally enriched with prior successful conversions of similar
// inputs.
func buildConversionPrompt(strat strategy.Strategy, inputCode string, exemplars []knowledge.Exemplar) string {
	var b strings.Builder
	b.WriteString(strategyPrompt(strat, inputCode))
	if len(exemplars) > 0 {
		b.WriteString("\n\nPreviously converted tests with similar structure:\n")
		for _, ex := range exemplars {
			fmt.Fprintf(&b, "\nCypress:\n%s\n\nPlaywright:\n%s\n", ex.InputCode, ex.OutputCode)
		}
		b.WriteString("\nFollow the same conventions where they apply.")
	}
	return b.String()
}

func strategyPrompt(strat strategy.Strategy, code string) string {
	switch strat {
	case strategy.Complex:
		return fmt.Sprintf(complexPrompt, code)
	case strategy.CustomCommands:
		return fmt.Sprintf(customCommandsPrompt, code)
	case strategy.FormHeavy:
		return fmt.Sprintf(formHeavyPrompt, code)
	case strategy.APITesting:
		return fmt.Sprintf(apiTestingPrompt, code)
	default:
		return fmt.Sprintf(simplePrompt, code)
	}
}

const simplePrompt = `Convert this simple Cypress code to Playwright:

%s

Use basic conversions:
- cy.get() → page.locator()
- cy.type() → page.fill()
- cy.click() → page.click()
- Add async/await and proper imports`

const complexPrompt = `Convert this complex Cypress code to Playwright with careful attention to:

%s

Focus on:
- Nested test structures
- Complex selectors
- Multiple assertions
- Proper async/await patterns
- Error handling`

const customCommandsPrompt = `Convert this Cypress code with custom commands to Playwright:

%s

Special handling for:
- Custom cy.* commands → create helper functions
- Maintain command reusability
- Document helper functions
- Preserve custom logic`

const formHeavyPrompt = `Convert this form-heavy Cypress code to Playwright:

%s

Optimize for:
- Form field interactions
- Input validation
- Form submission
- Error state handling
- Accessibility selectors`

const apiTestingPrompt = `Convert this API-testing Cypress code to Playwright:

%s

Handle:
- cy.intercept() → page.route()
- API mocking and responses
- Network conditions
- Response validation
- Async API calls`
