package tools

import (
	"strings"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

// SyntaxValidator checks converted output for leftover Cypress calls and
// common Playwright mistakes. It is always eligible: the orchestrator
// guarantees a validator runs at the end of every chain.
type SyntaxValidator struct{}

func (v *SyntaxValidator) Kind() Kind { return KindSyntaxValidator }

func (v *SyntaxValidator) CanHandle(inputCode string, tctx analyzer.Context) float64 {
	return 0.8
}

func (v *SyntaxValidator) Execute(inputCode string, tctx analyzer.Context) (*Result, error) {
	var issues []string

	if strings.Contains(inputCode, "cy.") {
		issues = append(issues, "unconverted Cypress command remains (cy.*)")
	}
	if strings.Contains(inputCode, "await") && !strings.Contains(inputCode, "async") {
		issues = append(issues, "await used without an enclosing async function")
	}
	if strings.Contains(inputCode, "page.locator") && !strings.Contains(inputCode, "await") {
		issues = append(issues, "Playwright locator actions are not awaited")
	}
	if strings.Contains(inputCode, "expect(") && !strings.Contains(inputCode, "@playwright/test") {
		issues = append(issues, "expect used without importing @playwright/test")
	}

	return &Result{
		Kind:    KindSyntaxValidator,
		Success: len(issues) == 0,
		Payload: map[string]any{
			"issues":     issues,
			"checks_run": 4,
		},
	}, nil
}
