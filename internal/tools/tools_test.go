package tools

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

func TestASTParserExtractsStructure(t *testing.T) {
	input := `Cypress.Commands.add('login', (user) => {});
describe('checkout', () => {
  it('adds an item', () => { cy.visit('/shop'); cy.get('.add').click(); });
  it('pays', () => { cy.get('#card').type('4242'); });
});`

	p := &ASTParser{}
	res, err := p.Execute(input, analyzer.Context{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}

	describes := res.Payload["describe_blocks"].([]string)
	if len(describes) != 1 || describes[0] != "checkout" {
		t.Errorf("describe_blocks = %v, want [checkout]", describes)
	}
	cases := res.Payload["test_cases"].([]string)
	if len(cases) != 2 {
		t.Errorf("test_cases = %v, want 2 entries", cases)
	}
	custom := res.Payload["custom_commands"].([]string)
	if len(custom) != 1 || custom[0] != "login" {
		t.Errorf("custom_commands = %v, want [login]", custom)
	}
	if got := res.Payload["complexity_score"].(int); got != 4 {
		t.Errorf("complexity_score = %d, want 4", got)
	}
}

func TestRegexMatcherRewrites(t *testing.T) {
	input := `cy.visit('/login');
cy.get('#email').type('user@example.com');
cy.get('button.login').click();
cy.get('.error').should('be.visible');`

	m := &RegexMatcher{}
	res, err := m.Execute(input, analyzer.Context{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{
		`await page.goto('/login')`,
		`await page.locator('#email').fill('user@example.com')`,
		`await page.locator('button.login').click()`,
		`await expect(page.locator('.error')).toBeVisible()`,
	}
	for _, w := range want {
		if !strings.Contains(res.ConvertedCode, w) {
			t.Errorf("converted code missing %q:\n%s", w, res.ConvertedCode)
		}
	}
	if got := res.Payload["replacements"].(int); got != 4 {
		t.Errorf("replacements = %d, want 4", got)
	}
}

func TestPatternAnalyzerSuggestions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"intercepts win",
			"cy.intercept('GET', '/api/users').as('users');\ncy.get('#a').click();",
			SuggestionAPITesting,
		},
		{
			"many custom commands",
			strings.Repeat("Cypress.Commands.add('x', () => {});\n", 3),
			SuggestionCustomHeavy,
		},
		{
			"interactions over assertions",
			"cy.get('#a').click();\ncy.get('#b').type('x');",
			SuggestionInteraction,
		},
		{
			"assertion heavy by default",
			"cy.get('#a').should('be.visible');",
			SuggestionAssertion,
		},
	}

	a := &PatternAnalyzer{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Execute(tt.input, analyzer.Context{})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := res.Payload["suggested_strategy"].(string); got != tt.want {
				t.Errorf("suggested_strategy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyntaxValidator(t *testing.T) {
	clean := `import { test, expect } from '@playwright/test';

test('login', async ({ page }) => {
  await page.goto('/login');
  await expect(page.locator('.error')).toBeVisible();
});`

	v := &SyntaxValidator{}
	res, err := v.Execute(clean, analyzer.Context{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Errorf("clean Playwright code flagged: %v", res.Payload["issues"])
	}

	res, _ = v.Execute("cy.get('#a').click();", analyzer.Context{})
	if res.Success {
		t.Error("leftover Cypress call not flagged")
	}
}
