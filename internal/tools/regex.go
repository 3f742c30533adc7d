package tools

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

// regexRules are direct Cypress→Playwright rewrites applied in order. Longer,
// more specific patterns come first so chained calls are not half-rewritten.
var regexRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`cy\.get\(([^)]+)\)\.should\(\s*'be\.visible'\s*\)`), `await expect(page.locator($1)).toBeVisible()`},
	{regexp.MustCompile(`cy\.get\(([^)]+)\)\.should\(\s*'contain',\s*([^)]+)\)`), `await expect(page.locator($1)).toContainText($2)`},
	{regexp.MustCompile(`cy\.get\(([^)]+)\)\.type\(([^)]+)\)`), `await page.locator($1).fill($2)`},
	{regexp.MustCompile(`cy\.get\(([^)]+)\)\.select\(([^)]+)\)`), `await page.locator($1).selectOption($2)`},
	{regexp.MustCompile(`cy\.get\(([^)]+)\)\.click\(\)`), `await page.locator($1).click()`},
	{regexp.MustCompile(`cy\.get\(([^)]+)\)\.check\(\)`), `await page.locator($1).check()`},
	{regexp.MustCompile(`cy\.visit\(([^)]+)\)`), `await page.goto($1)`},
	{regexp.MustCompile(`cy\.contains\(([^)]+)\)`), `page.getByText($1)`},
}

// RegexMatcher performs pattern-based rewriting. It suits small suites where
// direct substitution covers most of the file; structural suites are better
// left to the oracle with AST guidance.
type RegexMatcher struct{}

func (m *RegexMatcher) Kind() Kind { return KindRegexMatcher }

func (m *RegexMatcher) CanHandle(inputCode string, tctx analyzer.Context) float64 {
	cyLines := 0
	for _, line := range strings.Split(inputCode, "\n") {
		if strings.Contains(line, "cy.") {
			cyLines++
		}
	}

	switch {
	case cyLines < 5 && !strings.Contains(inputCode, "describe("):
		return 0.8
	case cyLines < 10:
		return 0.6
	default:
		return 0.2
	}
}

func (m *RegexMatcher) Execute(inputCode string, tctx analyzer.Context) (*Result, error) {
	converted := inputCode
	replacements := 0

	for _, rule := range regexRules {
		if n := len(rule.pattern.FindAllString(converted, -1)); n > 0 {
			converted = rule.pattern.ReplaceAllString(converted, rule.replacement)
			replacements += n
		}
	}

	return &Result{
		Kind:          KindRegexMatcher,
		Success:       true,
		ConvertedCode: converted,
		Payload: map[string]any{
			"replacements": replacements,
		},
	}, nil
}
