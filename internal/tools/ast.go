package tools

import (
	"regexp"

	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

var (
	describeRe      = regexp.MustCompile(`describe\(\s*['"]([^'"]*)['"]`)
	testCaseRe      = regexp.MustCompile(`\bit\(\s*['"]([^'"]*)['"]`)
	cyCommandRe     = regexp.MustCompile(`cy\.(\w+)\(`)
	customCommandRe = regexp.MustCompile(`Cypress\.Commands\.add\(\s*['"](\w+)['"]`)
)

// ASTParser extracts the structural shape of a Cypress suite: describe
// blocks, test cases, command usage, and custom command definitions.
type ASTParser struct{}

func (p *ASTParser) Kind() Kind { return KindASTParser }

func (p *ASTParser) CanHandle(inputCode string, tctx analyzer.Context) float64 {
	describes := len(describeRe.FindAllString(inputCode, -1))
	cases := len(testCaseRe.FindAllString(inputCode, -1))

	switch {
	case describes > 2 || cases > 5:
		return 0.9
	case describes > 0:
		return 0.7
	default:
		return 0.3
	}
}

func (p *ASTParser) Execute(inputCode string, tctx analyzer.Context) (*Result, error) {
	describes := submatches(describeRe, inputCode)
	cases := submatches(testCaseRe, inputCode)
	commands := submatches(cyCommandRe, inputCode)
	custom := submatches(customCommandRe, inputCode)

	return &Result{
		Kind:    KindASTParser,
		Success: true,
		Payload: map[string]any{
			"describe_blocks":  describes,
			"test_cases":       cases,
			"cypress_commands": commands,
			"custom_commands":  custom,
			"complexity_score": len(describes)*2 + len(cases),
		},
	}, nil
}

func submatches(re *regexp.Regexp, input string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(input, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}
