package analyzer

import "strings"

// Heuristics computes a Context directly from the input text with no
// external calls. Complexity is derived from line count, the feature flags
// from substring detection, and the test count from it() occurrences.
func Heuristics(inputCode string) Context {
	lines := strings.Split(inputCode, "\n")
	lower := strings.ToLower(inputCode)

	return Context{
		Complexity: clamp(len(lines)/10, 1, 10),
		HasCustomCommands: strings.Contains(inputCode, "Cypress.Commands.add") ||
			(strings.Contains(inputCode, "cy.") && strings.Contains(lower, "custom")),
		HasAPICalls: strings.Contains(inputCode, "intercept") ||
			strings.Contains(inputCode, "request"),
		HasFormInteractions: strings.Contains(inputCode, ".type(") ||
			strings.Contains(inputCode, ".select("),
		TestCount: strings.Count(inputCode, "it("),
	}
}
