package walker

import "strings"

// Dialect values reported for discovered spec files.
const (
	DialectCypress    = "cypress"
	DialectPlaywright = "playwright"
	DialectUnknown    = "unknown"
)

// cypressMarkers are substrings that identify Cypress test code. The cy.*
// entries include the opening paren so that identifiers which merely end
// in "cy." do not trigger a match.
var cypressMarkers = []string{
	"Cypress.Commands.add",
	"Cypress.config",
	"Cypress.env",
	"cy.visit(",
	"cy.get(",
	"cy.contains(",
	"cy.intercept(",
	"cy.request(",
	"cy.wait(",
	"cy.fixture(",
	"cy.wrap(",
	"cy.url(",
	"cy.session(",
	"from 'cypress'",
	`from "cypress"`,
	"require('cypress')",
	`require("cypress")`,
}

// playwrightMarkers are substrings that identify Playwright test code.
var playwrightMarkers = []string{
	"@playwright/test",
	"page.goto(",
	"page.locator(",
	"page.getByRole(",
	"page.getByText(",
	"page.getByLabel(",
	"page.getByTestId(",
	"expect(page",
	"test.describe(",
	"playwright.config",
}

// DetectDialect classifies test code by its framework. Files containing
// any Cypress marker are reported as Cypress even when Playwright markers
// are also present, since a partially migrated spec still needs converting.
func DetectDialect(content string) string {
	for _, marker := range cypressMarkers {
		if strings.Contains(content, marker) {
			return DialectCypress
		}
	}
	for _, marker := range playwrightMarkers {
		if strings.Contains(content, marker) {
			return DialectPlaywright
		}
	}
	return DialectUnknown
}
