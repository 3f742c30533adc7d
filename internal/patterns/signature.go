// Package patterns learns reusable conversion patterns from past
// cases and matches new inputs against them.
package patterns

import "strings"

// Signature tokens name the test operations we recognize. Signatures
// are stored, so the tokens and their extraction order must stay
// stable.
const (
	tokenNavigate     = "NAVIGATE"
	tokenIntercept    = "INTERCEPT"
	tokenAPIRequest   = "API_REQUEST"
	tokenFindText     = "FIND_TEXT"
	tokenGetElement   = "GET_ELEMENT"
	tokenTypeText     = "TYPE_TEXT"
	tokenClickElement = "CLICK_ELEMENT"
	tokenSelectOption = "SELECT_OPTION"
	tokenAssertion    = "ASSERTION"
)

// signatureMarkers maps source fragments to tokens. Cypress and
// Playwright spellings share tokens so an input signature can be
// compared with an output signature. Per line, the first marker wins:
// a chained `cy.get(...).type(...)` counts as one GET_ELEMENT step.
var signatureMarkers = []struct {
	marker string
	token  string
}{
	{"cy.visit(", tokenNavigate},
	{"page.goto(", tokenNavigate},
	{"cy.intercept(", tokenIntercept},
	{"page.route(", tokenIntercept},
	{"cy.request(", tokenAPIRequest},
	{"request.get(", tokenAPIRequest},
	{"request.post(", tokenAPIRequest},
	{"cy.contains(", tokenFindText},
	{"getByText(", tokenFindText},
	{"cy.get(", tokenGetElement},
	{"page.locator(", tokenGetElement},
	{".selectOption(", tokenSelectOption},
	{".select(", tokenSelectOption},
	{".type(", tokenTypeText},
	{".fill(", tokenTypeText},
	{".click(", tokenClickElement},
	{".should(", tokenAssertion},
	{"expect(", tokenAssertion},
}

// ExtractSignature reduces test code to an ordered token sequence,
// one token per line, joined by "->". Lines without a recognized
// operation contribute nothing. Returns "" when no operation is
// found.
func ExtractSignature(code string) string {
	var tokens []string
	for _, line := range strings.Split(code, "\n") {
		for _, m := range signatureMarkers {
			if strings.Contains(line, m.marker) {
				tokens = append(tokens, m.token)
				break
			}
		}
	}
	return strings.Join(tokens, "->")
}

// tokenSet splits a signature into its unique tokens.
func tokenSet(signature string) map[string]struct{} {
	set := make(map[string]struct{})
	if signature == "" {
		return set
	}
	for _, tok := range strings.Split(signature, "->") {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard computes set overlap between two signatures. Empty
// signatures never match anything.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
