package patterns

import "testing"

func TestExtractSignature_Cypress(t *testing.T) {
	code := `describe('login', () => {
  it('logs in', () => {
    cy.visit('/login')
    cy.get('#user').type('bob')
    cy.get('#pass').type('secret')
    cy.contains('Sign in').click()
    cy.url().should('include', '/dashboard')
  })
})`

	got := ExtractSignature(code)
	want := "NAVIGATE->GET_ELEMENT->GET_ELEMENT->FIND_TEXT->ASSERTION"
	if got != want {
		t.Errorf("ExtractSignature() = %q, want %q", got, want)
	}
}

func TestExtractSignature_Playwright(t *testing.T) {
	code := `test('logs in', async ({ page }) => {
  await page.goto('/login');
  await page.locator('#user').fill('bob');
  await expect(page).toHaveURL(/dashboard/);
});`

	got := ExtractSignature(code)
	want := "NAVIGATE->GET_ELEMENT->ASSERTION"
	if got != want {
		t.Errorf("ExtractSignature() = %q, want %q", got, want)
	}
}

func TestExtractSignature_OneTokenPerLine(t *testing.T) {
	// A chained call counts as a single step.
	got := ExtractSignature(`cy.get('#a').type('x').should('exist')`)
	if got != "GET_ELEMENT" {
		t.Errorf("ExtractSignature() = %q, want %q", got, "GET_ELEMENT")
	}
}

func TestExtractSignature_NoOperations(t *testing.T) {
	if got := ExtractSignature("const total = 1 + 2;"); got != "" {
		t.Errorf("ExtractSignature() = %q, want empty", got)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "NAVIGATE->GET_ELEMENT", "NAVIGATE->GET_ELEMENT", 1.0},
		{"identical different order", "NAVIGATE->GET_ELEMENT", "GET_ELEMENT->NAVIGATE", 1.0},
		{"disjoint", "NAVIGATE", "ASSERTION", 0.0},
		{"half overlap", "NAVIGATE->GET_ELEMENT", "NAVIGATE->ASSERTION", 1.0 / 3.0},
		{"empty left", "", "NAVIGATE", 0.0},
		{"both empty", "", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(tokenSet(tt.a), tokenSet(tt.b))
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("jaccard(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
