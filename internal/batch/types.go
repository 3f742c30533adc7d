package batch

import (
	"strings"
	"time"
)

// FileOutcome describes the result of converting a single spec file.
type FileOutcome struct {
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path,omitempty"`
	Strategy   string        `json:"strategy,omitempty"`
	Confidence float64       `json:"confidence"`
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	Error      string        `json:"error,omitempty"`
	Code       string        `json:"-"`
	Duration   time.Duration `json:"duration"`
}

// RunResult summarizes the outcome of a full batch conversion run.
type RunResult struct {
	FilesConverted int
	FilesSkipped   int
	FilesFailed    int
	Duration       time.Duration
	Errors         []error
	Outcomes       []FileOutcome
}

// ProgressFunc is called during batch processing to report progress.
type ProgressFunc func(processed int, total int, currentFile string)

// specSuffixes are stripped from input paths when deriving output names,
// longest first so ".cy.js" wins over ".js".
var specSuffixes = []string{
	".cy.js", ".cy.ts", ".spec.js", ".spec.ts", ".test.js", ".test.ts",
	".js", ".ts",
}

// OutputRelPath maps a Cypress spec path to its Playwright counterpart,
// e.g. cypress/e2e/login.cy.js -> cypress/e2e/login.spec.ts.
func OutputRelPath(relPath string) string {
	for _, suffix := range specSuffixes {
		if strings.HasSuffix(relPath, suffix) {
			return strings.TrimSuffix(relPath, suffix) + ".spec.ts"
		}
	}
	return relPath + ".spec.ts"
}
