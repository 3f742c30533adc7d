package walker

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// testdataDir returns the absolute path to the testdata/cypress_project directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	// Navigate from internal/walker to project root.
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	walkerDir := filepath.Dir(filename)
	root := filepath.Join(walkerDir, "..", "..", "testdata", "cypress_project")
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		t.Fatalf("testdata dir does not exist: %s", abs)
	}
	return abs
}

func TestWalk_BasicTraversal(t *testing.T) {
	dir := testdataDir(t)

	files, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(files) == 0 {
		t.Fatal("Walk() returned no files")
	}

	// We expect at least the specs, the support file, and the config.
	expectedFiles := map[string]bool{
		"cypress.config.js":           false,
		"cypress/e2e/login.cy.js":     false,
		"cypress/e2e/checkout.cy.ts":  false,
		"cypress/support/commands.js": false,
		"tests/home.spec.ts":          false,
	}

	for _, f := range files {
		if _, ok := expectedFiles[f.RelPath]; ok {
			expectedFiles[f.RelPath] = true
		}
	}

	for name, found := range expectedFiles {
		if !found {
			t.Errorf("expected file %q not found in walk results", name)
		}
	}
}

func TestWalk_FileInfoFields(t *testing.T) {
	dir := testdataDir(t)

	files, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if f.Path == "" {
			t.Error("FileInfo.Path is empty")
		}
		if f.RelPath == "" {
			t.Error("FileInfo.RelPath is empty")
		}
		if f.Size <= 0 {
			t.Errorf("FileInfo.Size for %s is %d, expected > 0", f.RelPath, f.Size)
		}
		if f.Dialect == "" {
			t.Errorf("FileInfo.Dialect for %s is empty", f.RelPath)
		}
		if f.ContentHash == "" {
			t.Errorf("FileInfo.ContentHash for %s is empty", f.RelPath)
		}
		if len(f.ContentHash) != 64 {
			t.Errorf("FileInfo.ContentHash for %s has length %d, expected 64", f.RelPath, len(f.ContentHash))
		}
	}
}

func TestWalk_IncludeFilter(t *testing.T) {
	dir := testdataDir(t)

	files, err := Walk(WalkerConfig{
		RootDir: dir,
		Include: []string{"*.cy.js", "*.cy.ts"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if !strings.HasSuffix(f.RelPath, ".cy.js") && !strings.HasSuffix(f.RelPath, ".cy.ts") {
			t.Errorf("include filter *.cy.* let through: %s", f.RelPath)
		}
	}

	if len(files) < 2 {
		t.Errorf("expected at least 2 spec files, got %d", len(files))
	}
}

func TestWalk_ExcludeFilter(t *testing.T) {
	dir := testdataDir(t)

	files, err := Walk(WalkerConfig{
		RootDir: dir,
		Exclude: []string{"*.spec.ts"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if strings.HasSuffix(f.RelPath, ".spec.ts") {
			t.Errorf("exclude filter *.spec.ts did not exclude: %s", f.RelPath)
		}
	}
}

func TestWalk_DoubleStarInclude(t *testing.T) {
	dir := testdataDir(t)

	files, err := Walk(WalkerConfig{
		RootDir: dir,
		Include: []string{"**/*.cy.js"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	foundNested := false
	for _, f := range files {
		if strings.Contains(f.RelPath, "/") {
			foundNested = true
		}
		if !strings.HasSuffix(f.RelPath, ".cy.js") {
			t.Errorf("include filter **/*.cy.js let through: %s", f.RelPath)
		}
	}

	if !foundNested {
		t.Error("expected **/*.cy.js to match nested spec files")
	}
}

func TestWalk_SkipsBinaryFiles(t *testing.T) {
	// Create a temp dir with a binary file.
	tmpDir := t.TempDir()

	// Write a text file.
	os.WriteFile(filepath.Join(tmpDir, "smoke.cy.js"), []byte("cy.visit('/');"), 0644)

	// Write a binary file (contains NUL bytes).
	binary := make([]byte, 100)
	binary[50] = 0x00
	os.WriteFile(filepath.Join(tmpDir, "recording.mp4"), binary, 0644)

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if f.RelPath == "recording.mp4" {
			t.Error("binary file recording.mp4 should have been skipped")
		}
	}

	if len(files) != 1 {
		t.Errorf("expected 1 file (smoke.cy.js), got %d", len(files))
	}
}

func TestWalk_SkipsLargeFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Write a small file.
	os.WriteFile(filepath.Join(tmpDir, "small.cy.js"), []byte("cy.visit('/');"), 0644)

	// Write a file that exceeds our small limit.
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'A'
	}
	os.WriteFile(filepath.Join(tmpDir, "big.cy.js"), big, 0644)

	files, err := Walk(WalkerConfig{
		RootDir:     tmpDir,
		MaxFileSize: 100, // 100 bytes
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if f.RelPath == "big.cy.js" {
			t.Error("big.cy.js should have been skipped (exceeds MaxFileSize)")
		}
	}
}

func TestWalk_DefaultExcludeDirs(t *testing.T) {
	tmpDir := t.TempDir()

	// Create directories that should be excluded.
	for _, dir := range []string{"node_modules", ".git", "playwright-report", "test-results"} {
		dirPath := filepath.Join(tmpDir, dir)
		os.MkdirAll(dirPath, 0755)
		os.WriteFile(filepath.Join(dirPath, "file.cy.js"), []byte("cy.visit('/');"), 0644)
	}

	// Create a normal file.
	os.WriteFile(filepath.Join(tmpDir, "app.cy.js"), []byte("cy.visit('/');"), 0644)

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(files) != 1 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.RelPath
		}
		t.Errorf("expected 1 file, got %d: %v", len(files), names)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()

	// Create .gitignore.
	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.log\nlocal.cy.js\n"), 0644)

	// Create files.
	os.WriteFile(filepath.Join(tmpDir, "smoke.cy.js"), []byte("cy.visit('/');"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "debug.log"), []byte("log data"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "local.cy.js"), []byte("cy.visit('/local');"), 0644)

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	relPaths := make([]string, len(files))
	for i, f := range files {
		relPaths[i] = f.RelPath
	}
	sort.Strings(relPaths)

	// .gitignore itself and smoke.cy.js should remain; the others should be ignored.
	for _, excluded := range []string{"debug.log", "local.cy.js"} {
		for _, rp := range relPaths {
			if rp == excluded {
				t.Errorf("file %q should be excluded by .gitignore", excluded)
			}
		}
	}

	foundSmoke := false
	for _, rp := range relPaths {
		if rp == "smoke.cy.js" {
			foundSmoke = true
		}
	}
	if !foundSmoke {
		t.Error("smoke.cy.js should not be excluded")
	}
}

func TestWalk_ContentHashConsistency(t *testing.T) {
	dir := testdataDir(t)

	files1, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	files2, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	hash1 := make(map[string]string)
	for _, f := range files1 {
		hash1[f.RelPath] = f.ContentHash
	}

	for _, f := range files2 {
		if h, ok := hash1[f.RelPath]; ok {
			if h != f.ContentHash {
				t.Errorf("content hash mismatch for %s: %s vs %s", f.RelPath, h, f.ContentHash)
			}
		}
	}
}

// --- Dialect detection tests ---

func TestDetectDialect_Cypress(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"visit", "describe('home', () => { it('loads', () => { cy.visit('/'); }); });"},
		{"get and type", "cy.get('#email').type('user@example.com');"},
		{"custom command", "Cypress.Commands.add('login', () => {});"},
		{"intercept", "cy.intercept('GET', '/api/users', { fixture: 'users.json' });"},
		{"config require", "const { defineConfig } = require('cypress');"},
		{"config import", "import { defineConfig } from 'cypress';"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectDialect(tc.content)
			if got != DialectCypress {
				t.Errorf("DetectDialect() = %q, want %q", got, DialectCypress)
			}
		})
	}
}

func TestDetectDialect_Playwright(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"import", "import { test, expect } from '@playwright/test';"},
		{"goto", "await page.goto('/login');"},
		{"locator", "await page.locator('.banner').click();"},
		{"getByRole", "await page.getByRole('button', { name: 'Submit' }).click();"},
		{"describe", "test.describe('checkout', () => {});"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectDialect(tc.content)
			if got != DialectPlaywright {
				t.Errorf("DetectDialect() = %q, want %q", got, DialectPlaywright)
			}
		})
	}
}

func TestDetectDialect_Unknown(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain js", "export function add(a, b) { return a + b; }"},
		{"empty", ""},
		{"identifier containing cy", "const legacy = fancy.mode;"},
		{"package json", `{"devDependencies": {"cypress": "^13.7.0"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectDialect(tc.content)
			if got != DialectUnknown {
				t.Errorf("DetectDialect() = %q, want %q", got, DialectUnknown)
			}
		})
	}
}

func TestDetectDialect_MixedPrefersCypress(t *testing.T) {
	// A half-migrated spec still needs converting.
	content := `import { test } from '@playwright/test';
await page.goto('/');
cy.get('#legacy').click();`

	got := DetectDialect(content)
	if got != DialectCypress {
		t.Errorf("DetectDialect(mixed) = %q, want %q", got, DialectCypress)
	}
}

// --- Filter tests ---

func TestMatchesInclude_Empty(t *testing.T) {
	if !MatchesInclude("anything.cy.js", nil) {
		t.Error("empty include patterns should include everything")
	}
}

func TestMatchesInclude_Pattern(t *testing.T) {
	if !MatchesInclude("login.cy.js", []string{"*.cy.js"}) {
		t.Error("*.cy.js should match login.cy.js")
	}
	if MatchesInclude("utils.js", []string{"*.cy.js"}) {
		t.Error("*.cy.js should not match utils.js")
	}
}

func TestMatchesExclude_Empty(t *testing.T) {
	if MatchesExclude("anything.cy.js", nil) {
		t.Error("empty exclude patterns should exclude nothing")
	}
}

func TestMatchesExclude_Pattern(t *testing.T) {
	if !MatchesExclude("debug.log", []string{"*.log"}) {
		t.Error("*.log should match debug.log")
	}
	if MatchesExclude("login.cy.js", []string{"*.log"}) {
		t.Error("*.log should not match login.cy.js")
	}
}

func TestMatchesInclude_DoubleStarPattern(t *testing.T) {
	if !MatchesInclude("cypress/e2e/auth/login.cy.js", []string{"**/*.cy.js"}) {
		t.Error("**/*.cy.js should match cypress/e2e/auth/login.cy.js")
	}
}

func TestWalk_DialectDetectionInResults(t *testing.T) {
	dir := testdataDir(t)

	files, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	expected := map[string]string{
		"cypress.config.js":           DialectCypress,
		"cypress/e2e/login.cy.js":     DialectCypress,
		"cypress/e2e/checkout.cy.ts":  DialectCypress,
		"cypress/support/commands.js": DialectCypress,
		"tests/home.spec.ts":          DialectPlaywright,
		"src/utils.js":                DialectUnknown,
		"package.json":                DialectUnknown,
	}

	found := make(map[string]string)
	for _, f := range files {
		found[f.RelPath] = f.Dialect
	}

	for path, wantDialect := range expected {
		gotDialect, ok := found[path]
		if !ok {
			t.Errorf("file %q not found in results", path)
			continue
		}
		if gotDialect != wantDialect {
			t.Errorf("dialect for %q: got %q, want %q", path, gotDialect, wantDialect)
		}
	}
}
