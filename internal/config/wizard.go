package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// cypressMarkers are files or directories whose presence suggests the
// current directory is a Cypress project.
var cypressMarkers = []string{
	"cypress.config.js",
	"cypress.config.ts",
	"cypress.json",
	"cypress",
}

// detectCypressProject checks the current directory for Cypress
// markers.
func detectCypressProject() bool {
	for _, marker := range cypressMarkers {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}
	return false
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .testmorph.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to testmorph! Let's configure your project.")
	fmt.Println()

	if detectCypressProject() {
		fmt.Println("Detected a Cypress project in this directory.")
		fmt.Println()
	}

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"groq", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   — fast & cheap (llama-8b / gpt-4o-mini)",
			"normal — balanced (llama-70b / gpt-4o)",
			"max    — highest quality",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	preset := GetPreset(provider, quality)

	// 3. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for converted Playwright tests",
		Default: "playwright",
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	// 4. Include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Spec file patterns (comma-separated globs)",
		Default: strings.Join(DefaultIncludes, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	include := splitAndTrim(includeStr)

	// 5. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	exclude := DefaultExcludes
	if excludeStr != "" {
		exclude = append(exclude, splitAndTrim(excludeStr)...)
	}

	// Build the config.
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = preset.Model
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.Quality = quality
	cfg.OutputDir = outputDir
	cfg.Include = include
	cfg.Exclude = exclude
	if cfg.EmbeddingProvider != ProviderLocal {
		cfg.EmbeddingModel = preset.EmbeddingModel
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running testmorph convert.\n", envVar)
		}
	}

	// Save to .testmorph.yml.
	if err := cfg.Save(DefaultConfigFile); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultConfigFile)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a
// given LLM provider. Groq has no embeddings API, so it falls back to
// the built-in local embedder.
func embeddingProviderFor(p ProviderType) ProviderType {
	switch p {
	case ProviderOllama:
		return ProviderOllama
	case ProviderOpenAI:
		return ProviderOpenAI
	default:
		return ProviderLocal
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
