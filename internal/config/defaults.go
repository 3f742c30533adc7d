package config

import "path/filepath"

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	Model          string
	EmbeddingModel string
}

// qualityPresets maps each provider+quality combination to its model
// choices.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderGroq: {
		QualityLite:   {Model: "llama-3.1-8b-instant", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "llama-3.3-70b-versatile", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "llama-3.3-70b-versatile", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small"},
		QualityMax:    {Model: "gpt-4", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
		QualityNormal: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
		QualityMax:    {Model: "llama3:70b", EmbeddingModel: "nomic-embed-text"},
	},
}

// DefaultIncludes are the glob patterns that select Cypress spec
// files.
var DefaultIncludes = []string{
	"**/*.cy.js",
	"**/*.cy.ts",
	"**/*.spec.js",
	"**/*.spec.ts",
}

// DefaultExcludes are glob patterns skipped during spec discovery by
// default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"cypress/fixtures/**",
	"cypress/downloads/**",
	"cypress/screenshots/**",
	"cypress/videos/**",
	"*.min.js",
	"package-lock.json",
	"yarn.lock",
}

// DefaultConfig returns a Config with sensible defaults. The local
// embedding provider keeps a fresh install working without any
// additional API key.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGroq,
		Model:             "llama-3.1-8b-instant",
		EmbeddingProvider: ProviderLocal,
		Quality:           QualityLite,
		DataDir:           ".testmorph",
		OutputDir:         "playwright",
		Include:           DefaultIncludes,
		Exclude:           DefaultExcludes,
		MaxConcurrency:    5,
		Port:              8000,
		AutonomyLevel:     0.8,
		BaseConfidence:    0.85,
		PatternBoost:      0.10,
	}
}

// GetPreset returns the quality preset for the given provider and
// tier. Returns the lite Groq preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderGroq][QualityLite]
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "testmorph.db")
}

// KnowledgeDir is where the vector store persists inside the data
// directory.
func (c *Config) KnowledgeDir() string {
	return filepath.Join(c.DataDir, "knowledge")
}
