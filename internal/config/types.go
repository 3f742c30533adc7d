package config

// QualityTier controls the model selection and trade-off between
// speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderGroq   ProviderType = "groq"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	// ProviderLocal is the built-in deterministic embedder. Only
	// valid as an embedding provider.
	ProviderLocal ProviderType = "local"
)

// DefaultConfigFile is the conventional config file name.
const DefaultConfigFile = ".testmorph.yml"

// Config is the top-level testmorph configuration, corresponding to
// .testmorph.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	Quality           QualityTier  `yaml:"quality" koanf:"quality"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	OutputDir         string       `yaml:"output_dir" koanf:"output_dir"`
	Include           []string     `yaml:"include" koanf:"include"`
	Exclude           []string     `yaml:"exclude" koanf:"exclude"`
	MaxConcurrency    int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	Port              int          `yaml:"port" koanf:"port"`
	AutonomyLevel     float64      `yaml:"autonomy_level" koanf:"autonomy_level"`
	BaseConfidence    float64      `yaml:"base_confidence" koanf:"base_confidence"`
	PatternBoost      float64      `yaml:"pattern_boost" koanf:"pattern_boost"`
}
