package config

// ProviderType identifies a chat completion provider.
type ProviderType string

const (
	ProviderGroq   ProviderType = "groq"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// ChatConfig holds the parameters for the single upstream completion
// issued per exchange.
type ChatConfig struct {
	Temperature    float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens      int     `yaml:"max_tokens" koanf:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	// RequestsPerMinute caps upstream calls; 0 disables the limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// EmbeddingConfig holds the memory recall embedding settings. An empty
// provider disables semantic recall.
type EmbeddingConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
}

// ExtractionConfig controls post-exchange memory extraction.
type ExtractionConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Model   string `yaml:"model" koanf:"model"`
}

// Config is the top-level companion configuration, corresponding to .luma.yml.
type Config struct {
	Provider   ProviderType     `yaml:"provider" koanf:"provider"`
	Model      string           `yaml:"model" koanf:"model"`
	Port       int              `yaml:"port" koanf:"port"`
	DataDir    string           `yaml:"data_dir" koanf:"data_dir"`
	GatewayURL string           `yaml:"gateway_url" koanf:"gateway_url"`
	Chat       ChatConfig       `yaml:"chat" koanf:"chat"`
	Embedding  EmbeddingConfig  `yaml:"embedding" koanf:"embedding"`
	Extraction ExtractionConfig `yaml:"extraction" koanf:"extraction"`
}
