package config

// DefaultConfig returns a Config with sensible defaults: Groq for chat
// (fast and cheap for short companion replies), extraction on, recall
// off until an embedding provider is configured.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGroq,
		Model:    "llama-3.3-70b-versatile",
		Port:     8787,
		DataDir:  "data",
		Chat: ChatConfig{
			Temperature:       0.85,
			MaxTokens:         200,
			TimeoutSeconds:    30,
			RequestsPerMinute: 0,
		},
		Extraction: ExtractionConfig{
			Enabled: true,
			Model:   "llama-3.1-8b-instant",
		},
	}
}
