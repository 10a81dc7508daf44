package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// defaultModels maps each provider to a reasonable chat model.
var defaultModels = map[ProviderType]string{
	ProviderGroq:   "llama-3.3-70b-versatile",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

// extractionModels maps each provider to a small model for memory
// extraction, where quality matters less than cost.
var extractionModels = map[ProviderType]string{
	ProviderGroq:   "llama-3.1-8b-instant",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to luma! Let's configure your companion.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select chat provider",
		Items: []string{"groq", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: defaultModels[cfg.Provider],
	}
	cfg.Model, err = modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 4. Data directory.
	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	cfg.DataDir, err = dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Memory extraction.
	extractionPrompt := promptui.Select{
		Label: "Learn about users automatically from conversations",
		Items: []string{"yes", "no"},
	}
	_, extractionStr, err := extractionPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	cfg.Extraction.Enabled = extractionStr == "yes"
	cfg.Extraction.Model = extractionModels[cfg.Provider]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", path)
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" {
		fmt.Printf("Set %s before starting the server.\n", envVar)
	}

	return cfg, nil
}
