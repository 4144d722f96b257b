// ai_config.go holds the AI provider configuration and config file I/O.
//
// Settings are stored in ~/.askdata/config.json. API keys can also be
// set via environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY,
// GEMINI_API_KEY, OLLAMA_HOST).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// AIConfig holds the AI provider selection and credentials.
type AIConfig struct {
	Provider  string          `json:"provider"` // "openai", "anthropic", "gemini", "ollama", "placeholder"
	OpenAI    OpenAIConfig    `json:"openai"`
	Anthropic AnthropicConfig `json:"anthropic"`
	Gemini    GeminiConfig    `json:"gemini"`
	Ollama    OllamaConfig    `json:"ollama"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

// GeminiConfig holds Google Gemini-specific settings.
type GeminiConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `json:"host"`
	Model string `json:"model"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Backend: "sqlite",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "postgres",
				SSLMode:  "disable",
			},
		},
		AI: AIConfig{
			Provider: "placeholder",
			OpenAI: OpenAIConfig{
				Model: "gpt-4o",
			},
			Anthropic: AnthropicConfig{
				Model: "claude-sonnet-4-20250514",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
			Ollama: OllamaConfig{
				Host:  "http://localhost:11434",
				Model: "llama3.2",
			},
		},
		Chat: ChatConfig{
			MaxRows:       5,
			MaxToolDepth:  5,
			ContextWindow: 20,
		},
		Catalog: CatalogConfig{
			Endpoint: "https://data.abudhabi/opendata/apis/search_inner.php",
		},
	}
}

// Load reads ~/.askdata/config.json; returns defaults if not found.
func Load() (*Config, error) {
	cfg := Default()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	path := filepath.Join(homeDir, ".askdata", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file config.
func applyEnv(cfg *Config) {
	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		cfg.AI.OpenAI.APIKey = envKey
	}
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		cfg.AI.Anthropic.APIKey = envKey
	}
	if envKey := os.Getenv("GEMINI_API_KEY"); envKey != "" {
		cfg.AI.Gemini.APIKey = envKey
	}
	if envHost := os.Getenv("OLLAMA_HOST"); envHost != "" {
		cfg.AI.Ollama.Host = envHost
	}
}

// Save writes the config to ~/.askdata/config.json.
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	dir := filepath.Join(homeDir, ".askdata")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}
