// Package config resolves API credentials and endpoint URLs from the
// environment and an optional JSON config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Endpoint defaults for the OpenAI-compatible backends.
const (
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	// Ollama ignores the API key but the client requires one.
	OllamaPlaceholderKey = "ollama"
)

// Config holds per-backend credentials and endpoint overrides.
type Config struct {
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OllamaBaseURL string `mapstructure:"ollama_base_url"`
	GeminiBaseURL string `mapstructure:"gemini_base_url"`
}

// Credentials is the resolved key/endpoint pair for one backend.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// Load reads configPath (JSON, optional) and overlays environment variables.
// Variables are read with the KAWANAN_ prefix first, then the conventional
// provider names (OPENAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("KAWANAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"openai_api_key":    {"KAWANAN_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"gemini_api_key":    {"KAWANAN_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"KAWANAN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
		"openai_base_url":   {"KAWANAN_OPENAI_BASE_URL", "OPENAI_BASE_URL"},
		"ollama_base_url":   {"KAWANAN_OLLAMA_BASE_URL", "OLLAMA_BASE_URL"},
		"gemini_base_url":   {"KAWANAN_GEMINI_BASE_URL"},
	}
	for key, vars := range bindings {
		if err := v.BindEnv(append([]string{key}, vars...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// FromEnv resolves configuration from the environment only.
func FromEnv() (*Config, error) {
	return Load("")
}

// ForMode returns the credentials for the named backend mode. Unknown modes
// yield empty credentials; the caller validates the mode.
func (c *Config) ForMode(mode string) Credentials {
	switch mode {
	case "openai":
		return Credentials{APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL}
	case "ollama":
		baseURL := c.OllamaBaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaBaseURL
		}
		return Credentials{APIKey: OllamaPlaceholderKey, BaseURL: baseURL}
	case "gemini":
		baseURL := c.GeminiBaseURL
		if baseURL == "" {
			baseURL = DefaultGeminiBaseURL
		}
		return Credentials{APIKey: c.GeminiAPIKey, BaseURL: baseURL}
	case "anthropic":
		return Credentials{APIKey: c.AnthropicAPIKey}
	default:
		return Credentials{}
	}
}
