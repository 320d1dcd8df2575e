// Package config loads credentials and pipeline settings from environment
// variables and the ~/.designflow config directory. Environment variables
// take precedence over file configuration. Credentials are never persisted
// by this package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	FigmaAccessToken string
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	GoogleAPIKey     string
	DeepSeekAPIKey   string
	Stages           *StagesConfig
	ConfigDir        string
}

// FileConfig represents the structure of ~/.designflow/config.yaml
type FileConfig struct {
	APIKeys APIKeysConfig `yaml:"api_keys"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Figma     string `yaml:"figma"`
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
	DeepSeek  string `yaml:"deepseek"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		FigmaAccessToken: getEnvOrDefault("FIGMA_ACCESS_TOKEN", fileConfig.APIKeys.Figma),
		AnthropicAPIKey:  getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:     getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:     getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		DeepSeekAPIKey:   getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		ConfigDir:        configDir,
	}

	stagesPath := filepath.Join(configDir, "stages.yaml")
	if _, err := os.Stat(stagesPath); err == nil {
		stages, err := LoadStagesConfig(stagesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load stages config: %w", err)
		}
		cfg.Stages = stages
	} else {
		cfg.Stages = DefaultStagesConfig()
	}

	return cfg, nil
}

// LoadWithStagesFile loads config with a specific stages file.
func LoadWithStagesFile(stagesPath string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	stages, err := LoadStagesConfig(stagesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stages config from %s: %w", stagesPath, err)
	}
	cfg.Stages = stages

	return cfg, nil
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".designflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
