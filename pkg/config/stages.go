package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// StagesConfig holds per-stage model routing plus the retry and timeout
// knobs for external calls.
type StagesConfig struct {
	Default            StageTarget            `yaml:"default"`
	Stages             map[string]StageTarget `yaml:"stages,omitempty"`
	Retry              RetryConfig            `yaml:"retry,omitempty"`
	CallTimeoutSeconds int                    `yaml:"call_timeout_seconds,omitempty"`
}

// StageTarget specifies the adapter, model, and token budget for a stage.
type StageTarget struct {
	Adapter   string `yaml:"adapter"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens,omitempty"`
}

// RetryConfig defines retry and backoff behavior for transient failures.
type RetryConfig struct {
	MaxRetries    int `yaml:"max_retries,omitempty"`
	BaseBackoffMs int `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs  int `yaml:"max_backoff_ms,omitempty"`
}

// LoadStagesConfig reads stage configuration from a YAML file.
func LoadStagesConfig(path string) (*StagesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg StagesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyStageDefaults(&cfg)
	return &cfg, nil
}

// DefaultStagesConfig returns the default stage configuration: every stage
// on Claude Sonnet with per-stage token budgets.
func DefaultStagesConfig() *StagesConfig {
	cfg := &StagesConfig{
		Default: StageTarget{
			Adapter: "anthropic",
			Model:   "claude-sonnet-4-20250514",
		},
		Stages: map[string]StageTarget{
			"designer":  {MaxTokens: 4096},
			"architect": {MaxTokens: 8192},
			"coder":     {MaxTokens: 16384},
			"reviewer":  {MaxTokens: 4096},
		},
	}
	applyStageDefaults(cfg)
	return cfg
}

// Target resolves the effective adapter/model/budget for a stage name.
func (c *StagesConfig) Target(stage string) StageTarget {
	target := c.Default
	if override, ok := c.Stages[stage]; ok {
		if override.Adapter != "" {
			target.Adapter = override.Adapter
		}
		if override.Model != "" {
			target.Model = override.Model
		}
		if override.MaxTokens > 0 {
			target.MaxTokens = override.MaxTokens
		}
	}
	return target
}

func applyStageDefaults(cfg *StagesConfig) {
	if cfg.Default.Adapter == "" {
		cfg.Default.Adapter = "anthropic"
	}
	if cfg.Default.Model == "" {
		cfg.Default.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 2
	}
	if cfg.Retry.BaseBackoffMs == 0 {
		cfg.Retry.BaseBackoffMs = 200
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = 2000
	}
	if cfg.CallTimeoutSeconds == 0 {
		cfg.CallTimeoutSeconds = 300
	}
}
