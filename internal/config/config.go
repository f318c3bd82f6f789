package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Resources ResourcesConfig `yaml:"resources"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Storage   StorageConfig   `yaml:"storage"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// ResourcesConfig points at the static grading resources. All three are
// optional at runtime: a missing answer key or topic map degrades to an
// empty mapping, a missing template dir only disables compact attempts.
type ResourcesConfig struct {
	AnswerKeys string `yaml:"answer_keys,omitempty"`
	Topics     string `yaml:"topics,omitempty"`
	QuizzesDir string `yaml:"quizzes_dir,omitempty"`
}

type FeedbackConfig struct {
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	MaxTokens int           `yaml:"max_tokens,omitempty"`
	Language  string        `yaml:"language,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			DefaultProvider: "claude",
			Providers:       make(map[string]ProviderConfig),
		},
		Resources: ResourcesConfig{
			AnswerKeys: "resources/answer_keys.yaml",
			Topics:     "resources/topics.yaml",
			QuizzesDir: "resources/quizzes",
		},
		Feedback: FeedbackConfig{
			Timeout:   15 * time.Second,
			MaxTokens: 512,
			Language:  "English",
		},
	}
}

// Load reads the YAML config at path. A missing file at the default path
// falls back to Default(); an explicitly named path must exist. Provider
// API keys can be supplied via ANTHROPIC_API_KEY, ANTHROPIC_AUTH_TOKEN and
// OPENAI_API_KEY, which override file values.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && (!explicit || path == DefaultPath) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "claude"
	}
	if cfg.Feedback.Timeout <= 0 {
		cfg.Feedback.Timeout = 15 * time.Second
	}
	if cfg.Feedback.MaxTokens <= 0 {
		cfg.Feedback.MaxTokens = 512
	}
	if strings.TrimSpace(cfg.Feedback.Language) == "" {
		cfg.Feedback.Language = "English"
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p
	}
}
