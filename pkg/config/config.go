// Package config loads the YAML file describing which back ends the
// adapters talk to and how each one is parameterized.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/obyrne/llmbridge/pkg/template"
)

// ProviderType selects which adapter a provider entry is wired to.
type ProviderType string

const (
	TypeChat        ProviderType = "chat"
	TypeCompletion  ProviderType = "completion"
	TypeLocalChat   ProviderType = "local-chat"
	TypeLocalStream ProviderType = "local-stream"
)

// Config holds the top-level configuration.
type Config struct {
	DefaultProvider string                    `yaml:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds configuration for a single back end.
type ProviderConfig struct {
	Type         ProviderType `yaml:"type"`
	Model        string       `yaml:"model"`
	Temperature  *float64     `yaml:"temperature"`
	BaseURL      string       `yaml:"base_url"`
	APIKeyEnv    string       `yaml:"api_key_env"`
	Template     string       `yaml:"template"`
	HumanTag     string       `yaml:"human_tag"`
	AssistantTag string       `yaml:"assistant_tag"`
	FewShotFile  string       `yaml:"few_shot_file"`
}

// Default returns a Config covering the four adapter types.
func Default() *Config {
	return &Config{
		DefaultProvider: "openai",
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:      TypeChat,
				Model:     "gpt-3.5-turbo",
				APIKeyEnv: "OPENAI_API_KEY",
			},
			"anthropic": {
				Type:         TypeCompletion,
				Model:        "claude-2",
				APIKeyEnv:    "ANTHROPIC_API_KEY",
				HumanTag:     "\n\nHuman:",
				AssistantTag: "\n\nAssistant:",
			},
			"local": {
				Type:     TypeLocalChat,
				Model:    "mistral",
				BaseURL:  "http://localhost:8000/v1/chat/completions",
				Template: "mistral",
			},
			"local-stream": {
				Type:  TypeLocalStream,
				Model: "mistral",
			},
		},
	}
}

// Load reads and parses a YAML config file at the given path.
// It returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from the given path. If the file does not exist,
// it returns the default configuration. Other errors (e.g. parse failures)
// are still returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// ResolveAPIKey reads the API key for the named provider from the
// environment variable that provider names. Providers without an
// api_key_env, such as local back ends, resolve to an empty key.
func (c *Config) ResolveAPIKey(providerName string) (string, error) {
	p, ok := c.Providers[providerName]
	if !ok {
		return "", fmt.Errorf("provider %q not found in config", providerName)
	}
	if p.APIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s for provider %q is not set", p.APIKeyEnv, providerName)
	}
	return key, nil
}

// Validate checks the config for required fields and returns a descriptive
// error if any are missing or invalid.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("at least one provider is required"))
	}
	if c.DefaultProvider != "" {
		if _, ok := c.Providers[c.DefaultProvider]; !ok {
			errs = append(errs, fmt.Errorf("default_provider %q not found in providers", c.DefaultProvider))
		}
	}

	for name, p := range c.Providers {
		if p.Model == "" {
			errs = append(errs, fmt.Errorf("provider %q: model is required", name))
		}

		switch p.Type {
		case TypeChat:
		case TypeCompletion:
			if p.HumanTag == "" || p.AssistantTag == "" {
				errs = append(errs, fmt.Errorf("provider %q: human_tag and assistant_tag are required for completion providers", name))
			}
		case TypeLocalChat:
			if p.BaseURL == "" {
				errs = append(errs, fmt.Errorf("provider %q: base_url is required for local-chat providers", name))
			}
			if p.Template == "" {
				errs = append(errs, fmt.Errorf("provider %q: template is required for local-chat providers", name))
			} else if _, err := template.Lookup(p.Template); err != nil {
				errs = append(errs, fmt.Errorf("provider %q: %w", name, err))
			}
		case TypeLocalStream:
		default:
			errs = append(errs, fmt.Errorf("provider %q: unknown type %q", name, p.Type))
		}
	}

	return errors.Join(errs...)
}
