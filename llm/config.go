package llm

import (
	"time"

	"github.com/kbukum/voicebrief/httpclient"
)

// Config holds configuration for an Adapter.
type Config struct {
	// BaseURL is the provider's API base URL (e.g., "https://api.openai.com/v1").
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Model is the default model (e.g., "gpt-4o").
	Model string `yaml:"model" mapstructure:"model"`

	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens is the default response limit. 0 means provider default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout for HTTP requests. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// APIKey is sent as a bearer token when Auth is nil.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Auth overrides the bearer token auth.
	Auth *httpclient.AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Auth == nil && c.APIKey != "" {
		c.Auth = httpclient.BearerAuth(c.APIKey)
	}
}
