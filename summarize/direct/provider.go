// Package direct implements summarize.Provider with one synchronous chat
// completion against an OpenAI-compatible API.
package direct

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/llm"
	"github.com/kbukum/voicebrief/llm/openai"
	"github.com/kbukum/voicebrief/summarize"
)

// Name is the provider name used in configuration and logs.
const Name = "openai"

// Config holds direct provider settings.
type Config struct {
	LLM llm.Config `yaml:"llm" mapstructure:"llm"`
	// PromptPrefix is prepended to the transcript.
	PromptPrefix string `yaml:"prompt_prefix" mapstructure:"prompt_prefix"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = openai.DefaultBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 150
	}
	if c.PromptPrefix == "" {
		c.PromptPrefix = "Summarize this text: "
	}
}

// Provider answers inline. It has no asynchronous fetch and no rewards.
type Provider struct {
	adapter *llm.Adapter
	prefix  string
}

var _ summarize.Provider = (*Provider)(nil)

// New creates a provider on the OpenAI dialect.
func New(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	if cfg.LLM.APIKey == "" && cfg.LLM.Auth == nil {
		return nil, apperrors.MissingField("api_key")
	}
	adapter, err := llm.NewWithDialect(openai.Dialect{}, cfg.LLM)
	if err != nil {
		return nil, err
	}
	return &Provider{adapter: adapter, prefix: cfg.PromptPrefix}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) IsAvailable(ctx context.Context) bool { return p.adapter.IsAvailable(ctx) }

// Submit runs the completion. The completion id is the conversation id.
func (p *Provider) Submit(ctx context.Context, text string) (*summarize.Instance, error) {
	prompt := p.prefix + text
	resp, err := p.adapter.Execute(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		var httpErr *httpclient.Error
		if errors.As(err, &httpErr) {
			return nil, httpclient.ToAppError(Name, err)
		}
		return nil, apperrors.ProviderProtocol(Name, "unexpected completion response").WithCause(err)
	}
	if resp.ID == "" {
		return nil, apperrors.ProviderProtocol(Name, "completion has no id")
	}
	content := resp.Content
	return &summarize.Instance{ConversationID: resp.ID, Prompt: prompt, Result: &content}, nil
}

// Fetch is not supported: results are returned by Submit.
func (p *Provider) Fetch(_ context.Context, _ string) (*string, error) {
	return nil, apperrors.Unsupported("fetching summaries from " + Name)
}

// SubmitReward is not supported.
func (p *Provider) SubmitReward(_ context.Context, _ string, _ float64) error {
	return apperrors.Unsupported("rewards on " + Name)
}
