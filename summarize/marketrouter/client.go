// Package marketrouter implements summarize.Provider on the MarketRouter
// inference marketplace.
//
// An instance is created with POST /instances. Its answers are read with GET
// /chat/completions/{id} and a reward is reported with PUT
// /instances/{id}/report-reward.
package marketrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/httpclient/rest"
	"github.com/kbukum/voicebrief/summarize"
)

const (
	// Name is the provider name used in configuration and logs.
	Name = "marketrouter"

	// DefaultBaseURL is the public marketplace API.
	DefaultBaseURL = "https://api.marketrouter.ai/v1"

	apiKeyHeader = "x-api-key"
)

// Config holds marketplace settings.
type Config struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
	// Background describes the task to the marketplace.
	Background string `yaml:"background" mapstructure:"background"`
	// PromptPrefix is prepended to the transcript.
	PromptPrefix         string        `yaml:"prompt_prefix" mapstructure:"prompt_prefix"`
	MaxCreditPerInstance float64       `yaml:"max_credit_per_instance" mapstructure:"max_credit_per_instance" validate:"gte=0"`
	InstanceTimeout      int           `yaml:"instance_timeout" mapstructure:"instance_timeout" validate:"gte=0"`
	GenRewardTimeout     int           `yaml:"gen_reward_timeout" mapstructure:"gen_reward_timeout" validate:"gte=0"`
	PercentageReward     float64       `yaml:"percentage_reward" mapstructure:"percentage_reward" validate:"gte=0"`
	Timeout              time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Background == "" {
		c.Background = "Summarize this text"
	}
	if c.PromptPrefix == "" {
		c.PromptPrefix = "Summarize this text: "
	}
	if c.MaxCreditPerInstance == 0 {
		c.MaxCreditPerInstance = 0.01
	}
	if c.InstanceTimeout == 0 {
		c.InstanceTimeout = 5
	}
	if c.GenRewardTimeout == 0 {
		c.GenRewardTimeout = 60
	}
	if c.PercentageReward == 0 {
		c.PercentageReward = 1
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client is a marketplace summarization provider.
type Client struct {
	cfg  Config
	rest *rest.Client
}

var (
	_ summarize.Provider = (*Client)(nil)
	_ summarize.Delayer  = (*Client)(nil)
)

// New creates a client. An empty API key is rejected.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if cfg.APIKey == "" {
		return nil, apperrors.MissingField("api_key")
	}
	rc, err := rest.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.APIKeyAuthHeader(cfg.APIKey, apiKeyHeader),
	})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, rest: rc}, nil
}

func (c *Client) Name() string { return Name }

func (c *Client) IsAvailable(_ context.Context) bool { return c.rest != nil }

// InitialDelay is the instance timeout plus five seconds of slack.
func (c *Client) InitialDelay() time.Duration {
	return time.Duration(c.cfg.InstanceTimeout)*time.Second + 5*time.Second
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type instanceRequest struct {
	Messages             []message `json:"messages"`
	Model                string    `json:"model"`
	Background           string    `json:"background"`
	MaxCreditPerInstance float64   `json:"max_credit_per_instance"`
	InstanceTimeout      int       `json:"instance_timeout"`
	GenRewardTimeout     int       `json:"gen_reward_timeout"`
	PercentageReward     float64   `json:"percentage_reward"`
}

type instanceResponse struct {
	ID string `json:"id"`
}

type rewardRequest struct {
	GenReward float64 `json:"gen_reward"`
}

// Submit creates an instance. The response must carry an id.
func (c *Client) Submit(ctx context.Context, text string) (*summarize.Instance, error) {
	prompt := c.cfg.PromptPrefix + text
	resp, err := rest.Post[instanceResponse](ctx, c.rest, "/instances", instanceRequest{
		Messages:             []message{{Role: "user", Content: prompt}},
		Model:                c.cfg.Model,
		Background:           c.cfg.Background,
		MaxCreditPerInstance: c.cfg.MaxCreditPerInstance,
		InstanceTimeout:      c.cfg.InstanceTimeout,
		GenRewardTimeout:     c.cfg.GenRewardTimeout,
		PercentageReward:     c.cfg.PercentageReward,
	})
	if err != nil {
		return nil, toAppError(err)
	}
	if resp.Data.ID == "" {
		return nil, apperrors.ProviderProtocol(Name, "response does not contain 'id' field")
	}
	return &summarize.Instance{ConversationID: resp.Data.ID, Prompt: prompt}, nil
}

// Fetch returns the content of the last choice of the last item, or nil
// when the body has any other shape. HTTP errors are returned.
func (c *Client) Fetch(ctx context.Context, conversationID string) (*string, error) {
	resp, err := c.rest.HTTP().Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/chat/completions/" + conversationID,
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return latestContent(resp.Body), nil
}

// SubmitReward reports a reward. Two calls send two reports.
func (c *Client) SubmitReward(ctx context.Context, conversationID string, amount float64) error {
	_, err := c.rest.HTTP().Do(ctx, httpclient.Request{
		Method: http.MethodPut,
		Path:   "/instances/" + conversationID + "/report-reward",
		Body:   rewardRequest{GenReward: amount},
	})
	return toAppError(err)
}

type completionItem struct {
	Response *struct {
		Choices []struct {
			Message *struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"response"`
}

func latestContent(body []byte) *string {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return nil
	}
	var last completionItem
	if err := json.Unmarshal(items[len(items)-1], &last); err != nil {
		return nil
	}
	if last.Response == nil || len(last.Response.Choices) == 0 {
		return nil
	}
	msg := last.Response.Choices[len(last.Response.Choices)-1].Message
	if msg == nil || msg.Content == nil {
		return nil
	}
	return msg.Content
}

func toAppError(err error) error {
	return httpclient.ToAppError(Name, err)
}
