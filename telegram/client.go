package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/httpclient/rest"
	"github.com/kbukum/voicebrief/resilience"
)

const (
	serviceName = "telegram"

	// DefaultBaseURL is the public Bot API host.
	DefaultBaseURL = "https://api.telegram.org"
)

// Config holds Bot API settings.
type Config struct {
	BotToken string        `yaml:"bot_token" mapstructure:"bot_token"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// WebhookURL is registered by the set-webhook command.
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url" validate:"omitempty,url"`
	// WebhookSecret is registered with the webhook and echoed by Telegram
	// in the X-Telegram-Bot-Api-Secret-Token header of every delivery.
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret" validate:"omitempty,max=256"`

	// Retry applies to getFile only. Nil uses httpclient.DefaultRetryConfig.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client calls the Bot API.
type Client struct {
	cfg Config
	// api sends non-idempotent calls; files retries.
	api   *rest.Client
	files *rest.Client
}

// NewClient creates a client for cfg.BotToken.
func NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if cfg.BotToken == "" {
		return nil, apperrors.MissingField("bot_token")
	}
	base := strings.TrimRight(cfg.BaseURL, "/") + "/bot" + cfg.BotToken

	api, err := rest.New(httpclient.Config{BaseURL: base, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	retry := cfg.Retry
	if retry == nil {
		retry = httpclient.DefaultRetryConfig()
	}
	files, err := rest.New(httpclient.Config{BaseURL: base, Timeout: cfg.Timeout, Retry: retry})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, api: api, files: files}, nil
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	if fileID == "" {
		return nil, apperrors.MissingField("file_id")
	}
	resp, err := rest.Get[response[File]](ctx, c.files, "/getFile",
		rest.WithQuery(map[string]string{"file_id": fileID}))
	if err != nil {
		return nil, toAppError("getFile", err)
	}
	if !resp.Data.OK || resp.Data.Result.FilePath == "" {
		return nil, apperrors.ProviderProtocol(serviceName, "failed to get file url: "+describe(resp.Data.Description))
	}
	return &resp.Data.Result, nil
}

// FileURL returns the download URL of a file. The URL embeds the bot token.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/file/bot%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.BotToken, f.FilePath), nil
}

// SendMessage posts a message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	resp, err := rest.Post[response[Message]](ctx, c.api, "/sendMessage", req)
	if err != nil {
		return nil, toAppError("sendMessage", err)
	}
	if !resp.Data.OK {
		return nil, apperrors.ProviderProtocol(serviceName, "sendMessage rejected: "+describe(resp.Data.Description))
	}
	return &resp.Data.Result, nil
}

// AnswerCallbackQuery acknowledges a button press so the client stops its
// loading indicator.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	_, err := rest.Post[response[bool]](ctx, c.api, "/answerCallbackQuery",
		map[string]string{"callback_query_id": callbackID})
	return toAppError("answerCallbackQuery", err)
}

// SetWebhook registers webhookURL for updates.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	if u, err := url.Parse(webhookURL); err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.InvalidInput("webhook_url", "must be an absolute URL")
	}
	body := map[string]string{"url": webhookURL}
	if c.cfg.WebhookSecret != "" {
		body["secret_token"] = c.cfg.WebhookSecret
	}
	resp, err := rest.Post[response[bool]](ctx, c.api, "/setWebhook", body)
	if err != nil {
		return toAppError("setWebhook", err)
	}
	if !resp.Data.OK {
		return apperrors.ProviderProtocol(serviceName, "setWebhook rejected: "+describe(resp.Data.Description))
	}
	return nil
}

// toAppError maps client errors and surfaces the Bot API description of
// rejected calls.
func toAppError(method string, err error) error {
	if err == nil {
		return nil
	}
	mapped := httpclient.ToAppError(serviceName, err)
	var httpErr *httpclient.Error
	if appErr, ok := apperrors.AsAppError(mapped); ok && errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
		var body response[json.RawMessage]
		if json.Unmarshal(httpErr.Body, &body) == nil && body.Description != "" {
			appErr.WithDetail("description", body.Description)
		}
		appErr.WithDetail("method", method)
	}
	return mapped
}

func describe(d string) string {
	if d == "" {
		return "unknown error"
	}
	return d
}
