package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/httpclient/rest"
)

// ErrNoDialect is returned when an Adapter is created without a dialect.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter is a config-driven chat-completion client. Transport, auth and
// JSON handling come from the REST client; request and response mapping
// come from the Dialect.
type Adapter struct {
	rest      *rest.Client
	dialect   Dialect
	model     string
	temp      float64
	maxTokens int
}

// NewWithDialect creates an adapter for the given dialect.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	cfg.applyDefaults()

	client, err := rest.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    cfg.Auth,
		Headers: cfg.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create rest client: %w", err)
	}

	return &Adapter{
		rest:      client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the dialect name.
func (a *Adapter) Name() string { return a.dialect.Name() }

// IsAvailable calls the dialect's health path. Without one the adapter is
// assumed reachable.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := rest.Get[json.RawMessage](ctx, a.rest, hp)
	return err == nil
}

// Execute sends a completion request and returns the full response.
// Transport and status errors are returned as *httpclient.Error.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}

	resp, err := rest.Post[json.RawMessage](ctx, a.rest, a.dialect.ChatPath(), body)
	if err != nil {
		return nil, fmt.Errorf("llm: execute: %w", err)
	}

	result, err := a.dialect.ParseResponse(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("llm: parse response: %w", err)
	}
	return result, nil
}

// Complete sends a system and user prompt and returns the text response.
func (a *Adapter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.Execute(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
