// Package provider defines the base contract shared by swappable backends
// (transcription engines, summarization services) and a registry that
// selects one by name at construction time.
//
//	reg := provider.NewRegistry[summarize.Provider]()
//	reg.RegisterFactory("marketrouter", func() (summarize.Provider, error) { ... })
//	p, err := reg.Create(cfg.Summarizer.Provider)
package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance. Factories close over their typed
// configuration.
type Factory[T Provider] func() (T, error)
