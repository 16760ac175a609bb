package transcription

import (
	"context"

	"github.com/kbukum/voicebrief/provider"
)

// Provider is the interface that asynchronous transcription backends implement.
type Provider interface {
	provider.Provider

	// StartJob submits a job and returns its initial state.
	StartJob(ctx context.Context, req JobRequest) (*Job, error)
	// GetJob returns the current state of a job.
	GetJob(ctx context.Context, name string) (*Job, error)
}

// NewRegistry creates a registry for transcription providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
