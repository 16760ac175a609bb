package summarize

import (
	"context"
	"time"

	"github.com/kbukum/voicebrief/provider"
)

// Provider is the interface summarization backends implement.
type Provider interface {
	provider.Provider

	// Submit creates an instance for text. The conversation id comes from
	// the backend. Backends that answer inline fill Instance.Result.
	Submit(ctx context.Context, text string) (*Instance, error)
	// Fetch returns the latest summary for the conversation, or nil when
	// none is available yet.
	Fetch(ctx context.Context, conversationID string) (*string, error)
	// SubmitReward reports a reward. Calls are not deduplicated.
	SubmitReward(ctx context.Context, conversationID string, amount float64) error
}

// Delayer is implemented by providers that know how long an instance needs
// before a first Fetch is worthwhile.
type Delayer interface {
	InitialDelay() time.Duration
}

// Instance is a submitted summarization request.
type Instance struct {
	ConversationID string  `json:"conversation_id"`
	Prompt         string  `json:"prompt"`
	Result         *string `json:"result,omitempty"`
}

// Summary is the outcome of Summarize. Ready is false when no summary
// arrived before the deadline; ConversationID is set either way.
type Summary struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	Ready          bool   `json:"ready"`
}

// NewRegistry creates a registry for summarization providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
