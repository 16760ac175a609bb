package llm

// Dialect maps universal types to and from a specific provider's HTTP format.
type Dialect interface {
	// Name returns the dialect identifier (e.g., "openai").
	Name() string

	// ChatPath returns the chat completion path relative to the base URL.
	ChatPath() string

	// HealthPath returns a cheap GET path used by IsAvailable. Empty means
	// the provider has none.
	HealthPath() string

	// BuildRequest maps a CompletionRequest to the provider's JSON body.
	BuildRequest(req CompletionRequest) (any, error)

	// ParseResponse maps the provider's JSON body to a CompletionResponse.
	ParseResponse(body []byte) (*CompletionResponse, error)
}
