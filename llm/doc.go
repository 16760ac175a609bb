// Package llm provides a chat-completion adapter built on the httpclient/rest
// foundation.
//
// The adapter works with any provider through the Dialect pattern, similar
// to how database/sql works with drivers: the Dialect maps the universal
// request and response types onto the provider's HTTP format, and the
// Adapter handles transport, auth and defaults.
//
//	adapter, err := llm.NewWithDialect(openai.Dialect{}, llm.Config{
//	    BaseURL: "https://api.openai.com/v1",
//	    Model:   "gpt-4o",
//	    APIKey:  key,
//	})
//
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hello!"}},
//	})
package llm
