// Package httpclient is the outbound HTTP client shared by the provider
// adapters. It applies default headers and authentication, retries
// idempotent requests when configured, and classifies non-2xx responses into
// typed errors that ToAppError maps onto the application taxonomy.
package httpclient
