// Package server exposes the bot over HTTP: a Gin engine carrying the
// Telegram webhook, a health report of the registered components, and a
// version endpoint, wrapped in the middleware chain from server/middleware.
package server
