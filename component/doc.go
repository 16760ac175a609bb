// Package component defines the lifecycle contract of long-running parts of
// the service (HTTP server, bot dispatcher, telemetry exporters) and a
// registry that starts them in order and stops them in reverse.
package component
