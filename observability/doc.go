// Package observability wires OpenTelemetry tracing and metrics for the
// voice pipeline. When telemetry is disabled the global no-op providers stay
// in place, so spans and instruments cost nothing.
package observability
