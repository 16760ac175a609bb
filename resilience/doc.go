// Package resilience provides the waiting and limiting primitives used by the
// voice pipeline:
//   - Poll: repeats a status check until it reports a terminal state, with
//     exponential backoff bounded by an attempt cap and a deadline
//   - Retry: retries idempotent operations with exponential backoff
//   - Bulkhead: caps how many pipelines run at once
//
// All waits honor context cancellation and go through a SleepFunc so tests
// can observe them without sleeping.
package resilience
