// Package summarize produces summaries of transcripts through a pluggable
// Provider.
//
// Providers differ in shape. An asynchronous marketplace accepts an
// instance, answers later and takes a reward afterwards; a direct model API
// answers inline and has no reward concept. The Summarizer hides the
// difference: it submits, waits for a result when the instance has none, and
// forwards rewards.
package summarize
