package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/kbukum/voicebrief/errors"
)

// Metrics holds the pipeline instruments. A nil *Metrics records nothing.
type Metrics struct {
	voiceProcessed metric.Int64Counter
	stageDuration  metric.Float64Histogram
	pollAttempts   metric.Int64Counter
	rewards        metric.Int64Counter
	errors         metric.Int64Counter
}

// NewMetrics creates the pipeline instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	voiceProcessed, err := meter.Int64Counter("voicebrief.voice.processed",
		metric.WithDescription("Voice messages processed, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating voice.processed counter: %w", err)
	}
	stageDuration, err := meter.Float64Histogram("voicebrief.stage.duration",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating stage.duration histogram: %w", err)
	}
	pollAttempts, err := meter.Int64Counter("voicebrief.poll.attempts",
		metric.WithDescription("Status checks that found work still pending"))
	if err != nil {
		return nil, fmt.Errorf("creating poll.attempts counter: %w", err)
	}
	rewards, err := meter.Int64Counter("voicebrief.rewards",
		metric.WithDescription("Reward reports sent, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating rewards counter: %w", err)
	}
	errorsTotal, err := meter.Int64Counter("voicebrief.errors",
		metric.WithDescription("Pipeline errors by stage and code"))
	if err != nil {
		return nil, fmt.Errorf("creating errors counter: %w", err)
	}

	return &Metrics{
		voiceProcessed: voiceProcessed,
		stageDuration:  stageDuration,
		pollAttempts:   pollAttempts,
		rewards:        rewards,
		errors:         errorsTotal,
	}, nil
}

// StageDone records the duration of a stage and counts its error, if any.
func (m *Metrics) StageDone(ctx context.Context, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", outcome(err)),
	))
	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("code", errorCode(err)),
		))
	}
}

// PollAttempt counts one non-terminal status check.
func (m *Metrics) PollAttempt(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.pollAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// VoiceProcessed counts one finished voice message.
func (m *Metrics) VoiceProcessed(ctx context.Context, summaryReady bool, err error) {
	if m == nil {
		return
	}
	m.voiceProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", outcome(err)),
		attribute.Bool("summary_ready", summaryReady),
	))
}

// RewardReported counts one reward report.
func (m *Metrics) RewardReported(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.rewards.Add(ctx, 1, metric.WithAttributes(attribute.String("status", outcome(err))))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func errorCode(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return "UNKNOWN"
}
