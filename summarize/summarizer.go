package summarize

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/observability"
	"github.com/kbukum/voicebrief/resilience"
)

// Config controls how long the Summarizer waits for a result.
type Config struct {
	// InitialDelay is waited once after Submit. Zero asks the provider
	// through Delayer.
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	// Poll bounds the Fetch loop that follows.
	Poll resilience.PollConfig `yaml:"poll" mapstructure:"poll"`
}

// DefaultConfig checks every 2s, backing off to 10s, for at most a minute.
func DefaultConfig() Config {
	return Config{
		Poll: resilience.PollConfig{
			Interval:      2 * time.Second,
			MaxInterval:   10 * time.Second,
			BackoffFactor: 1.5,
			Timeout:       time.Minute,
		},
	}
}

// Summarizer drives a Provider.
type Summarizer struct {
	provider Provider
	cfg      Config
	log      *logger.Logger
	metrics  *observability.Metrics
}

// NewSummarizer creates a Summarizer. metrics may be nil.
func NewSummarizer(p Provider, cfg Config, log *logger.Logger, metrics *observability.Metrics) *Summarizer {
	if cfg.InitialDelay == 0 {
		if d, ok := p.(Delayer); ok {
			cfg.InitialDelay = d.InitialDelay()
		}
	}
	return &Summarizer{
		provider: p,
		cfg:      cfg,
		log:      log.WithComponent("summarizer").WithFields(logger.Fields(logger.FieldProvider, p.Name())),
		metrics:  metrics,
	}
}

// Provider returns the selected provider.
func (s *Summarizer) Provider() Provider { return s.provider }

// Summarize submits text and waits for its summary. Running out of time is
// not an error: the summary comes back with Ready false.
func (s *Summarizer) Summarize(ctx context.Context, text string) (sum *Summary, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "summarize", attribute.String("provider", s.provider.Name()))
	defer func() {
		s.metrics.StageDone(ctx, "summarize", time.Since(start), err)
		observability.EndSpan(span, err)
	}()

	inst, err := s.provider.Submit(ctx, text)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logger.Fields(logger.FieldConversationID, inst.ConversationID))
	log.Info("Summary instance submitted")
	span.SetAttributes(attribute.String("conversation_id", inst.ConversationID))

	if inst.Result != nil {
		return &Summary{ConversationID: inst.ConversationID, Text: *inst.Result, Ready: true}, nil
	}

	result, err := s.wait(ctx, inst.ConversationID)
	if err != nil {
		if errors.Is(err, resilience.ErrPollTimeout) {
			log.Warn("No summary available before deadline", logger.Fields(
				logger.FieldDuration, time.Since(start).Milliseconds()))
			return &Summary{ConversationID: inst.ConversationID}, nil
		}
		return nil, err
	}

	log.Info("Summary fetched", logger.Fields(logger.FieldDuration, time.Since(start).Milliseconds()))
	return &Summary{ConversationID: inst.ConversationID, Text: *result, Ready: true}, nil
}

func (s *Summarizer) wait(ctx context.Context, conversationID string) (*string, error) {
	sleep := s.cfg.Poll.Sleep
	if sleep == nil {
		sleep = resilience.SleepContext
	}
	if err := sleep(ctx, s.cfg.InitialDelay); err != nil {
		return nil, err
	}

	cfg := s.cfg.Poll
	cfg.OnWait = func(attempt int, delay time.Duration) {
		s.metrics.PollAttempt(ctx, "summary")
		s.log.Debug("Summary not ready", logger.Fields(
			logger.FieldConversationID, conversationID, logger.FieldAttempt, attempt, "next_check_ms", delay.Milliseconds()))
	}
	return resilience.Poll(ctx, cfg, func(ctx context.Context) (*string, bool, error) {
		result, err := s.provider.Fetch(ctx, conversationID)
		if err != nil {
			return nil, false, err
		}
		return result, result != nil, nil
	})
}

// Reward reports amount against conversationID. Every call sends a report;
// callers that need at-most-once semantics must track it themselves.
func (s *Summarizer) Reward(ctx context.Context, conversationID string, amount float64) (err error) {
	if conversationID == "" {
		return apperrors.MissingField("conversation_id")
	}
	ctx, span := observability.StartSpan(ctx, "summarize.reward", attribute.String("conversation_id", conversationID))
	defer func() {
		s.metrics.RewardReported(ctx, err)
		observability.EndSpan(span, err)
	}()

	if err := s.provider.SubmitReward(ctx, conversationID, amount); err != nil {
		return err
	}
	s.log.Info("Reward submitted", logger.Fields(logger.FieldConversationID, conversationID, "amount", amount))
	return nil
}
