package voicebot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/observability"
	"github.com/kbukum/voicebrief/summarize"
)

// Transcriber produces a transcript from an audio URL. *audio.Transcriber
// satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, fileURL string) (string, error)
}

// Summarizer produces summaries and forwards rewards.
// *summarize.Summarizer satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*summarize.Summary, error)
	Reward(ctx context.Context, conversationID string, amount float64) error
}

// Result is the outcome of processing one voice message.
type Result struct {
	Transcript     string `json:"transcript"`
	Summary        string `json:"summary"`
	SummaryReady   bool   `json:"summary_ready"`
	ConversationID string `json:"conversation_id"`
}

// Processor runs transcription then summarization.
type Processor struct {
	transcriber Transcriber
	summarizer  Summarizer
	log         *logger.Logger
	metrics     *observability.Metrics
}

// NewProcessor creates a Processor. metrics may be nil.
func NewProcessor(t Transcriber, s Summarizer, log *logger.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{
		transcriber: t,
		summarizer:  s,
		log:         log.WithComponent("processor"),
		metrics:     metrics,
	}
}

// Process transcribes the audio at fileURL and summarizes the transcript.
// Errors from either stage are returned unchanged.
func (p *Processor) Process(ctx context.Context, fileURL string) (res *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "voice.process")
	defer func() {
		p.metrics.VoiceProcessed(ctx, res != nil && res.SummaryReady, err)
		observability.EndSpan(span, err)
	}()

	transcript, err := p.transcriber.Transcribe(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	sum, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("conversation_id", sum.ConversationID))

	p.log.Info("Voice message processed", logger.Fields(
		logger.FieldConversationID, sum.ConversationID,
		"transcript_length", len(transcript),
		"summary_length", len(sum.Text),
		"summary_ready", sum.Ready,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return &Result{
		Transcript:     transcript,
		Summary:        sum.Text,
		SummaryReady:   sum.Ready,
		ConversationID: sum.ConversationID,
	}, nil
}

// Tip reports a reward for conversationID. Repeated calls report repeated
// rewards.
func (p *Processor) Tip(ctx context.Context, conversationID string, amount float64) error {
	return p.summarizer.Reward(ctx, conversationID, amount)
}
