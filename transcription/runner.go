package transcription

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/observability"
	"github.com/kbukum/voicebrief/resilience"
)

// Fetcher downloads a transcript document. *httpclient.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// DefaultPollConfig polls every 5s at first, backing off to 30s, and gives up
// after 15 minutes.
func DefaultPollConfig() resilience.PollConfig {
	return resilience.PollConfig{
		Interval:      5 * time.Second,
		MaxInterval:   30 * time.Second,
		BackoffFactor: 1.5,
		Timeout:       15 * time.Minute,
	}
}

// Runner drives a single job from submission to transcript.
type Runner struct {
	provider Provider
	fetcher  Fetcher
	poll     resilience.PollConfig
	log      *logger.Logger
	metrics  *observability.Metrics
}

// NewRunner creates a Runner. metrics may be nil.
func NewRunner(p Provider, fetcher Fetcher, poll resilience.PollConfig, log *logger.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		provider: p,
		fetcher:  fetcher,
		poll:     poll,
		log:      log.WithComponent("transcription").WithFields(logger.Fields(logger.FieldProvider, p.Name())),
		metrics:  metrics,
	}
}

// Run starts the job, waits for it and returns the transcript text.
func (r *Runner) Run(ctx context.Context, req JobRequest) (string, error) {
	if _, err := r.Start(ctx, req); err != nil {
		return "", err
	}
	job, err := r.Wait(ctx, req.Name)
	if err != nil {
		return "", err
	}
	return r.FetchTranscript(ctx, job)
}

// Start submits the job.
func (r *Runner) Start(ctx context.Context, req JobRequest) (*Job, error) {
	if req.Name == "" {
		return nil, apperrors.MissingField("name")
	}
	if req.MediaURI == "" {
		return nil, apperrors.MissingField("media_uri")
	}
	job, err := r.provider.StartJob(ctx, req)
	if err != nil {
		return nil, err
	}
	r.log.Info("Transcription job started", logger.Fields(logger.FieldJobName, req.Name, "media_uri", req.MediaURI))
	return job, nil
}

// Wait polls the job until it is terminal. A FAILED job yields a
// JOB_FAILED error; exhausting the poll budget yields TIMEOUT.
func (r *Runner) Wait(ctx context.Context, name string) (*Job, error) {
	start := time.Now()
	cfg := r.poll
	onWait := cfg.OnWait
	cfg.OnWait = func(attempt int, delay time.Duration) {
		r.metrics.PollAttempt(ctx, "transcription")
		r.log.Debug("Transcription job not finished", logger.Fields(
			logger.FieldJobName, name, logger.FieldAttempt, attempt, "next_check_ms", delay.Milliseconds()))
		if onWait != nil {
			onWait(attempt, delay)
		}
	}

	job, err := resilience.Poll(ctx, cfg, func(ctx context.Context) (*Job, bool, error) {
		job, err := r.provider.GetJob(ctx, name)
		if err != nil {
			return nil, false, err
		}
		return job, job.Status.Terminal(), nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrPollTimeout) {
			return nil, apperrors.Timeout("transcription job").WithDetail(logger.FieldJobName, name).WithCause(err)
		}
		return nil, err
	}

	fields := logger.Fields(logger.FieldJobName, name, logger.FieldStatus, string(job.Status))
	fields[logger.FieldDuration] = time.Since(start).Milliseconds()
	if job.Status == StatusFailed {
		r.log.Warn("Transcription job failed", fields)
		return job, apperrors.JobFailed(name, job.FailureReason)
	}
	r.log.Info("Transcription job completed", fields)
	return job, nil
}

// FetchTranscript downloads and parses the transcript of a completed job.
func (r *Runner) FetchTranscript(ctx context.Context, job *Job) (string, error) {
	if job.TranscriptURI == "" {
		return "", apperrors.ProviderProtocol(r.provider.Name(), "completed job has no transcript uri").
			WithDetail(logger.FieldJobName, job.Name)
	}
	body, err := r.fetcher.Get(ctx, job.TranscriptURI)
	if err != nil {
		return "", httpclient.ToAppError("transcript download", err)
	}
	return ParseTranscript(body)
}
