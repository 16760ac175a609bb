package audio

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/observability"
	"github.com/kbukum/voicebrief/storage"
	"github.com/kbukum/voicebrief/transcription"
)

// Downloader fetches the audio bytes. *httpclient.Client satisfies it.
type Downloader interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Transcriber runs the download, stage, transcribe and cleanup sequence.
type Transcriber struct {
	cfg        Config
	stage      storage.Stage
	runner     *transcription.Runner
	downloader Downloader
	log        *logger.Logger
	metrics    *observability.Metrics
}

// NewTranscriber creates a Transcriber. metrics may be nil.
func NewTranscriber(cfg Config, stage storage.Stage, runner *transcription.Runner, downloader Downloader, log *logger.Logger, metrics *observability.Metrics) *Transcriber {
	cfg.ApplyDefaults()
	return &Transcriber{
		cfg:        cfg,
		stage:      stage,
		runner:     runner,
		downloader: downloader,
		log:        log.WithComponent("audio"),
		metrics:    metrics,
	}
}

// Transcribe returns the transcript of the audio at fileURL.
func (t *Transcriber) Transcribe(ctx context.Context, fileURL string) (text string, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "audio.transcribe", attribute.String("bucket", t.cfg.Bucket))
	defer func() {
		t.metrics.StageDone(ctx, "transcribe", time.Since(start), err)
		observability.EndSpan(span, err)
	}()

	if err := t.stage.EnsureBucket(ctx, t.cfg.Bucket); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	t.log.Debug("Staging bucket ready", logger.Fields(logger.FieldBucket, t.cfg.Bucket))

	data, err := t.downloader.Get(ctx, fileURL)
	if err != nil {
		return "", fmt.Errorf("download: %w", apperrors.Network("audio download", err))
	}

	key := storage.NewObjectKey(t.cfg.KeyPrefix, t.cfg.KeyExt)
	uri, err := t.stage.Upload(ctx, t.cfg.Bucket, key, data)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer t.cleanup(ctx, key)

	log := t.log.WithFields(logger.Fields(logger.FieldObjectKey, key))
	log.Info("Audio staged", logger.Fields("uri", uri, "bytes", len(data)))

	req := transcription.JobRequest{
		Name:                  transcription.NewJobName(t.cfg.JobPrefix),
		MediaURI:              uri,
		MediaFormat:           t.cfg.MediaFormat,
		LanguageCode:          t.cfg.LanguageCode,
		MaxSpeakers:           t.cfg.MaxSpeakers,
		ChannelIdentification: t.cfg.ChannelIdentification,
	}
	span.SetAttributes(attribute.String("job_name", req.Name))

	if _, err := t.runner.Start(ctx, req); err != nil {
		return "", fmt.Errorf("start job: %w", err)
	}
	job, err := t.runner.Wait(ctx, req.Name)
	if err != nil {
		return "", fmt.Errorf("wait for job: %w", err)
	}
	text, err = t.runner.FetchTranscript(ctx, job)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}

	log.Info("Audio transcribed", logger.Fields(
		logger.FieldJobName, req.Name,
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"chars", len(text),
	))
	return text, nil
}

// cleanup deletes the staged object. Failures are logged only.
func (t *Transcriber) cleanup(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := t.stage.Delete(ctx, t.cfg.Bucket, key); err != nil {
		t.log.WithError(err).Warn("Failed to delete staged audio", logger.Fields(
			logger.FieldBucket, t.cfg.Bucket, logger.FieldObjectKey, key))
		return
	}
	t.log.Debug("Staged audio deleted", logger.Fields(logger.FieldObjectKey, key))
}
