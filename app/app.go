package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/voicebrief/audio"
	"github.com/kbukum/voicebrief/component"
	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/observability"
	"github.com/kbukum/voicebrief/redis"
	"github.com/kbukum/voicebrief/server"
	"github.com/kbukum/voicebrief/storage/s3"
	"github.com/kbukum/voicebrief/summarize"
	"github.com/kbukum/voicebrief/summarize/direct"
	"github.com/kbukum/voicebrief/summarize/marketrouter"
	"github.com/kbukum/voicebrief/telegram"
	"github.com/kbukum/voicebrief/transcription"
	"github.com/kbukum/voicebrief/transcription/awstranscribe"
	"github.com/kbukum/voicebrief/voicebot"
)

const stopTimeout = 30 * time.Second

// App is the wired service.
type App struct {
	Config     *Config
	Log        *logger.Logger
	Telemetry  *observability.Telemetry
	Processor  *voicebot.Processor
	Telegram   *telegram.Client
	Updates    voicebot.UpdateLog
	Bot        *voicebot.Bot
	Server     *server.Server
	Components *component.Registry
}

// Build constructs the full service from cfg. cfg must have defaults
// applied and be valid.
func Build(ctx context.Context, cfg *Config, log *logger.Logger) (*App, error) {
	tel, err := NewTelemetry(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*App, error) {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	processor, err := NewProcessor(ctx, cfg, log, tel.Metrics)
	if err != nil {
		return fail(err)
	}
	tg, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return fail(fmt.Errorf("telegram: %w", err))
	}

	components := component.NewRegistry(log)
	if err := components.Register(tel); err != nil {
		return fail(err)
	}
	updates, err := NewUpdateLog(cfg, log, components)
	if err != nil {
		return fail(err)
	}

	bot := voicebot.NewBot(cfg.Bot, processor, tg, log, voicebot.WithUpdateLog(updates))
	srv := server.New(cfg.Server, log)
	for _, c := range []component.Component{bot, srv} {
		if err := components.Register(c); err != nil {
			return fail(err)
		}
	}
	srv.RegisterRoutes(server.Routes{
		ServiceName:   cfg.Name,
		Dispatcher:    bot,
		Health:        components.HealthAll,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})

	return &App{
		Config:     cfg,
		Log:        log,
		Telemetry:  tel,
		Processor:  processor,
		Telegram:   tg,
		Updates:    updates,
		Bot:        bot,
		Server:     srv,
		Components: components,
	}, nil
}

// Run starts every component and blocks until ctx is done, then stops them
// in reverse order: the server stops taking updates, the bot drains, Redis
// closes and telemetry flushes last.
func (a *App) Run(ctx context.Context) error {
	if err := a.Components.StartAll(ctx); err != nil {
		return errors.Join(err, a.stop())
	}
	a.Log.Info("Service started", logger.Fields("addr", a.Server.Addr()))

	<-ctx.Done()
	a.Log.Info("Shutting down")
	return a.stop()
}

func (a *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.Components.StopAll(ctx)
}

// NewUpdateLog returns a Redis-backed update log when Redis is enabled,
// registering its client with components, and an in-process one otherwise.
func NewUpdateLog(cfg *Config, log *logger.Logger, components *component.Registry) (voicebot.UpdateLog, error) {
	if !cfg.Redis.Enabled {
		return voicebot.NewMemoryUpdateLog(cfg.Bot.DedupTTL), nil
	}
	client, err := redis.New(cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	if err := components.Register(redis.NewComponent(client)); err != nil {
		return nil, errors.Join(err, client.Close())
	}
	return redis.NewUpdateLog(client, cfg.Bot.DedupTTL), nil
}

// NewTelemetry installs exporters per cfg.Observability.
func NewTelemetry(ctx context.Context, cfg *Config, log *logger.Logger) (*observability.Telemetry, error) {
	return observability.Setup(ctx, cfg.Observability, observability.Resource{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	}, log)
}

// NewProcessor wires the transcription and summarization pipeline.
func NewProcessor(ctx context.Context, cfg *Config, log *logger.Logger, metrics *observability.Metrics) (*voicebot.Processor, error) {
	transcriber, err := NewTranscriber(ctx, cfg, log, metrics)
	if err != nil {
		return nil, err
	}
	summarizer, err := NewSummarizer(cfg.Summarizer, log, metrics)
	if err != nil {
		return nil, err
	}
	return voicebot.NewProcessor(transcriber, summarizer, log, metrics), nil
}

// NewTranscriber wires the S3 stage, the selected transcription provider
// and the download clients into an audio.Transcriber.
func NewTranscriber(ctx context.Context, cfg *Config, log *logger.Logger, metrics *observability.Metrics) (*audio.Transcriber, error) {
	stage, err := s3.NewFromConfig(ctx, s3.Config{
		AWS:            cfg.AWS,
		ContentType:    cfg.Staging.ContentType,
		ForcePathStyle: cfg.Staging.ForcePathStyle,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("staging: %w", err)
	}

	reg := transcription.NewRegistry()
	reg.RegisterFactory(awstranscribe.Name, func() (transcription.Provider, error) {
		return awstranscribe.NewFromConfig(ctx, cfg.AWS)
	})
	p, err := reg.Create(cfg.Transcription.Provider)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	// Telegram file links and transcript URIs are plain GETs, safe to retry.
	downloads, err := httpclient.New(httpclient.Config{
		Timeout: cfg.Transcription.DownloadTimeout,
		Retry:   httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, err
	}

	runner := transcription.NewRunner(p, downloads, cfg.Transcription.Poll, log, metrics)
	return audio.NewTranscriber(cfg.Staging.Config, stage, runner, downloads, log, metrics), nil
}

// NewSummarizer selects the configured summarization provider.
func NewSummarizer(cfg SummarizerConfig, log *logger.Logger, metrics *observability.Metrics) (*summarize.Summarizer, error) {
	reg := summarize.NewRegistry()
	reg.RegisterFactory(marketrouter.Name, func() (summarize.Provider, error) {
		return marketrouter.New(cfg.MarketRouter)
	})
	reg.RegisterFactory(direct.Name, func() (summarize.Provider, error) {
		return direct.New(cfg.OpenAI)
	})

	p, err := reg.Create(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}
	log.Info("Summarizer selected", logger.Fields(logger.FieldProvider, p.Name()))
	return summarize.NewSummarizer(p, cfg.Wait, log, metrics), nil
}
