package app

import (
	"time"

	"github.com/kbukum/voicebrief/audio"
	"github.com/kbukum/voicebrief/awsutil"
	"github.com/kbukum/voicebrief/config"
	"github.com/kbukum/voicebrief/observability"
	"github.com/kbukum/voicebrief/redis"
	"github.com/kbukum/voicebrief/resilience"
	"github.com/kbukum/voicebrief/server"
	"github.com/kbukum/voicebrief/summarize"
	"github.com/kbukum/voicebrief/summarize/direct"
	"github.com/kbukum/voicebrief/summarize/marketrouter"
	"github.com/kbukum/voicebrief/telegram"
	"github.com/kbukum/voicebrief/transcription"
	"github.com/kbukum/voicebrief/transcription/awstranscribe"
	"github.com/kbukum/voicebrief/validation"
	"github.com/kbukum/voicebrief/voicebot"
)

// ServiceName names the config directory and the default log service tag.
const ServiceName = "voicebrief"

// Config is the full service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	AWS           awsutil.Config       `yaml:"aws" mapstructure:"aws"`
	Staging       StagingConfig        `yaml:"staging" mapstructure:"staging"`
	Transcription TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
	Summarizer    SummarizerConfig     `yaml:"summarizer" mapstructure:"summarizer"`
	Telegram      telegram.Config      `yaml:"telegram" mapstructure:"telegram"`
	Bot           voicebot.Config      `yaml:"bot" mapstructure:"bot"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// StagingConfig configures where audio is staged and how jobs are named.
type StagingConfig struct {
	audio.Config `yaml:",inline" mapstructure:",squash"`

	// ContentType is set on staged objects.
	ContentType string `yaml:"content_type" mapstructure:"content_type"`
	// ForcePathStyle forces path-style S3 addressing.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// TranscriptionConfig selects the speech-to-text provider and bounds the
// job poll.
type TranscriptionConfig struct {
	Provider string                `yaml:"provider" mapstructure:"provider" validate:"required"`
	Poll     resilience.PollConfig `yaml:"poll" mapstructure:"poll"`
	// DownloadTimeout bounds each audio and transcript download attempt.
	DownloadTimeout time.Duration `yaml:"download_timeout" mapstructure:"download_timeout"`
}

// SummarizerConfig selects the summarization provider.
type SummarizerConfig struct {
	Provider     string              `yaml:"provider" mapstructure:"provider" validate:"required"`
	Wait         summarize.Config    `yaml:"wait" mapstructure:"wait"`
	MarketRouter marketrouter.Config `yaml:"marketrouter" mapstructure:"marketrouter"`
	OpenAI       direct.Config       `yaml:"openai" mapstructure:"openai"`
}

// ApplyDefaults fills in every zero-valued section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.AWS.ApplyDefaults()
	c.Staging.ApplyDefaults()
	if c.Staging.ContentType == "" {
		c.Staging.ContentType = "audio/ogg"
	}
	c.Transcription.applyDefaults()
	c.Summarizer.applyDefaults()
	c.Telegram.ApplyDefaults()
	c.Bot.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *TranscriptionConfig) applyDefaults() {
	if c.Provider == "" {
		c.Provider = awstranscribe.Name
	}
	def := transcription.DefaultPollConfig()
	if c.Poll.Interval == 0 {
		c.Poll.Interval = def.Interval
	}
	if c.Poll.MaxInterval == 0 {
		c.Poll.MaxInterval = def.MaxInterval
	}
	if c.Poll.BackoffFactor == 0 {
		c.Poll.BackoffFactor = def.BackoffFactor
	}
	if c.Poll.Timeout == 0 {
		c.Poll.Timeout = def.Timeout
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = time.Minute
	}
}

func (c *SummarizerConfig) applyDefaults() {
	if c.Provider == "" {
		c.Provider = marketrouter.Name
	}
	def := summarize.DefaultConfig()
	if c.Wait.Poll.Interval == 0 {
		c.Wait.Poll.Interval = def.Poll.Interval
	}
	if c.Wait.Poll.MaxInterval == 0 {
		c.Wait.Poll.MaxInterval = def.Poll.MaxInterval
	}
	if c.Wait.Poll.BackoffFactor == 0 {
		c.Wait.Poll.BackoffFactor = def.Poll.BackoffFactor
	}
	if c.Wait.Poll.Timeout == 0 {
		c.Wait.Poll.Timeout = def.Poll.Timeout
	}
	c.MarketRouter.ApplyDefaults()
	c.OpenAI.ApplyDefaults()
}

// Validate checks the base fields and every validate tag.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
