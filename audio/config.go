package audio

// Config holds staging and job settings for a Transcriber.
type Config struct {
	// Bucket is the staging bucket, created on first use.
	Bucket string `yaml:"bucket" mapstructure:"bucket" validate:"required"`
	// KeyPrefix and KeyExt surround the random part of staged object keys.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
	KeyExt    string `yaml:"key_ext" mapstructure:"key_ext"`
	// JobPrefix starts every transcription job name.
	JobPrefix    string `yaml:"job_prefix" mapstructure:"job_prefix"`
	MediaFormat  string `yaml:"media_format" mapstructure:"media_format"`
	LanguageCode string `yaml:"language_code" mapstructure:"language_code"`
	MaxSpeakers  int    `yaml:"max_speakers" mapstructure:"max_speakers" validate:"gte=0"`
	// ChannelIdentification cannot be combined with speaker labels.
	ChannelIdentification bool `yaml:"channel_identification" mapstructure:"channel_identification" validate:"excluded_with=MaxSpeakers"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Bucket == "" {
		c.Bucket = "audio-transcribe-temp"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "audio_"
	}
	if c.KeyExt == "" {
		c.KeyExt = ".ogg"
	}
	if c.JobPrefix == "" {
		c.JobPrefix = "voice_job"
	}
	if c.MediaFormat == "" {
		c.MediaFormat = "ogg"
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "en-US"
	}
}
