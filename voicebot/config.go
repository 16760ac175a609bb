package voicebot

import "time"

// Config controls update handling.
type Config struct {
	// MaxConcurrent caps pipelines running at once.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// QueueTimeout is how long an update waits for a free slot.
	QueueTimeout time.Duration `yaml:"queue_timeout" mapstructure:"queue_timeout"`
	// UpdateTimeout bounds the handling of one update.
	UpdateTimeout time.Duration `yaml:"update_timeout" mapstructure:"update_timeout"`
	// TipAmount is the reward reported per tip.
	TipAmount float64 `yaml:"tip_amount" mapstructure:"tip_amount" validate:"gte=0"`
	// DedupTTL is how long a handled update ID is remembered.
	DedupTTL time.Duration `yaml:"dedup_ttl" mapstructure:"dedup_ttl"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = 30 * time.Second
	}
	if c.UpdateTimeout <= 0 {
		c.UpdateTimeout = 20 * time.Minute
	}
	if c.TipAmount == 0 {
		c.TipAmount = 0.01
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = 24 * time.Hour
	}
}
