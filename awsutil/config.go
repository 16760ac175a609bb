// Package awsutil loads the AWS SDK configuration shared by the S3 stage and
// the Transcribe provider.
package awsutil

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Config holds AWS connection settings. Empty keys fall back to the default
// credential chain (environment, shared profile, instance role).
type Config struct {
	Region       string `yaml:"region" mapstructure:"region" validate:"required"`
	AccessKey    string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey    string `yaml:"secret_key" mapstructure:"secret_key"`
	SessionToken string `yaml:"session_token" mapstructure:"session_token"`
	// Endpoint overrides every service endpoint, e.g. http://localhost:4566
	// for LocalStack. AWS_ENDPOINT_URL is used when empty.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Endpoint == "" {
		c.Endpoint = os.Getenv("AWS_ENDPOINT_URL")
	}
}

// Load builds an aws.Config from cfg.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	cfg.ApplyDefaults()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("awsutil: load config: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg, nil
}
