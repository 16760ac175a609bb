package awsutil

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestLoad_StaticCredentialsAndEndpoint(t *testing.T) {
	cfg, err := Load(context.Background(), Config{
		Region:    "eu-central-1",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Endpoint:  "http://localhost:4566",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Region != "eu-central-1" {
		t.Errorf("expected region eu-central-1, got %s", cfg.Region)
	}
	if aws.ToString(cfg.BaseEndpoint) != "http://localhost:4566" {
		t.Errorf("expected endpoint override, got %v", aws.ToString(cfg.BaseEndpoint))
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Errorf("expected static access key, got %s", creds.AccessKeyID)
	}
}

func TestApplyDefaults_EndpointFromEnv(t *testing.T) {
	t.Setenv("AWS_ENDPOINT_URL", "http://localstack:4566")
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Region != DefaultRegion {
		t.Errorf("expected default region, got %s", cfg.Region)
	}
	if cfg.Endpoint != "http://localstack:4566" {
		t.Errorf("expected endpoint from env, got %s", cfg.Endpoint)
	}
}
