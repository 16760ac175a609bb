// Package s3 implements storage.Stage on Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/voicebrief/awsutil"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/storage"
)

// API is the subset of the S3 client the stage uses.
type API interface {
	HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *awss3.CreateBucketInput, optFns ...func(*awss3.Options)) (*awss3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// Config holds S3 stage settings.
type Config struct {
	AWS awsutil.Config `yaml:"aws" mapstructure:"aws"`
	// ContentType is set on uploaded objects.
	ContentType string `yaml:"content_type" mapstructure:"content_type"`
	// ForcePathStyle forces path-style addressing. Implied by a custom endpoint.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// Stage implements storage.Stage using S3.
type Stage struct {
	api         API
	region      string
	contentType string
	log         *logger.Logger
}

var _ storage.Stage = (*Stage)(nil)

// New creates a stage around an existing S3 API.
func New(api API, region, contentType string, log *logger.Logger) *Stage {
	return &Stage{api: api, region: region, contentType: contentType, log: log.WithComponent("s3-stage")}
}

// NewFromConfig builds an S3 client from cfg and wraps it in a stage.
func NewFromConfig(ctx context.Context, cfg Config, log *logger.Logger) (*Stage, error) {
	cfg.AWS.ApplyDefaults()
	awsCfg, err := awsutil.Load(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	pathStyle := cfg.ForcePathStyle || cfg.AWS.Endpoint != ""
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = pathStyle
	})
	return New(client, cfg.AWS.Region, cfg.ContentType, log), nil
}

// EnsureBucket checks the bucket and creates it when HeadBucket reports it
// missing. Any other HeadBucket error is returned.
func (s *Stage) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := s.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return apperrors.ExternalServiceError("s3", err).WithDetail("bucket", bucket)
	}

	in := &awss3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if s.region != "" && s.region != awsutil.DefaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.api.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return apperrors.ExternalServiceError("s3", err).WithDetail("bucket", bucket)
	}
	s.log.Info("Created staging bucket", logger.Fields(logger.FieldBucket, bucket, "region", s.region))
	return nil
}

// Upload writes data under key and returns its s3:// URI.
func (s *Stage) Upload(ctx context.Context, bucket, key string, data []byte) (string, error) {
	in := &awss3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.contentType != "" {
		in.ContentType = aws.String(s.contentType)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return "", apperrors.ExternalServiceError("s3", err).WithDetail(logger.FieldObjectKey, key)
	}
	return storage.ObjectURI(bucket, key), nil
}

// Delete removes the object.
func (s *Stage) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.ExternalServiceError("s3", err).WithDetail(logger.FieldObjectKey, key)
	}
	return nil
}

// isNotFound reports whether a HeadBucket error means the bucket is absent.
// HeadBucket has no body, so a bare 404 is as good as a typed NotFound.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound
}
