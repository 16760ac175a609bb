// Package awstranscribe implements transcription.Provider on Amazon
// Transcribe batch jobs.
package awstranscribe

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/kbukum/voicebrief/awsutil"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/transcription"
)

// Name is the provider name used in configuration and logs.
const Name = "aws-transcribe"

// API is the subset of the Transcribe client the provider uses.
type API interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Provider starts and inspects Transcribe jobs.
type Provider struct {
	api API
}

var _ transcription.Provider = (*Provider)(nil)

// New wraps an existing Transcribe API.
func New(api API) *Provider {
	return &Provider{api: api}
}

// NewFromConfig builds a Transcribe client from cfg.
func NewFromConfig(ctx context.Context, cfg awsutil.Config) (*Provider, error) {
	cfg.ApplyDefaults()
	awsCfg, err := awsutil.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(transcribe.NewFromConfig(awsCfg)), nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) IsAvailable(_ context.Context) bool { return p.api != nil }

// StartJob submits a transcription job for media already staged in S3.
func (p *Provider) StartJob(ctx context.Context, req transcription.JobRequest) (*transcription.Job, error) {
	in := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.Name),
		Media:                &types.Media{MediaFileUri: aws.String(req.MediaURI)},
		MediaFormat:          types.MediaFormat(req.MediaFormat),
		LanguageCode:         types.LanguageCode(req.LanguageCode),
	}
	if settings := jobSettings(req); settings != nil {
		in.Settings = settings
	}

	out, err := p.api.StartTranscriptionJob(ctx, in)
	if err != nil {
		return nil, apperrors.ExternalServiceError(Name, err).WithDetail("job_name", req.Name)
	}
	if out.TranscriptionJob == nil {
		return &transcription.Job{Name: req.Name, MediaURI: req.MediaURI, Status: transcription.StatusSubmitted}, nil
	}
	return toJob(out.TranscriptionJob), nil
}

// GetJob returns the job's current state.
func (p *Provider) GetJob(ctx context.Context, name string) (*transcription.Job, error) {
	out, err := p.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
	})
	if err != nil {
		return nil, apperrors.ExternalServiceError(Name, err).WithDetail("job_name", name)
	}
	if out.TranscriptionJob == nil {
		return nil, apperrors.ProviderProtocol(Name, "response has no TranscriptionJob").WithDetail("job_name", name)
	}
	return toJob(out.TranscriptionJob), nil
}

func jobSettings(req transcription.JobRequest) *types.Settings {
	if req.MaxSpeakers <= 0 && !req.ChannelIdentification {
		return nil
	}
	s := &types.Settings{}
	if req.MaxSpeakers > 0 {
		s.ShowSpeakerLabels = aws.Bool(true)
		s.MaxSpeakerLabels = aws.Int32(int32(req.MaxSpeakers))
	}
	if req.ChannelIdentification {
		s.ChannelIdentification = aws.Bool(true)
	}
	return s
}

func toJob(j *types.TranscriptionJob) *transcription.Job {
	job := &transcription.Job{
		Name:          aws.ToString(j.TranscriptionJobName),
		Status:        toStatus(j.TranscriptionJobStatus),
		FailureReason: aws.ToString(j.FailureReason),
	}
	if j.Media != nil {
		job.MediaURI = aws.ToString(j.Media.MediaFileUri)
	}
	if j.Transcript != nil {
		job.TranscriptURI = aws.ToString(j.Transcript.TranscriptFileUri)
	}
	return job
}

func toStatus(s types.TranscriptionJobStatus) transcription.JobStatus {
	switch s {
	case types.TranscriptionJobStatusCompleted:
		return transcription.StatusCompleted
	case types.TranscriptionJobStatusFailed:
		return transcription.StatusFailed
	case types.TranscriptionJobStatusInProgress:
		return transcription.StatusInProgress
	default:
		return transcription.StatusSubmitted
	}
}
