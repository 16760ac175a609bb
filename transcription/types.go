package transcription

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	StatusSubmitted  JobStatus = "SUBMITTED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobRequest describes a job to start.
type JobRequest struct {
	// Name must be unique per provider account.
	Name string `json:"name"`
	// MediaURI locates the staged audio, e.g. s3://bucket/audio_<uuid>.ogg.
	MediaURI     string `json:"media_uri"`
	MediaFormat  string `json:"media_format"`
	LanguageCode string `json:"language_code"`
	// MaxSpeakers enables speaker labels when positive.
	MaxSpeakers           int  `json:"max_speakers,omitempty"`
	ChannelIdentification bool `json:"channel_identification,omitempty"`
}

// Job is a provider's view of a transcription job.
type Job struct {
	Name     string    `json:"name"`
	MediaURI string    `json:"media_uri,omitempty"`
	Status   JobStatus `json:"status"`
	// TranscriptURI is set once the job is COMPLETED.
	TranscriptURI string `json:"transcript_uri,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}
