package transcription

import (
	"encoding/json"

	apperrors "github.com/kbukum/voicebrief/errors"
)

// Document is the transcript file a completed job produces.
type Document struct {
	JobName string `json:"jobName"`
	Status  string `json:"status"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// ParseTranscript extracts results.transcripts[0].transcript.
func ParseTranscript(body []byte) (string, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", apperrors.ProviderProtocol("transcript", "document is not valid JSON").WithCause(err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", apperrors.ProviderProtocol("transcript", "results.transcripts is empty")
	}
	return doc.Results.Transcripts[0].Transcript, nil
}
