// Package testutil provides a scripted transcription.Provider for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/voicebrief/transcription"
)

// Provider replays Statuses on successive GetJob calls; the last status
// repeats once the script runs out. Completed jobs point at TranscriptURI.
type Provider struct {
	Statuses      []transcription.JobStatus
	TranscriptURI string
	FailureReason string
	StartErr      error
	GetErr        error

	mu       sync.Mutex
	started  []transcription.JobRequest
	getCalls int
}

var _ transcription.Provider = (*Provider)(nil)

func (p *Provider) Name() string                       { return "fake" }
func (p *Provider) IsAvailable(_ context.Context) bool { return true }

func (p *Provider) StartJob(_ context.Context, req transcription.JobRequest) (*transcription.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.StartErr != nil {
		return nil, p.StartErr
	}
	p.started = append(p.started, req)
	return &transcription.Job{Name: req.Name, MediaURI: req.MediaURI, Status: transcription.StatusSubmitted}, nil
}

func (p *Provider) GetJob(_ context.Context, name string) (*transcription.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.GetErr != nil {
		return nil, p.GetErr
	}
	if len(p.Statuses) == 0 {
		return nil, fmt.Errorf("no statuses scripted for %s", name)
	}
	i := p.getCalls
	if i >= len(p.Statuses) {
		i = len(p.Statuses) - 1
	}
	p.getCalls++

	job := &transcription.Job{Name: name, Status: p.Statuses[i]}
	switch job.Status {
	case transcription.StatusCompleted:
		job.TranscriptURI = p.TranscriptURI
	case transcription.StatusFailed:
		job.FailureReason = p.FailureReason
	}
	return job, nil
}

// Started returns the requests passed to StartJob.
func (p *Provider) Started() []transcription.JobRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]transcription.JobRequest(nil), p.started...)
}

// GetCalls returns how many times GetJob ran.
func (p *Provider) GetCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getCalls
}

// Fetcher serves Body for every URL, or Err.
type Fetcher struct {
	Body []byte
	Err  error

	mu   sync.Mutex
	urls []string
}

func (f *Fetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Body, nil
}

// URLs returns the fetched URLs.
func (f *Fetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// TranscriptJSON returns a minimal transcript document containing text.
func TranscriptJSON(text string) []byte {
	return []byte(fmt.Sprintf(`{"jobName":"j","status":"COMPLETED","results":{"transcripts":[{"transcript":%q}],"items":[]}}`, text))
}
