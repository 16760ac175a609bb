// Package testutil provides an in-memory storage.Stage for tests.
package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/voicebrief/storage"
)

// Stage is an in-memory storage.Stage that records how often each method ran.
// Set the *Err fields to make the matching method fail.
type Stage struct {
	EnsureErr error
	UploadErr error
	DeleteErr error

	mu      sync.Mutex
	buckets map[string]map[string][]byte
	calls   map[string]int
}

var _ storage.Stage = (*Stage)(nil)

// NewStage creates an empty stage.
func NewStage() *Stage {
	return &Stage{
		buckets: make(map[string]map[string][]byte),
		calls:   make(map[string]int),
	}
}

func (s *Stage) EnsureBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["EnsureBucket"]++
	if s.EnsureErr != nil {
		return s.EnsureErr
	}
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}

func (s *Stage) Upload(_ context.Context, bucket, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["Upload"]++
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	s.buckets[bucket][key] = append([]byte(nil), data...)
	return storage.ObjectURI(bucket, key), nil
}

func (s *Stage) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["Delete"]++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.buckets[bucket], key)
	return nil
}

// Calls returns how many times method was invoked.
func (s *Stage) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Object returns the stored bytes for key.
func (s *Stage) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.buckets[bucket][key]
	return data, ok
}

// Len returns the number of objects in bucket.
func (s *Stage) Len(bucket string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets[bucket])
}
