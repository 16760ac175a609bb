package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Stage is a transient object store for audio awaiting transcription.
type Stage interface {
	// EnsureBucket creates the bucket if it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error
	// Upload writes data under key and returns the object URI.
	Upload(ctx context.Context, bucket, key string, data []byte) (string, error)
	// Delete removes the object.
	Delete(ctx context.Context, bucket, key string) error
}

// ObjectURI returns the s3:// URI of an object.
func ObjectURI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// NewObjectKey returns prefix + random UUID + ext, e.g. audio_<uuid>.ogg.
func NewObjectKey(prefix, ext string) string {
	return prefix + uuid.NewString() + ext
}
