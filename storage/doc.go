// Package storage stages audio in object storage so that a transcription
// service can read it.
//
// A Stage is used for the lifetime of one transcription: the bucket is
// ensured, the audio uploaded under a unique key, and the object deleted
// once the job is terminal. Implementations live in subpackages:
//
//   - storage/s3: Amazon S3 and S3-compatible endpoints
//   - storage/testutil: in-memory stage that records calls
package storage
