// Package audio turns a downloadable audio file into a transcript.
//
// A Transcriber downloads the file, stages it in object storage, runs an
// asynchronous transcription job against the staged copy and returns the
// transcript text. The staged object is removed once per call after a
// successful upload, whatever happens to the job.
package audio
