// Package transcription runs asynchronous speech-to-text jobs.
//
// A Provider starts jobs and reports their status. The Runner drives one job
// to completion: it starts the job, polls with bounded exponential backoff
// until the job is COMPLETED or FAILED, and downloads the transcript
// document the provider points at.
//
//	runner := transcription.NewRunner(provider, httpClient, cfg.Poll, log, metrics)
//	text, err := runner.Run(ctx, transcription.JobRequest{Name: name, MediaURI: uri})
package transcription
