// Package errors defines the application error type shared by every stage of
// the voice pipeline.
//
// An AppError carries a machine-readable code, a user-facing message, a
// retryable hint and optional details. Stage failures are expressed with the
// constructors in this package so callers can branch on the code:
//
//	if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeJobFailed {
//		// transcription job ended in FAILED
//	}
package errors
