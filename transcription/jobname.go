package transcription

import "github.com/oklog/ulid/v2"

// NewJobName returns prefix_<ULID>. ULIDs sort by creation time and carry 80
// random bits, so names stay unique across concurrent requests.
func NewJobName(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}
