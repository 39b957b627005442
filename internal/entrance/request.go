package entrance

import (
	"time"

	"github.com/google/uuid"
)

// Request is one pending entrance song. It is immutable once enqueued.
type Request struct {
	ID     string
	Owner  string
	Device string

	TrackURI string
	Title    string
	Artist   string

	StartOffset time.Duration
	// Duration is how long to play. Zero means play to the end of the track.
	Duration time.Duration
	// TrackLength is the full length of the track, from search.
	TrackLength time.Duration

	EnqueuedAt time.Time
}

// NewRequestID returns a fresh request id.
func NewRequestID() string {
	return uuid.NewString()
}

// Unbounded reports whether the request plays to the end of the track.
func (r Request) Unbounded() bool {
	return r.Duration <= 0
}

// PlayTime is how long the runner waits before checking on the track.
func (r Request) PlayTime() time.Duration {
	if !r.Unbounded() {
		return r.Duration
	}
	if remaining := r.TrackLength - r.StartOffset; remaining > 0 {
		return remaining
	}
	return 0
}
