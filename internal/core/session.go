package core

import (
	"context"
	"time"
)

// Session is the remote playback session the orchestrator drives. There is
// exactly one of these per process; all mutation goes through the entrance
// worker.
//
// Methods taking a deviceID act on that device. An empty deviceID means
// the session's default target.
type Session interface {
	// Search returns tracks matching "artist title", best match first.
	Search(ctx context.Context, artist, title string, limit int) ([]Track, error)

	// CurrentPlayback returns nil when nothing is loaded on any device.
	CurrentPlayback(ctx context.Context) (*PlaybackState, error)

	Pause(ctx context.Context, deviceID string) error
	StartPlayback(ctx context.Context, opts StartOptions) error
	TransferPlayback(ctx context.Context, deviceID string, force bool) error
	SetVolume(ctx context.Context, deviceID string, percent int) error
	ListDevices(ctx context.Context) ([]Device, error)
	Seek(ctx context.Context, deviceID string, position time.Duration) error
	SkipNext(ctx context.Context, deviceID string) error
}

// StartOptions describes what StartPlayback should play. Either URIs or
// ContextURI is set; OffsetURI selects a track inside the context.
type StartOptions struct {
	DeviceID   string
	URIs       []string
	ContextURI string
	OffsetURI  string
	Position   time.Duration
}
