package core

import "time"

// PlaybackState represents the current playback state.
type PlaybackState struct {
	Track      *Track        `json:"track"`
	Device     *Device       `json:"device"`
	ContextURI string        `json:"context_uri"`
	IsPlaying  bool          `json:"is_playing"`
	Progress   time.Duration `json:"progress"`
	Volume     int           `json:"volume"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ItemURI returns the URI of the loaded track, or "".
func (s *PlaybackState) ItemURI() string {
	if !s.HasTrack() {
		return ""
	}
	return s.Track.URI
}

// DeviceID returns the id of the device holding the session, or "".
func (s *PlaybackState) DeviceID() string {
	if s == nil || s.Device == nil {
		return ""
	}
	return s.Device.ID
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Track == nil || s.Track.Duration == 0 {
		return 0
	}
	return float64(s.Progress) / float64(s.Track.Duration) * 100
}
