package client

import (
	"context"
	"strconv"
)

// PlayOptions is the body of PUT /me/player/play. URIs plays a bare track
// list; ContextURI plays a collection, optionally starting at Offset.
type PlayOptions struct {
	ContextURI string      `json:"context_uri,omitempty"`
	URIs       []string    `json:"uris,omitempty"`
	Offset     *PlayOffset `json:"offset,omitempty"`
	PositionMS int         `json:"position_ms,omitempty"`
}

// PlayOffset selects the track to start at inside a context.
type PlayOffset struct {
	URI string `json:"uri"`
}

type transferRequest struct {
	DeviceIDs []string `json:"device_ids"`
	Play      bool     `json:"play"`
}

// devicePath appends device_id when a device is targeted.
func devicePath(path, deviceID string, params map[string]string) string {
	if deviceID != "" {
		if params == nil {
			params = make(map[string]string, 1)
		}
		params["device_id"] = deviceID
	}
	return BuildURL(path, params)
}

// Play starts playback on deviceID, or the active device when empty.
func (c *Client) Play(ctx context.Context, deviceID string, opts *PlayOptions) error {
	if opts == nil {
		opts = &PlayOptions{}
	}
	return c.Put(ctx, devicePath("/me/player/play", deviceID, nil), opts, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.Put(ctx, devicePath("/me/player/pause", deviceID, nil), nil, nil)
}

// Next skips to the next track in the context.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	return c.Post(ctx, devicePath("/me/player/next", deviceID, nil), nil, nil)
}

// Seek moves the playhead within the loaded track.
func (c *Client) Seek(ctx context.Context, positionMS int, deviceID string) error {
	params := map[string]string{"position_ms": strconv.Itoa(positionMS)}
	return c.Put(ctx, devicePath("/me/player/seek", deviceID, params), nil, nil)
}

// SetVolume sets the device volume, 0-100.
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	params := map[string]string{"volume_percent": strconv.Itoa(percent)}
	return c.Put(ctx, devicePath("/me/player/volume", deviceID, params), nil, nil)
}

// TransferPlayback moves the session to deviceID. With play false the
// session keeps its current play/pause state.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return c.Put(ctx, "/me/player", transferRequest{DeviceIDs: []string{deviceID}, Play: play}, nil)
}
