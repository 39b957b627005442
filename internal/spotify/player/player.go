package player

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tessro/entrance/internal/core"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/spotify/client"
)

// Invoker runs a remote call after making sure the client's credential is
// current. *auth.Guard satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, fn func(ctx context.Context) error) error
}

type direct struct{}

func (direct) Invoke(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Player implements core.Session for Spotify.
type Player struct {
	client   *client.Client
	guard    Invoker
	deviceID string // Optional: target device ID
}

// New creates a new Spotify player. Every call is routed through guard; a
// nil guard calls the client directly.
func New(c *client.Client, guard Invoker) *Player {
	if guard == nil {
		guard = direct{}
	}
	return &Player{client: c, guard: guard}
}

// SetDevice sets the target device for playback commands.
func (p *Player) SetDevice(deviceID string) {
	p.deviceID = deviceID
}

// Device returns the target device id, or "" for the active device.
func (p *Player) Device() string {
	return p.deviceID
}

// target picks deviceID, falling back to the configured device.
func (p *Player) target(deviceID string) string {
	if deviceID != "" {
		return deviceID
	}
	return p.deviceID
}

// Search returns tracks matching artist and title.
func (p *Player) Search(ctx context.Context, artist, title string, limit int) ([]core.Track, error) {
	var tracks []client.Track
	err := p.guard.Invoke(ctx, func(ctx context.Context) error {
		var err error
		tracks, err = p.client.SearchTracks(ctx, strings.TrimSpace(artist+" "+title), limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]core.Track, 0, len(tracks))
	for i := range tracks {
		result = append(result, *convertTrack(&tracks[i]))
	}
	return result, nil
}

// CurrentPlayback returns the current playback state, or nil when idle.
func (p *Player) CurrentPlayback(ctx context.Context) (*core.PlaybackState, error) {
	var state *client.PlaybackState
	err := p.guard.Invoke(ctx, func(ctx context.Context) error {
		var err error
		state, err = p.client.GetPlaybackState(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return convertState(state), nil
}

// Pause pauses playback on deviceID.
func (p *Player) Pause(ctx context.Context, deviceID string) error {
	return p.guard.Invoke(ctx, func(ctx context.Context) error {
		return classify(p.client.Pause(ctx, p.target(deviceID)))
	})
}

// StartPlayback starts playback of a track list or a context.
func (p *Player) StartPlayback(ctx context.Context, opts core.StartOptions) error {
	deviceID := p.target(opts.DeviceID)

	req := &client.PlayOptions{
		ContextURI: opts.ContextURI,
		URIs:       opts.URIs,
		PositionMS: int(opts.Position / time.Millisecond),
	}
	if opts.OffsetURI != "" {
		req.Offset = &client.PlayOffset{URI: opts.OffsetURI}
	}

	return p.guard.Invoke(ctx, func(ctx context.Context) error {
		err := p.client.Play(ctx, deviceID, req)
		if err != nil && req.ContextURI != "" && req.Offset != nil &&
			(client.IsRestrictionError(err) || client.IsBadRequestError(err)) {
			return fmt.Errorf("%w: %w", entErrors.ErrContextRestoreUnsupported, err)
		}
		return classify(err)
	})
}

// TransferPlayback transfers playback to a different device.
func (p *Player) TransferPlayback(ctx context.Context, deviceID string, force bool) error {
	return p.guard.Invoke(ctx, func(ctx context.Context) error {
		return classify(p.client.TransferPlayback(ctx, deviceID, force))
	})
}

// SetVolume sets the volume (0-100) of deviceID.
func (p *Player) SetVolume(ctx context.Context, deviceID string, percent int) error {
	return p.guard.Invoke(ctx, func(ctx context.Context) error {
		return classify(p.client.SetVolume(ctx, percent, p.target(deviceID)))
	})
}

// ListDevices returns the user's available playback devices.
func (p *Player) ListDevices(ctx context.Context) ([]core.Device, error) {
	var devices []client.Device
	err := p.guard.Invoke(ctx, func(ctx context.Context) error {
		var err error
		devices, err = p.client.GetDevices(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]core.Device, len(devices))
	for i := range devices {
		result[i] = *convertDevice(&devices[i])
	}
	return result, nil
}

// Seek seeks within the track loaded on deviceID.
func (p *Player) Seek(ctx context.Context, deviceID string, position time.Duration) error {
	return p.guard.Invoke(ctx, func(ctx context.Context) error {
		return classify(p.client.Seek(ctx, int(position/time.Millisecond), p.target(deviceID)))
	})
}

// SkipNext skips deviceID to the next track.
func (p *Player) SkipNext(ctx context.Context, deviceID string) error {
	return p.guard.Invoke(ctx, func(ctx context.Context) error {
		return classify(p.client.Next(ctx, p.target(deviceID)))
	})
}

// classify tags Spotify errors the orchestrator reacts to.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if client.IsNoActiveDeviceError(err) {
		return fmt.Errorf("%w: %w", entErrors.ErrNoActiveDevice, err)
	}
	return err
}

func convertState(s *client.PlaybackState) *core.PlaybackState {
	if s == nil {
		return nil
	}

	state := &core.PlaybackState{
		IsPlaying: s.IsPlaying,
		Progress:  time.Duration(s.ProgressMS) * time.Millisecond,
	}
	if s.Device.VolumePercent != nil {
		state.Volume = *s.Device.VolumePercent
	}
	if s.Device.ID != "" {
		state.Device = convertDevice(&s.Device)
	}
	if s.Item != nil {
		state.Track = convertTrack(s.Item)
	}
	if s.Context != nil {
		state.ContextURI = s.Context.URI
	}
	return state
}

// convertTrack converts a Spotify track to a core track. The first
// credited artist is the one shown.
func convertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}
	track := &core.Track{
		URI:         t.URI,
		Title:       t.Name,
		Album:       t.Album.Name,
		Duration:    time.Duration(t.DurationMS) * time.Millisecond,
		TrackNumber: t.TrackNumber,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceTypeUnknown
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone":
		deviceType = core.DeviceTypePhone
	case "Speaker", "AVR", "Automobile":
		deviceType = core.DeviceTypeSpeaker
	case "TV", "CastVideo":
		deviceType = core.DeviceTypeTV
	}

	device := &core.Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         deviceType,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
	}
	if d.VolumePercent != nil {
		device.Volume = *d.VolumePercent
	}
	return device
}

// Ensure Player implements core.Session
var _ core.Session = (*Player)(nil)
