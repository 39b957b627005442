package entrance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tessro/entrance/internal/core"
	entErrors "github.com/tessro/entrance/internal/errors"
)

// manualClock never blocks; Sleep advances Now.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	// onSleep runs after each Sleep, outside the lock.
	onSleep func(d time.Duration)
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return nil
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *manualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

var errNoDevice = fmt.Errorf("%w: spotify 404", entErrors.ErrNoActiveDevice)

// fakeSession is an in-memory Spotify session.
type fakeSession struct {
	mu sync.Mutex

	loaded     bool
	playing    bool
	contextURI string
	itemURI    string
	trackNum   int
	progress   time.Duration
	volume     int
	deviceID   string

	// defaultDevice is where calls with no device id go. Empty means the
	// device holding the session.
	defaultDevice string
	// otherVolumes holds volumes written to devices not holding the session.
	otherVolumes map[string]int

	// contextTracks lists the tracks of contextURI in order.
	contextTracks []string
	// rejectOffset makes StartPlayback with a context and offset fail.
	rejectOffset error

	pauseErr   error
	currentErr error
	searchHits []core.Track

	calls   []string
	volumes []int
	// targets records "<op> <device>" for every device-scoped call.
	targets []string
}

// target resolves deviceID and records which device op went to. It
// reports whether that device holds the session.
func (s *fakeSession) target(op, deviceID string) bool {
	if deviceID == "" {
		deviceID = s.defaultDevice
	}
	if deviceID == "" {
		deviceID = s.deviceID
	}
	s.targets = append(s.targets, op+" "+deviceID)
	return deviceID == s.deviceID
}

func (s *fakeSession) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.targets...)
}

func (s *fakeSession) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) Volumes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.volumes...)
}

func (s *fakeSession) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeSession) Search(_ context.Context, artist, title string, limit int) ([]core.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("search %s %s %d", artist, title, limit)
	return s.searchHits, nil
}

func (s *fakeSession) CurrentPlayback(context.Context) (*core.PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentErr != nil {
		err := s.currentErr
		s.currentErr = nil
		return nil, err
	}
	if !s.loaded {
		return nil, nil
	}
	return &core.PlaybackState{
		IsPlaying:  s.playing,
		ContextURI: s.contextURI,
		Track:      &core.Track{URI: s.itemURI, TrackNumber: s.trackNum},
		Device:     &core.Device{ID: s.deviceID},
		Progress:   s.progress,
		Volume:     s.volume,
	}, nil
}

func (s *fakeSession) Pause(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("pause")
	active := s.target("pause", deviceID)
	if s.pauseErr != nil {
		return s.pauseErr
	}
	if !s.loaded {
		return errNoDevice
	}
	if active {
		s.playing = false
	}
	return nil
}

func (s *fakeSession) StartPlayback(_ context.Context, opts core.StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(opts.URIs) > 0 {
		s.record("start uris=%s pos=%v", strings.Join(opts.URIs, ","), opts.Position)
		s.contextURI = ""
		s.itemURI = opts.URIs[0]
		s.trackNum = 1
	} else {
		s.record("start context=%s offset=%s pos=%v", opts.ContextURI, opts.OffsetURI, opts.Position)
		if opts.OffsetURI != "" && s.rejectOffset != nil {
			return s.rejectOffset
		}
		s.contextURI = opts.ContextURI
		s.itemURI = opts.OffsetURI
		s.trackNum = 0
		for i, uri := range s.contextTracks {
			if uri == opts.OffsetURI || (opts.OffsetURI == "" && i == 0) {
				s.itemURI = uri
				s.trackNum = i + 1
				break
			}
		}
	}
	if dev := opts.DeviceID; dev != "" {
		s.deviceID = dev
	} else if s.defaultDevice != "" {
		s.deviceID = s.defaultDevice
	}
	s.loaded = true
	s.playing = true
	s.progress = opts.Position
	return nil
}

func (s *fakeSession) TransferPlayback(_ context.Context, deviceID string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("transfer %s force=%v", deviceID, force)
	s.deviceID = deviceID
	return nil
}

func (s *fakeSession) SetVolume(_ context.Context, deviceID string, percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("volume %d", percent)
	s.volumes = append(s.volumes, percent)
	if s.target("volume", deviceID) {
		s.volume = percent
		return nil
	}
	if s.otherVolumes == nil {
		s.otherVolumes = make(map[string]int)
	}
	s.otherVolumes[deviceID] = percent
	return nil
}

func (s *fakeSession) ListDevices(context.Context) ([]core.Device, error) {
	return []core.Device{{ID: s.deviceID}}, nil
}

func (s *fakeSession) Seek(_ context.Context, deviceID string, position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("seek %v", position)
	if s.target("seek", deviceID) {
		s.progress = position
	}
	return nil
}

func (s *fakeSession) SkipNext(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("next")
	if !s.target("next", deviceID) {
		return nil
	}
	if s.trackNum < len(s.contextTracks) {
		s.trackNum++
		s.itemURI = s.contextTracks[s.trackNum-1]
	}
	s.progress = 0
	return nil
}

// playingAlbum returns a session playing track 3 of a five-track album.
func playingAlbum() *fakeSession {
	return &fakeSession{
		loaded:        true,
		playing:       true,
		contextURI:    "spotify:album:a",
		contextTracks: []string{"spotify:track:1", "spotify:track:2", "spotify:track:3", "spotify:track:4", "spotify:track:5"},
		itemURI:       "spotify:track:3",
		trackNum:      3,
		progress:      83 * time.Second,
		volume:        40,
		deviceID:      "kitchen",
	}
}

var _ core.Session = (*fakeSession)(nil)
