package entrance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/core"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/metrics"
)

// DefaultSettleDelay is how long to wait after pausing for the remote
// state to catch up.
const DefaultSettleDelay = time.Second

// Snapshot records what the session was doing before an entrance.
type Snapshot struct {
	IsPlaying   bool
	ContextURI  string
	ItemURI     string
	DeviceID    string
	Progress    time.Duration
	Volume      int
	TrackNumber int
}

// Restorable reports whether there is anything to resume. A bare track
// with no containing context cannot be resumed.
func (s *Snapshot) Restorable() bool {
	return s != nil && s.ContextURI != ""
}

func snapshotOf(state *core.PlaybackState) *Snapshot {
	snap := &Snapshot{
		IsPlaying:  state.IsPlaying,
		ContextURI: state.ContextURI,
		ItemURI:    state.ItemURI(),
		DeviceID:   state.DeviceID(),
		Progress:   state.Progress,
		Volume:     clampVolume(state.Volume),
	}
	if state.Track != nil {
		snap.TrackNumber = state.Track.TrackNumber
	}
	return snap
}

// Snapshotter saves the session before an entrance and puts it back after.
type Snapshotter struct {
	session core.Session
	fader   *Fader
	clock   Clock
	settle  time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewSnapshotter creates a snapshotter. m may be nil.
func NewSnapshotter(session core.Session, fader *Fader, clock Clock, settle time.Duration, m *metrics.Metrics, log *zap.Logger) *Snapshotter {
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Snapshotter{
		session: session,
		fader:   fader,
		clock:   clock,
		settle:  settle,
		metrics: m,
		log:     log.Named("snapshot"),
	}
}

// Save captures the current session, fades it out if it is playing, and
// pauses it. The device is left at its pre-fade volume. Save returns nil
// when nothing is loaded.
//
// On error the returned snapshot, if non-nil, describes the state before
// Save started changing it.
func (s *Snapshotter) Save(ctx context.Context) (*Snapshot, error) {
	state, err := s.session.CurrentPlayback(ctx)
	if err != nil {
		return nil, fmt.Errorf("read playback: %w", err)
	}
	if state == nil {
		s.log.Debug("nothing playing, no snapshot")
		return nil, nil
	}

	snap := snapshotOf(state)

	if snap.IsPlaying {
		s.log.Info("fading out current playback", zap.String("context", snap.ContextURI))
		if err := s.fader.FadeOut(ctx); err != nil {
			return snap, fmt.Errorf("fade out: %w", err)
		}
	}

	if err := s.session.Pause(ctx, snap.DeviceID); err != nil && !errors.Is(err, entErrors.ErrNoActiveDevice) {
		return snap, fmt.Errorf("pause: %w", err)
	}

	if err := s.session.SetVolume(ctx, snap.DeviceID, snap.Volume); err != nil {
		return snap, fmt.Errorf("reset volume: %w", err)
	}

	if err := s.clock.Sleep(ctx, s.settle); err != nil {
		return snap, err
	}

	s.log.Info("saved playback",
		zap.String("context", snap.ContextURI),
		zap.String("item", snap.ItemURI),
		zap.Duration("progress", snap.Progress),
		zap.Int("volume", snap.Volume))
	return snap, nil
}

// Restore resumes a saved session at the saved track and position, then
// fades it back in. It is a no-op for a nil or context-less snapshot, and
// for a session that was paused when saved.
func (s *Snapshotter) Restore(ctx context.Context, snap *Snapshot) error {
	if !snap.Restorable() {
		s.metrics.Restore(metrics.RestoreSkipped)
		return nil
	}
	if !snap.IsPlaying {
		s.log.Debug("saved session was paused, leaving it", zap.String("context", snap.ContextURI))
		s.metrics.Restore(metrics.RestoreSkipped)
		return nil
	}

	s.log.Info("restoring playback", zap.String("context", snap.ContextURI), zap.String("item", snap.ItemURI))

	path, err := s.resume(ctx, snap)
	if err != nil {
		s.metrics.Restore(metrics.RestoreError)
		return err
	}
	s.metrics.Restore(path)

	if err := s.fader.FadeIn(ctx, snap.Volume); err != nil {
		return fmt.Errorf("fade in: %w", err)
	}
	return nil
}

func (s *Snapshotter) resume(ctx context.Context, snap *Snapshot) (string, error) {
	if snap.DeviceID != "" {
		if err := s.session.TransferPlayback(ctx, snap.DeviceID, false); err != nil {
			return "", fmt.Errorf("transfer to %s: %w", snap.DeviceID, err)
		}
	}

	if err := s.session.SetVolume(ctx, snap.DeviceID, 0); err != nil {
		return "", fmt.Errorf("mute: %w", err)
	}

	err := s.session.StartPlayback(ctx, core.StartOptions{
		DeviceID:   snap.DeviceID,
		ContextURI: snap.ContextURI,
		OffsetURI:  snap.ItemURI,
		Position:   snap.Progress,
	})
	if err == nil {
		return metrics.RestoreDirect, nil
	}
	if !errors.Is(err, entErrors.ErrContextRestoreUnsupported) {
		return "", fmt.Errorf("resume: %w", err)
	}

	// Some collection contexts reject an item offset. Start the context
	// from the top and walk forward to the saved track instead.
	s.log.Info("context rejected item offset, skipping forward",
		zap.String("context", snap.ContextURI),
		zap.Int("track_number", snap.TrackNumber))

	if err := s.session.StartPlayback(ctx, core.StartOptions{
		DeviceID:   snap.DeviceID,
		ContextURI: snap.ContextURI,
	}); err != nil {
		return "", fmt.Errorf("resume context: %w", err)
	}
	for i := 1; i < snap.TrackNumber; i++ {
		if err := s.session.SkipNext(ctx, snap.DeviceID); err != nil {
			return "", fmt.Errorf("skip %d: %w", i, err)
		}
	}
	if err := s.session.Seek(ctx, snap.DeviceID, snap.Progress); err != nil {
		return "", fmt.Errorf("seek: %w", err)
	}
	return metrics.RestoreFallback, nil
}
