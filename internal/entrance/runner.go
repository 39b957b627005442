package entrance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/core"
	entErrors "github.com/tessro/entrance/internal/errors"
)

// DefaultVolume is the volume entrance songs play at.
const DefaultVolume = 70

// Handle tracks one running entrance song.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed once playback has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the playback error. Only valid after Done is closed.
func (h *Handle) Err() error {
	return h.err
}

// Wait blocks until playback finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runner plays one track for a bounded time on its own goroutine.
type Runner struct {
	session core.Session
	fader   *Fader
	clock   Clock
	volume  int
	log     *zap.Logger
}

// NewRunner creates a runner that plays at volume.
func NewRunner(session core.Session, fader *Fader, clock Clock, volume int, log *zap.Logger) *Runner {
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		session: session,
		fader:   fader,
		clock:   clock,
		volume:  clampVolume(volume),
		log:     log.Named("runner"),
	}
}

// Play starts req and returns immediately.
func (r *Runner) Play(ctx context.Context, req Request) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = r.run(ctx, req)
	}()
	return h
}

func (r *Runner) run(ctx context.Context, req Request) error {
	log := r.log.With(zap.String("request", req.ID), zap.String("uri", req.TrackURI))

	// The song plays on the session's default target.
	if err := r.session.Pause(ctx, ""); err != nil && !errors.Is(err, entErrors.ErrNoActiveDevice) {
		return fmt.Errorf("pause: %w", err)
	}
	if err := r.session.SetVolume(ctx, "", r.volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	if err := r.session.StartPlayback(ctx, core.StartOptions{
		URIs:     []string{req.TrackURI},
		Position: req.StartOffset,
	}); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	wait := req.PlayTime()
	switch {
	case req.Unbounded() && req.TrackLength <= 0:
		log.Warn("track length unknown, entrance song will be cut short", zap.Duration("remaining", wait))
	case req.Unbounded():
		log.Info("playing whole track", zap.Duration("remaining", wait))
	default:
		log.Info("playing", zap.Duration("offset", req.StartOffset), zap.Duration("duration", wait))
	}

	if err := r.clock.Sleep(ctx, wait); err != nil {
		return err
	}
	if req.Unbounded() {
		return nil
	}

	state, err := r.session.CurrentPlayback(ctx)
	if err != nil {
		return fmt.Errorf("check playback: %w", err)
	}
	if state == nil || !state.IsPlaying || state.ItemURI() != req.TrackURI {
		log.Info("entrance song no longer playing, leaving session alone", zap.String("now", state.ItemURI()))
		return nil
	}

	log.Info("stopping playback")
	if err := r.fader.FadeOut(ctx); err != nil {
		return fmt.Errorf("fade out: %w", err)
	}
	device := state.DeviceID()
	if err := r.session.Pause(ctx, device); err != nil && !errors.Is(err, entErrors.ErrNoActiveDevice) {
		return fmt.Errorf("pause: %w", err)
	}
	if err := r.session.SetVolume(ctx, device, r.volume); err != nil {
		return fmt.Errorf("reset volume: %w", err)
	}
	return nil
}
