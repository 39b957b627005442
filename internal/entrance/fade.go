package entrance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/core"
)

// Fade defaults.
const (
	DefaultFadeStep     = 5
	DefaultFadeInterval = 500 * time.Millisecond
)

// Fader ramps the live device volume up or down in fixed steps. Every
// step goes to the device the volume was read from.
type Fader struct {
	session  core.Session
	clock    Clock
	step     int
	interval time.Duration
	log      *zap.Logger
}

// NewFader creates a fader. Non-positive step or interval fall back to the
// defaults.
func NewFader(session core.Session, clock Clock, step int, interval time.Duration, log *zap.Logger) *Fader {
	if step <= 0 || step > 100 {
		step = DefaultFadeStep
	}
	if interval <= 0 {
		interval = DefaultFadeInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fader{session: session, clock: clock, step: step, interval: interval, log: log.Named("fade")}
}

// FadeOut ramps the current volume down to 0. The last write is always 0.
func (f *Fader) FadeOut(ctx context.Context) error {
	device, from, err := f.liveVolume(ctx)
	if err != nil {
		return err
	}
	f.log.Debug("fading out", zap.String("device", device), zap.Int("from", from))
	return f.ramp(ctx, device, from, 0)
}

// FadeIn ramps the current volume up (or down) to target. The last write is
// always target, clamped to 0..100.
func (f *Fader) FadeIn(ctx context.Context, target int) error {
	device, from, err := f.liveVolume(ctx)
	if err != nil {
		return err
	}
	target = clampVolume(target)
	f.log.Debug("fading in", zap.String("device", device), zap.Int("from", from), zap.Int("to", target))
	return f.ramp(ctx, device, from, target)
}

// liveVolume returns the device holding the session and its volume. With
// nothing loaded the device is "" and the volume 0.
func (f *Fader) liveVolume(ctx context.Context) (string, int, error) {
	state, err := f.session.CurrentPlayback(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("read volume: %w", err)
	}
	if state == nil {
		return "", 0, nil
	}
	return state.DeviceID(), clampVolume(state.Volume), nil
}

func (f *Fader) ramp(ctx context.Context, device string, from, to int) error {
	vol := from
	for {
		switch {
		case vol > to:
			vol = max(vol-f.step, to)
		case vol < to:
			vol = min(vol+f.step, to)
		}
		if err := f.session.SetVolume(ctx, device, vol); err != nil {
			return fmt.Errorf("set volume %d: %w", vol, err)
		}
		if vol == to {
			return nil
		}
		if err := f.clock.Sleep(ctx, f.interval); err != nil {
			return err
		}
	}
}

func clampVolume(v int) int {
	return min(max(v, 0), 100)
}
