package entrance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFadeOutAlwaysEndsAtZero(t *testing.T) {
	for _, start := range []int{0, 1, 37, 50, 99, 100} {
		for _, step := range []int{1, 5, 7, 33, 100} {
			t.Run(fmt.Sprintf("from %d step %d", start, step), func(t *testing.T) {
				s := &fakeSession{loaded: true, volume: start}
				clock := newManualClock()
				f := NewFader(s, clock, step, 500*time.Millisecond, zap.NewNop())

				if err := f.FadeOut(context.Background()); err != nil {
					t.Fatalf("FadeOut() error = %v", err)
				}

				vols := s.Volumes()
				if len(vols) == 0 || vols[len(vols)-1] != 0 {
					t.Fatalf("volumes = %v, want last write 0", vols)
				}
				prev := start
				for _, v := range vols {
					if v > prev || v < 0 || prev-v > step {
						t.Fatalf("volumes = %v: bad step %d -> %d", vols, prev, v)
					}
					prev = v
				}
				if got := len(clock.Sleeps()); got != len(vols)-1 {
					t.Errorf("sleeps = %d, want %d", got, len(vols)-1)
				}
			})
		}
	}
}

func TestFadeInAlwaysEndsAtTarget(t *testing.T) {
	for _, start := range []int{0, 13, 100} {
		for _, target := range []int{0, 42, 70, 100} {
			for _, step := range []int{1, 5, 30} {
				t.Run(fmt.Sprintf("from %d to %d step %d", start, target, step), func(t *testing.T) {
					s := &fakeSession{loaded: true, volume: start}
					f := NewFader(s, newManualClock(), step, time.Second, zap.NewNop())

					if err := f.FadeIn(context.Background(), target); err != nil {
						t.Fatalf("FadeIn() error = %v", err)
					}

					vols := s.Volumes()
					if len(vols) == 0 || vols[len(vols)-1] != target {
						t.Fatalf("volumes = %v, want last write %d", vols, target)
					}
					prev := start
					for _, v := range vols {
						d := v - prev
						if d < 0 {
							d = -d
						}
						if d > step {
							t.Fatalf("volumes = %v: step %d -> %d exceeds %d", vols, prev, v, step)
						}
						prev = v
					}
				})
			}
		}
	}
}

func TestFadeInClampsTarget(t *testing.T) {
	s := &fakeSession{loaded: true, volume: 90}
	f := NewFader(s, newManualClock(), 5, time.Second, nil)

	if err := f.FadeIn(context.Background(), 150); err != nil {
		t.Fatalf("FadeIn() error = %v", err)
	}
	if got := s.Volumes(); len(got) != 2 || got[1] != 100 {
		t.Errorf("volumes = %v, want [95 100]", got)
	}
}

func TestFadeUsesIntervalAndDefaults(t *testing.T) {
	s := &fakeSession{loaded: true, volume: 20}
	clock := newManualClock()
	f := NewFader(s, clock, 0, 0, nil)

	if err := f.FadeOut(context.Background()); err != nil {
		t.Fatalf("FadeOut() error = %v", err)
	}
	if got := s.Volumes(); fmt.Sprint(got) != "[15 10 5 0]" {
		t.Errorf("volumes = %v, want [15 10 5 0]", got)
	}
	for _, d := range clock.Sleeps() {
		if d != DefaultFadeInterval {
			t.Errorf("sleep = %v, want %v", d, DefaultFadeInterval)
		}
	}
}

func TestFadeStopsOnShutdown(t *testing.T) {
	s := &fakeSession{loaded: true, volume: 100}
	f := NewFader(s, newManualClock(), 5, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.FadeOut(ctx); err == nil {
		t.Error("FadeOut() error = nil, want context error")
	}
	if got := len(s.Volumes()); got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
}

func TestFadeFollowsSessionDevice(t *testing.T) {
	s := playingAlbum()
	s.defaultDevice = "speaker"
	f := NewFader(s, newManualClock(), 20, 500*time.Millisecond, zap.NewNop())

	if err := f.FadeOut(context.Background()); err != nil {
		t.Fatalf("FadeOut() error = %v", err)
	}
	if s.volume != 0 {
		t.Errorf("kitchen volume = %d, want 0", s.volume)
	}
	for _, target := range s.Targets() {
		if target != "volume kitchen" {
			t.Errorf("target = %q, want volume kitchen", target)
		}
	}
	if len(s.otherVolumes) != 0 {
		t.Errorf("other devices touched: %v", s.otherVolumes)
	}
}
