package entrance

import (
	"context"
	"errors"
	"testing"
)

type countingAnnouncer struct {
	n   int
	err error
}

func (c *countingAnnouncer) Announce(context.Context, Announcement) error {
	c.n++
	return c.err
}

func TestAnnouncersTriesEveryone(t *testing.T) {
	boom := errors.New("broker down")
	first := &countingAnnouncer{err: boom}
	second := &countingAnnouncer{}

	err := Announcers{first, second, NopAnnouncer{}}.Announce(context.Background(), Announcement{Owner: "austin"})
	if !errors.Is(err, boom) {
		t.Errorf("Announce() error = %v, want %v", err, boom)
	}
	if first.n != 1 || second.n != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", first.n, second.n)
	}

	if err := (Announcers{}).Announce(context.Background(), Announcement{}); err != nil {
		t.Errorf("empty Announce() error = %v", err)
	}
}
