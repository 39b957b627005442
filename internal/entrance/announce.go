package entrance

import (
	"context"
	"errors"
	"time"
)

// Announcement is published when an entrance song starts.
type Announcement struct {
	ID     string    `json:"id"`
	Owner  string    `json:"owner"`
	Device string    `json:"device"`
	Title  string    `json:"title"`
	Artist string    `json:"artist"`
	URI    string    `json:"uri"`
	At     time.Time `json:"at"`
}

// Announcer publishes entrance announcements somewhere.
type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
}

// NopAnnouncer discards announcements.
type NopAnnouncer struct{}

// Announce implements Announcer.
func (NopAnnouncer) Announce(context.Context, Announcement) error { return nil }

// Announcers fans an announcement out to several announcers. Every
// announcer is tried; their errors are joined.
type Announcers []Announcer

// Announce implements Announcer.
func (as Announcers) Announce(ctx context.Context, a Announcement) error {
	var errs []error
	for _, an := range as {
		if err := an.Announce(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
