package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Defaults for devices seen on the network before anyone claims them.
const (
	UnknownOwnerName  = "unknown owner"
	UnknownDeviceName = "unknown device"
)

// Owner is a person with one or more devices and entrance songs.
type Owner struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"uniqueIndex;size:128"`
	Devices   []Device
	Songs     []Song
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Device is a network interface that identifies its owner.
type Device struct {
	ID           string `gorm:"primaryKey;size:36"`
	MACAddress   string `gorm:"uniqueIndex;size:17"`
	Hostname     string `gorm:"size:255"`
	FriendlyName string `gorm:"size:128"`
	OwnerID      string `gorm:"index;size:36"`
	Owner        *Owner
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Song is one candidate entrance song for an owner.
type Song struct {
	ID              string `gorm:"primaryKey;size:36"`
	OwnerID         string `gorm:"index;size:36"`
	Artist          string `gorm:"size:255"`
	Title           string `gorm:"size:255"`
	StartMinutes    int
	StartSeconds    int
	DurationSeconds int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StartOffset is where in the track playback begins.
func (s Song) StartOffset() time.Duration {
	return time.Duration(s.StartMinutes)*time.Minute + time.Duration(s.StartSeconds)*time.Second
}

// PlayDuration is how long to play; zero means the whole track.
func (s Song) PlayDuration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

func (o *Owner) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (d *Device) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (s *Song) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
