package core

import "time"

// Track is a playable track on the streaming service.
type Track struct {
	URI         string        `json:"uri"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	Album       string        `json:"album"`
	Duration    time.Duration `json:"duration"`
	TrackNumber int           `json:"track_number"`
}
