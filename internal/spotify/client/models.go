package client

// User is the logged-in Spotify account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"`
}

// Premium reports whether the account can be driven through the Web API.
func (u *User) Premium() bool {
	return u != nil && u.Product == "premium"
}

// Device is a Spotify Connect device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent *int   `json:"volume_percent"`
}

// PlaybackState is the body of GET /me/player.
type PlaybackState struct {
	Device     Device   `json:"device"`
	ProgressMS int      `json:"progress_ms"`
	IsPlaying  bool     `json:"is_playing"`
	Item       *Track   `json:"item"`
	Context    *Context `json:"context"`
}

// Track is a search result or the loaded item.
type Track struct {
	Name        string   `json:"name"`
	URI         string   `json:"uri"`
	DurationMS  int      `json:"duration_ms"`
	TrackNumber int      `json:"track_number"`
	Artists     []Artist `json:"artists"`
	Album       Album    `json:"album"`
}

// Artist is a track credit.
type Artist struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album is the album a track belongs to.
type Album struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Context is the album, playlist, artist or collection a session plays
// from.
type Context struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}
