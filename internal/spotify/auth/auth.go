package auth

import (
	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// DefaultScopes cover reading and driving the playback session.
var DefaultScopes = []string{
	"streaming",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// Endpoint is the Spotify accounts service. Spotify expects public PKCE
// clients to send client_id in the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   SpotifyAuthURL,
	TokenURL:  SpotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// NewConfig creates the OAuth configuration for a public PKCE client.
func NewConfig(clientID, redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	return &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      DefaultScopes,
		Endpoint:    Endpoint,
	}
}
