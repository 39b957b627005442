package client

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// GetCurrentUser returns the logged-in user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDevices lists the Spotify Connect devices visible to the user.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp struct {
		Devices []Device `json:"devices"`
	}
	if err := c.Get(ctx, "/me/player/devices", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetPlaybackState returns the session, or nil when Spotify answers 204
// because nothing is loaded anywhere.
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	status, err := c.do(ctx, http.MethodGet, "/me/player", nil, &state)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &state, nil
}

// SearchTracks runs a free-text track search. limit <= 0 leaves the
// server default.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if query == "" {
		return nil, errors.New("search query cannot be empty")
	}

	params := map[string]string{"q": query, "type": "track"}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var resp struct {
		Tracks *struct {
			Items []Track `json:"items"`
		} `json:"tracks"`
	}
	if err := c.Get(ctx, BuildURL("/search", params), &resp); err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return nil, nil
	}
	return resp.Tracks.Items, nil
}
