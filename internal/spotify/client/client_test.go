package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	entErrors "github.com/tessro/entrance/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(zap.NewNop())
	c.SetBaseURL(server.URL)
	c.retryWait = time.Millisecond
	c.Bind("test-token")
	return c
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{name: "no params", path: "/me", params: nil, want: "/me"},
		{name: "empty params", path: "/me", params: map[string]string{}, want: "/me"},
		{name: "single param", path: "/search", params: map[string]string{"q": "test"}, want: "/search?q=test"},
		{name: "sorted params", path: "/search", params: map[string]string{"type": "track", "q": "a b"}, want: "/search?q=a+b&type=track"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{}
	err.ErrorInfo.Status = 401
	err.ErrorInfo.Message = "Invalid access token"

	expected := "Spotify API error 401: Invalid access token"
	if got := err.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
}

func TestRequestRequiresToken(t *testing.T) {
	c := New(nil)
	if err := c.Get(context.Background(), "/me", nil); !errors.Is(err, entErrors.ErrNotAuthenticated) {
		t.Errorf("Get() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestRequestSendsBoundToken(t *testing.T) {
	var got atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))

	c.Bind("second-token")
	if err := c.Pause(context.Background(), ""); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if got.Load() != "Bearer second-token" {
		t.Errorf("Authorization = %v, want %q", got.Load(), "Bearer second-token")
	}
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"devices":[{"id":"d1","name":"Kitchen"}]}`)
	}))

	devices, err := c.GetDevices(context.Background())
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(devices) != 1 || devices[0].Name != "Kitchen" {
		t.Errorf("devices = %+v", devices)
	}
}

func TestRequestGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.Get(context.Background(), "/me", nil)
	if err == nil {
		t.Fatal("Get() error = nil, want error")
	}
	if calls.Load() != maxRetries+1 {
		t.Errorf("calls = %d, want %d", calls.Load(), maxRetries+1)
	}
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`)
	}))

	err := c.Pause(context.Background(), "")
	if !IsNoActiveDeviceError(err) {
		t.Errorf("Pause() error = %v, want no active device", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRequestHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.Next(context.Background(), ""); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestErrorClassifiers(t *testing.T) {
	mk := func(status int) error {
		e := &APIError{}
		e.ErrorInfo.Status = status
		return e
	}

	if !IsRestrictionError(mk(403)) {
		t.Error("IsRestrictionError(403) = false")
	}
	if !IsBadRequestError(mk(400)) {
		t.Error("IsBadRequestError(400) = false")
	}
	if !IsNoActiveDeviceError(errors.Join(errors.New("ctx"), mk(404))) {
		t.Error("IsNoActiveDeviceError(wrapped 404) = false")
	}
	if IsRestrictionError(errors.New("plain")) {
		t.Error("IsRestrictionError(plain) = true")
	}
}

func TestGetPlaybackStateNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	state, err := c.GetPlaybackState(context.Background())
	if err != nil {
		t.Fatalf("GetPlaybackState() error = %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestGetPlaybackState(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"device": {"id": "d1", "name": "Den", "volume_percent": 55},
			"progress_ms": 12000,
			"is_playing": true,
			"item": {"uri": "spotify:track:abc", "track_number": 4, "duration_ms": 200000},
			"context": {"type": "album", "uri": "spotify:album:xyz"}
		}`)
	}))

	state, err := c.GetPlaybackState(context.Background())
	if err != nil {
		t.Fatalf("GetPlaybackState() error = %v", err)
	}
	if state == nil || !state.IsPlaying || state.ProgressMS != 12000 {
		t.Fatalf("state = %+v", state)
	}
	if state.Device.VolumePercent == nil || *state.Device.VolumePercent != 55 {
		t.Errorf("VolumePercent = %v, want 55", state.Device.VolumePercent)
	}
	if state.Context.URI != "spotify:album:xyz" || state.Item.TrackNumber != 4 {
		t.Errorf("context/item = %+v / %+v", state.Context, state.Item)
	}
}

func TestSearchTracks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search" || q.Get("q") != "Queen Don't Stop Me Now" || q.Get("limit") != "20" || q.Get("type") != "track" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = io.WriteString(w, `{"tracks":{"items":[{"uri":"spotify:track:1","name":"Don't Stop Me Now"}]}}`)
	}))

	tracks, err := c.SearchTracks(context.Background(), "Queen Don't Stop Me Now", 20)
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].URI != "spotify:track:1" {
		t.Errorf("tracks = %+v", tracks)
	}

	if _, err := c.SearchTracks(context.Background(), "", 0); err == nil {
		t.Error("SearchTracks(empty) error = nil, want error")
	}
}

func TestPlaybackRequests(t *testing.T) {
	type seen struct {
		method string
		url    string
		body   string
	}
	var last seen
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		last = seen{method: r.Method, url: r.URL.String(), body: strings.TrimSpace(string(b))}
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want seen
	}{
		{
			name: "play with offset",
			call: func() error {
				return c.Play(ctx, "dev", &PlayOptions{ContextURI: "spotify:album:a", Offset: &PlayOffset{URI: "spotify:track:t"}, PositionMS: 1500})
			},
			want: seen{http.MethodPut, "/me/player/play?device_id=dev", `{"context_uri":"spotify:album:a","offset":{"uri":"spotify:track:t"},"position_ms":1500}`},
		},
		{
			name: "resume",
			call: func() error { return c.Play(ctx, "", nil) },
			want: seen{http.MethodPut, "/me/player/play", `{}`},
		},
		{
			name: "seek",
			call: func() error { return c.Seek(ctx, 3000, "") },
			want: seen{http.MethodPut, "/me/player/seek?position_ms=3000", ""},
		},
		{
			name: "volume",
			call: func() error { return c.SetVolume(ctx, 40, "dev") },
			want: seen{http.MethodPut, "/me/player/volume?device_id=dev&volume_percent=40", ""},
		},
		{
			name: "next",
			call: func() error { return c.Next(ctx, "") },
			want: seen{http.MethodPost, "/me/player/next", ""},
		},
		{
			name: "transfer",
			call: func() error { return c.TransferPlayback(ctx, "dev", false) },
			want: seen{http.MethodPut, "/me/player", `{"device_ids":["dev"],"play":false}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if last != tt.want {
				t.Errorf("request = %+v, want %+v", last, tt.want)
			}
		})
	}
}
