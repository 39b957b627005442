package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	entErrors "github.com/tessro/entrance/internal/errors"
)

func TestProviderRefreshesExpiredToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = r.ParseForm()
		if got := r.FormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := r.FormValue("refresh_token"); got != "refresh_1" {
			t.Errorf("refresh_token = %q, want refresh_1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access_2",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	storage, _ := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	if err := storage.Save(&oauth2.Token{
		AccessToken:  "access_1",
		RefreshToken: "refresh_1",
		Expiry:       time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatal(err)
	}

	provider, err := NewProvider(context.Background(), testConfig(server.URL), storage, nil)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	token, err := provider.CachedToken(context.Background())
	if err != nil {
		t.Fatalf("CachedToken() error = %v", err)
	}
	if token != "access_2" {
		t.Errorf("CachedToken() = %q, want access_2", token)
	}

	// Fresh token is reused without another round trip.
	if _, err := provider.CachedToken(context.Background()); err != nil {
		t.Fatalf("CachedToken() error = %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("token endpoint calls = %d, want 1", n)
	}

	saved, _ := storage.Load()
	if saved.AccessToken != "access_2" {
		t.Errorf("stored AccessToken = %q, want access_2", saved.AccessToken)
	}
	if saved.RefreshToken != "refresh_1" {
		t.Errorf("stored RefreshToken = %q, want refresh_1 preserved", saved.RefreshToken)
	}
}

func TestProviderWithoutToken(t *testing.T) {
	storage, _ := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))

	_, err := NewProvider(context.Background(), testConfig(SpotifyTokenURL), storage, nil)
	if !errors.Is(err, entErrors.ErrNotAuthenticated) {
		t.Errorf("NewProvider() error = %v, want ErrNotAuthenticated", err)
	}
}
