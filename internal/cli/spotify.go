package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/spotify/auth"
	"github.com/tessro/entrance/internal/spotify/client"
	"github.com/tessro/entrance/internal/spotify/player"
)

// spotifyConn is an authenticated Spotify client plus the player built on
// it. Every player call goes through the token guard.
type spotifyConn struct {
	client *client.Client
	player *player.Player
	guard  *auth.Guard
}

// connectSpotify loads the stored token and wires client, guard and
// player. ctx bounds token refreshes for the life of the connection.
func connectSpotify(ctx context.Context, log *zap.Logger) (*spotifyConn, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, entErrors.WithSuggestion(
			fmt.Errorf("spotify.client_id not configured"),
			"Set it in ~/.entrancerc or via ENTRANCE_SPOTIFY_CLIENT_ID")
	}

	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	oauthCfg := auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.RedirectURI)
	provider, err := auth.NewProvider(ctx, oauthCfg, storage, log)
	if err != nil {
		return nil, err
	}

	c := client.New(log)
	guard := auth.NewGuard(provider, c, log)
	return &spotifyConn{client: c, player: player.New(c, guard), guard: guard}, nil
}

// currentUser fetches the profile behind the token, through the guard.
func (s *spotifyConn) currentUser(ctx context.Context) (*client.User, error) {
	var user *client.User
	err := s.guard.Invoke(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.client.GetCurrentUser(ctx)
		return err
	})
	return user, err
}
