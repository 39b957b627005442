package auth

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	entErrors "github.com/tessro/entrance/internal/errors"
)

// Provider hands out the current cached credential. The underlying token
// source refreshes an expired token through the Spotify token endpoint and
// every new token is written back to storage.
type Provider struct {
	mu      sync.Mutex
	source  oauth2.TokenSource
	storage *TokenStorage
	current string
	log     *zap.Logger
}

// NewProvider loads the stored token and wraps it in a refreshing source.
// ctx bounds token refreshes and should outlive the provider.
func NewProvider(ctx context.Context, cfg *oauth2.Config, storage *TokenStorage, log *zap.Logger) (*Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	token, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, entErrors.ErrNotAuthenticated
	}
	return &Provider{
		source:  cfg.TokenSource(ctx, token),
		storage: storage,
		current: token.AccessToken,
		log:     log.Named("auth"),
	}, nil
}

// CachedToken returns the access token that should be in use right now.
func (p *Provider) CachedToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	token, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	if token.AccessToken != p.current {
		p.log.Info("spotify token refreshed", zap.Time("expiry", token.Expiry))
		p.current = token.AccessToken
		if err := p.storage.Save(token); err != nil {
			p.log.Warn("failed to persist refreshed token", zap.Error(err))
		}
	}

	return token.AccessToken, nil
}
