package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TokenProvider reports the credential that is currently valid.
type TokenProvider interface {
	CachedToken(ctx context.Context) (string, error)
}

// Binder is something that sends requests with a bound access token.
type Binder interface {
	BoundToken() string
	Bind(accessToken string)
}

// Guard makes sure a Binder carries the provider's current token before
// each call it wraps.
type Guard struct {
	provider TokenProvider
	binder   Binder
	log      *zap.Logger
}

// NewGuard creates a guard over binder.
func NewGuard(provider TokenProvider, binder Binder, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{provider: provider, binder: binder, log: log.Named("guard")}
}

// Invoke rebinds the client if the cached token has changed, then calls fn.
func (g *Guard) Invoke(ctx context.Context, fn func(ctx context.Context) error) error {
	token, err := g.provider.CachedToken(ctx)
	if err != nil {
		return fmt.Errorf("token check: %w", err)
	}
	if token != g.binder.BoundToken() {
		g.log.Debug("rebinding spotify client to current token")
		g.binder.Bind(token)
	}
	return fn(ctx)
}
