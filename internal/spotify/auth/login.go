package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// Login is one interactive PKCE authorization attempt.
type Login struct {
	config   *oauth2.Config
	verifier string
	state    string
}

// NewLogin prepares a PKCE verifier and CSRF state for cfg.
func NewLogin(cfg *oauth2.Config) (*Login, error) {
	state := make([]byte, 24)
	if _, err := rand.Read(state); err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	return &Login{
		config:   cfg,
		verifier: oauth2.GenerateVerifier(),
		state:    base64.RawURLEncoding.EncodeToString(state),
	}, nil
}

// AuthURL is the URL the user must open to grant access.
func (l *Login) AuthURL() string {
	return l.config.AuthCodeURL(l.state, oauth2.S256ChallengeOption(l.verifier))
}

// State returns the CSRF state sent with the authorization request.
func (l *Login) State() string {
	return l.state
}

// Exchange validates a callback and trades its code for a token.
func (l *Login) Exchange(ctx context.Context, result CallbackResult) (*oauth2.Token, error) {
	if result.Error != "" {
		return nil, fmt.Errorf("authorization denied: %s", result.Error)
	}
	if result.State != l.state {
		return nil, errors.New("state mismatch: possible CSRF attack")
	}
	if result.Code == "" {
		return nil, errors.New("callback did not include an authorization code")
	}
	token, err := l.config.Exchange(ctx, result.Code, oauth2.VerifierOption(l.verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// CallbackResult carries the query parameters of the OAuth redirect.
type CallbackResult struct {
	Code  string
	State string
	Error string
}

// CallbackServer receives the OAuth redirect on a local port.
type CallbackServer struct {
	server   *http.Server
	listener net.Listener
	result   chan CallbackResult
}

// NewCallbackServer listens on addr (e.g. "127.0.0.1:8888", or port 0 in tests).
func NewCallbackServer(addr string) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	cs := &CallbackServer{
		listener: listener,
		result:   make(chan CallbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", cs.handleCallback)
	cs.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { _ = cs.server.Serve(listener) }()
	return cs, nil
}

// Addr returns the bound listener address.
func (cs *CallbackServer) Addr() string {
	return cs.listener.Addr().String()
}

// Wait blocks until a callback arrives or ctx is done.
func (cs *CallbackServer) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case result := <-cs.result:
		return result, nil
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	}
}

// Shutdown stops the server.
func (cs *CallbackServer) Shutdown(ctx context.Context) error {
	return cs.server.Shutdown(ctx)
}

func (cs *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := CallbackResult{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}

	// Only the first redirect counts.
	select {
	case cs.result <- result:
	default:
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if result.Error != "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "entrance: authorization failed (%s). You can close this window.\n", result.Error)
		return
	}
	fmt.Fprintln(w, "entrance: authorization received. You can close this window.")
}

// CallbackAddr derives the listen address from a redirect URI.
func CallbackAddr(redirectURI string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("redirect uri %q has no host", redirectURI)
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "80"), nil
	}
	return u.Host, nil
}
