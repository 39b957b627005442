package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// DefaultTokenFileName is the token file inside the entrance config dir.
const DefaultTokenFileName = "spotify_token.json"

// TokenStorage keeps the Spotify token on disk between runs.
type TokenStorage struct {
	path string
}

// NewTokenStorage stores the token at path, or under the user config
// directory when path is empty.
func NewTokenStorage(path string) (*TokenStorage, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config directory: %w", err)
		}
		path = filepath.Join(dir, "entrance", DefaultTokenFileName)
	}
	return &TokenStorage{path: path}, nil
}

// Save writes the token readable by the owner only. The file is replaced
// in one rename so a crash never leaves half a token behind.
func (s *TokenStorage) Save(token *oauth2.Token) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load reads the stored token. A missing file yields a nil token.
func (s *TokenStorage) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", s.path, err)
	}
	return &token, nil
}

// Delete removes the stored token. Deleting a missing token is fine.
func (s *TokenStorage) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Exists reports whether a token has been saved.
func (s *TokenStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path is where the token lives.
func (s *TokenStorage) Path() string {
	return s.path
}
