package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated          = errors.New("not authenticated")
	ErrNoActiveDevice            = errors.New("no active device")
	ErrDeviceNotFound            = errors.New("device not found")
	ErrTrackNotFound             = errors.New("track not found")
	ErrUnknownDevice             = errors.New("unknown network device")
	ErrOwnerNotFound             = errors.New("owner not found")
	ErrInvalidVolume             = errors.New("volume must be between 0 and 100")
	ErrContextRestoreUnsupported = errors.New("context cannot be resumed at an item offset")
	ErrRateLimited               = errors.New("rate limited")
	ErrNetworkError              = errors.New("network error")
	ErrConfigNotFound            = errors.New("config file not found")
)

// EntranceError wraps an error with a user-friendly suggestion.
type EntranceError struct {
	Err        error
	Suggestion string
}

func (e *EntranceError) Error() string {
	return e.Err.Error()
}

func (e *EntranceError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &EntranceError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var entErr *EntranceError
	if errors.As(err, &entErr) && entErr.Suggestion != "" {
		return entErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "invalid access token") ||
		strings.Contains(errStr, "token expired"):
		return "Run 'entrance auth login' to authenticate with Spotify"

	case errors.Is(err, ErrNoActiveDevice):
		return "Open Spotify on a device and start playing, or pass --device"

	case errors.Is(err, ErrDeviceNotFound):
		return "Run 'entrance devices' to see available device ids"

	case errors.Is(err, ErrInvalidVolume):
		return "Pass a --volume between 0 and 100"

	case errors.Is(err, ErrOwnerNotFound):
		return "Run 'entrance owners list' to see registered owners"

	case errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "429"):
		return "Too many requests. Wait a moment and try again"

	case errors.Is(err, ErrNetworkError) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout"):
		return "Check your internet connection and try again"

	case errors.Is(err, ErrConfigNotFound):
		return "Run 'entrance config init' to create a configuration file"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
