package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	entErrors "github.com/tessro/entrance/internal/errors"
)

const (
	// BaseURL is the Spotify Web API base URL.
	BaseURL = "https://api.spotify.com/v1"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
	maxRetryAfter = 30 * time.Second
)

// Client is a Spotify Web API client. It sends whatever access token is
// currently bound; keeping that token fresh is the caller's job (see
// auth.Guard).
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryWait  time.Duration
	log        *zap.Logger

	mu    sync.RWMutex
	token string
}

// New creates a new Spotify client.
func New(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		retryWait:  baseRetryWait,
		log:        log.Named("spotify"),
	}
}

// SetBaseURL points the client at a different API root.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Bind sets the access token used for subsequent requests.
func (c *Client) Bind(accessToken string) {
	c.mu.Lock()
	c.token = accessToken
	c.mu.Unlock()
}

// BoundToken returns the access token requests are currently sent with.
func (c *Client) BoundToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, result)
	return err
}

// Post performs a POST request to the Spotify API.
func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	_, err := c.do(ctx, http.MethodPost, path, body, result)
	return err
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body interface{}, result interface{}) error {
	_, err := c.do(ctx, http.MethodPut, path, body, result)
	return err
}

// do sends the request, retrying network errors, 5xx responses and 429s.
// It returns the final HTTP status.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) (int, error) {
	token := c.BoundToken()
	if token == "" {
		return 0, entErrors.ErrNotAuthenticated
	}

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path
	c.log.Debug("request", zap.String("method", method), zap.String("url", fullURL), zap.ByteString("body", jsonBody))

	var lastErr error
	var wait time.Duration
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if wait == 0 {
				wait = c.retryWait * time.Duration(1<<(attempt-1))
			}
			c.log.Debug("retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(wait):
			}
			wait = 0
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", entErrors.ErrNetworkError, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.log.Debug("response", zap.Int("status", resp.StatusCode), zap.String("url", fullURL))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			return resp.StatusCode, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %s", entErrors.ErrRateLimited, parseAPIError(resp.StatusCode, respBody))
			wait = retryAfter(resp.Header.Get("Retry-After"))
			continue

		case resp.StatusCode >= 500:
			lastErr = parseAPIError(resp.StatusCode, respBody)
			continue

		case resp.StatusCode >= 400:
			return resp.StatusCode, parseAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return resp.StatusCode, nil
	}

	return 0, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

func parseAPIError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		if apiErr.ErrorInfo.Status == 0 {
			apiErr.ErrorInfo.Status = status
		}
		return &apiErr
	}
	apiErr.ErrorInfo.Status = status
	apiErr.ErrorInfo.Message = http.StatusText(status)
	return &apiErr
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// IsNoActiveDevice returns true if the error indicates no active device.
func (e *APIError) IsNoActiveDevice() bool {
	return e.ErrorInfo.Status == http.StatusNotFound || e.ErrorInfo.Reason == "NO_ACTIVE_DEVICE"
}

// IsNoActiveDeviceError checks if an error is a "no active device" error.
func IsNoActiveDeviceError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsNoActiveDevice()
	}
	return false
}

// IsRestrictionError checks if an error is a 403 "restriction violated"
// error, returned for commands the current context does not allow.
func IsRestrictionError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorInfo.Status == http.StatusForbidden
	}
	return false
}

// IsBadRequestError checks if an error is a 400 response.
func IsBadRequestError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorInfo.Status == http.StatusBadRequest
	}
	return false
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
