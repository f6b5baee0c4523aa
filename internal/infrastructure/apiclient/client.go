// Package apiclient talks to the remote course platform API
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized remote rejected the bearer token
	ErrUnauthorized = errors.New("remote: unauthorized")
	// ErrNotFound remote resource does not exist
	ErrNotFound = errors.New("remote: not found")
	// ErrConflict remote resource already exists
	ErrConflict = errors.New("remote: conflict")
	// ErrNoBaseURL .
	ErrNoBaseURL = errors.New("remote: base url is required")
)

// Error non-2xx response other than the sentinel ones
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote: http %d", e.Status)
}

// TokenSource returns the remote bearer token of the caller in ctx, empty means anonymous
type TokenSource func(ctx context.Context) (string, error)

// UnauthorizedHook is called when the remote rejects the token of the caller in ctx
type UnauthorizedHook func(ctx context.Context)

// Config .
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client remote API client
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHook
}

type ctxKey string

const (
	tokenKey     ctxKey = "remote_token"
	requestIDKey ctxKey = "request_id"
)

// New create a client
func New(cfg *Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrNoBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		tokens:  TokenFromContext,
	}, nil
}

// SetTokenSource replace the token source, the default reads the token put by WithToken
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// OnUnauthorized register the 401 hook
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.onUnauthorized = hook
}

// WithToken attach a remote token to ctx
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext default TokenSource
func TokenFromContext(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey).(string)
	return token, nil
}

// WithRequestID forward rid as X-Request-ID
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// Get .
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post .
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Put .
func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

// Delete .
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do send in as JSON and decode the response into out, either may be nil
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.ExtractLoggerFromContext(ctx)

	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid, _ := ctx.Value(requestIDKey).(string)
	if rid == "" {
		rid = uuid.New().String()
	}
	req.Header.Set("X-Request-ID", rid)

	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("remote: token source: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("remote call failed", zap.String("http.method", method), zap.String("url.path", path), zap.Error(err))
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remote: read body: %w", err)
	}
	logger.Debug("remote call",
		zap.String("http.method", method),
		zap.String("url.path", path),
		zap.Int("http.status_code", resp.StatusCode),
		zap.Duration("event.duration", time.Since(start)),
		zap.String("request.id", rid))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(ctx, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("remote: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) statusError(ctx context.Context, status int, raw []byte) error {
	switch status {
	case http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return &Error{Status: status, Message: errorMessage(raw)}
}

// errorMessage picks the "error" or "message" field of a JSON error body
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
