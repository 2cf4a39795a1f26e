// Package api is the HTTP client for the platform's admin REST API.
// The server owns every entity; this package only moves sanitized copies
// of them across the wire.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mqdash/mqdash/internal/errors"
	"github.com/mqdash/mqdash/internal/logger"
)

// DefaultTimeout bounds a single request round trip.
const DefaultTimeout = 10 * time.Second

// Client talks to the admin REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a client for the API at baseURL. The token is sent as a
// bearer credential on every request; pass "" for unauthenticated servers.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: logger.NewEnvLogger("[api]"),
	}
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(log logger.Logger) {
	c.log = log
}

// ListUsers fetches all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a new user.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/admin/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to a user.
func (c *Client) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user. The server cascades the delete to the user's
// connections and messages.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id), nil, nil)
}

// ListConnections fetches all broker connections across all users.
func (c *Client) ListConnections(ctx context.Context) ([]Connection, error) {
	var conns []Connection
	if err := c.do(ctx, http.MethodGet, "/api/admin/connections", nil, &conns); err != nil {
		return nil, err
	}
	return conns, nil
}

// Connect asks the server to open the broker connection.
func (c *Client) Connect(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/admin/connections/"+url.PathEscape(id)+"/connect", nil, nil)
}

// Disconnect asks the server to close the broker connection.
func (c *Client) Disconnect(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/admin/connections/"+url.PathEscape(id)+"/disconnect", nil, nil)
}

// ListMessages fetches the message feed across all connections. The server
// bounds the result size.
func (c *Client) ListMessages(ctx context.Context) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/api/admin/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ConnectionMessages fetches the message feed scoped to one connection.
func (c *Client) ConnectionMessages(ctx context.Context, id string) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/api/admin/connections/"+url.PathEscape(id)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ClearMessages deletes every stored message. Destructive; callers must
// confirm with the operator first.
func (c *Client) ClearMessages(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/messages/clear", nil, nil)
}

// Publish sends a message through the given connection. The message id and
// ordering are server-assigned, so the published message only becomes
// visible via the next messages poll.
func (c *Client) Publish(ctx context.Context, connectionID string, req PublishRequest) error {
	return c.do(ctx, http.MethodPost, "/api/connections/"+url.PathEscape(connectionID)+"/publish", req, nil)
}

// SystemStats fetches the server-computed platform overview.
func (c *Client) SystemStats(ctx context.Context) (*SystemStats, error) {
	var stats SystemStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/system-stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SecurityEvents fetches recent security events.
func (c *Client) SecurityEvents(ctx context.Context) ([]SecurityEvent, error) {
	var events []SecurityEvent
	if err := c.do(ctx, http.MethodGet, "/api/admin/security-events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UserActivity fetches the recent user activity feed.
func (c *Client) UserActivity(ctx context.Context) ([]ActivityEvent, error) {
	var events []ActivityEvent
	if err := c.do(ctx, http.MethodGet, "/api/admin/user-activity", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// apiError is the error body shape the server returns on failures.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do executes one request and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "Failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "Failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRequest,
			fmt.Sprintf("Request to %s failed", path),
			"Check the server URL and that the platform is running")
	}
	defer resp.Body.Close() //nolint:errcheck // Body close error is not actionable

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, path)
	}

	if out == nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrRequest,
			fmt.Sprintf("Failed to decode response from %s", path),
			"The server may be running an incompatible version")
	}
	return nil
}

// statusError maps a non-2xx response to a structured error. Conflict
// responses carry the server-enforced invariant message (e.g. "at least one
// admin must exist").
func (c *Client) statusError(resp *http.Response, path string) error {
	message := ""

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(raw) > 0 {
		var body apiError
		if json.Unmarshal(raw, &body) == nil {
			if body.Message != "" {
				message = body.Message
			} else if body.Error != "" {
				message = body.Error
			}
		}
	}
	if message == "" {
		message = fmt.Sprintf("%s returned %s", path, resp.Status)
	}

	if resp.StatusCode == http.StatusConflict {
		return errors.New(errors.ErrConflict, message,
			"The server rejected the change to protect an invariant")
	}

	return errors.New(errors.ErrRequest, message,
		"Retry the action; the request was not applied")
}
