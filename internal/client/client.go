// Package client talks to the to-do HTTP API on behalf of a signed-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jaekwang-park/todolist/internal/model"
)

// DefaultLocalPort is where a locally running API listens.
const DefaultLocalPort = 3001

const msgRequestFailed = "API request failed"

// APIError is any failed call. Message is what the user should see: the
// server's error string when it sent one, otherwise "API request failed".
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

// ResolveBaseURL picks the API root for an app origin. Loopback origins point
// at a local server on localPort; anything else uses the origin itself.
func ResolveBaseURL(origin string, localPort int) (string, error) {
	if localPort == 0 {
		localPort = DefaultLocalPort
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid api origin %q: %w", origin, err)
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return "http://" + net.JoinHostPort("localhost", strconv.Itoa(localPort)), nil
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid api origin %q: scheme and host are required", origin)
	}
	return u.Scheme + "://" + u.Host, nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) ListTodos(ctx context.Context, token string) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", token, nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

func (c *Client) CreateTodo(ctx context.Context, token, text string) (model.Todo, error) {
	var t model.Todo
	err := c.do(ctx, http.MethodPost, "/api/todos", token, map[string]string{"text": text}, &t)
	return t, err
}

func (c *Client) SetCompleted(ctx context.Context, token, id string, completed bool) (model.Todo, error) {
	var t model.Todo
	err := c.do(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id), token, map[string]bool{"completed": completed}, &t)
	return t, err
}

func (c *Client) DeleteTodo(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) DeleteCompleted(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos", token, nil, nil)
}

// CreateProfile is unauthenticated; it runs right after sign-up.
func (c *Client) CreateProfile(ctx context.Context, userID, username string) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, http.MethodPost, "/api/profile", "", map[string]string{"userId": userID, "username": username}, &p)
	return p, err
}

// GetProfile returns nil when the user has not created a profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*model.ProfileSummary, error) {
	var p *model.ProfileSummary
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) UpdateUsername(ctx context.Context, token, username string) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, http.MethodPatch, "/api/profile", token, map[string]string{"username": username}, &p)
	return p, err
}

func (c *Client) ChangePassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPatch, "/api/profile/password", token, map[string]string{"newPassword": newPassword}, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Message: msgRequestFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: msgRequestFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: msgRequestFailed, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: msgRequestFailed}
		var eb struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Code = eb.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: msgRequestFailed, Err: err}
	}
	return nil
}
