package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bekosirs/bekoctl/internal/apierrors"
)

// DefaultTimeout bounds every request unless configured otherwise
const DefaultTimeout = 15 * time.Second

// RequestHook runs before every outbound request, e.g. to inject headers
type RequestHook func(req *http.Request) error

// ResponseObserver is notified of every response that was received
type ResponseObserver func(req *http.Request, statusCode int)

// Client wraps HTTP client for BekoSIRS API calls
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	logger    *slog.Logger
	hooks     []RequestHook
	observers []ResponseObserver
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Use registers a request hook. Hooks run in registration order.
func (c *Client) Use(hook RequestHook) {
	c.hooks = append(c.hooks, hook)
}

// Observe registers a response observer
func (c *Client) Observe(observer ResponseObserver) {
	c.observers = append(c.observers, observer)
}

// Do executes a request and returns the body of a 2xx response. Every other
// outcome is returned as *apierrors.Error.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	for _, hook := range c.hooks {
		if err := hook(req); err != nil {
			return nil, fmt.Errorf("request hook failed: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed",
			"method", method,
			"url", url,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, apierrors.Network(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Request completed",
		"method", method,
		"url", url,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	for _, observe := range c.observers {
		observe(req, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.Network(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierrors.FromResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// GetJSON executes a GET request and decodes the response into out
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	body, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// PostJSON executes a POST request; out may be nil when the body is ignored
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := c.Do(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &apierrors.Error{
			Kind:        apierrors.KindServer,
			StatusCode:  http.StatusOK,
			UserMessage: "unexpected response from server",
			Err:         fmt.Errorf("failed to parse response: %w", err),
		}
	}
	return nil
}
