package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CodeHTTPError is reported when a failed response carries no usable JSON body
const CodeHTTPError = "HTTP_ERROR"

// Client is an HTTP client for the API
type Client struct {
	baseURL     string
	fingerprint string
	httpClient  *http.Client
	trace       io.Writer // verbose request log, nil when quiet
}

// NewClient creates a new API client
func NewClient(baseURL, fingerprint string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		fingerprint: fingerprint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Do performs an HTTP request. headers are extra key/value pairs.
func (c *Client) Do(ctx context.Context, method, path string, body, result any, headers ...string) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.fingerprint != "" {
		req.Header.Set("X-User-Fingerprint", c.fingerprint)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.trace != nil {
		_, _ = fmt.Fprintf(c.trace, "%s %s -> %d\n", method, url, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	parseErr := json.Unmarshal(respBody, &env)

	// Check for error responses
	if resp.StatusCode >= 400 {
		if parseErr == nil && env.Error != "" {
			return &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
		}
		return &APIError{
			Status:  resp.StatusCode,
			Code:    CodeHTTPError,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	if parseErr != nil {
		return fmt.Errorf("failed to parse response: %w", parseErr)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// SetTrace logs each request line and status to w
func (c *Client) SetTrace(w io.Writer) {
	c.trace = w
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any, headers ...string) error {
	return c.Do(ctx, http.MethodPost, path, body, result, headers...)
}
