// Package client provides an HTTP client for a running isoreplay server
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
)

// Client talks to the replay API
type Client struct {
	// baseURL is the root URL for all API requests
	baseURL string
	// httpClient is the underlying HTTP client
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTimeout bounds every request. Replays can take a while, so the default
// is generous.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q", baseURL)
	}
	u.Path = ""

	c := &Client{
		baseURL: u.String(),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Replay posts a test-case file and returns its histories. A non-empty save
// also stores them on the server under that name.
func (c *Client) Replay(ctx context.Context, file *v1alpha1.TestFile, save string) (*v1alpha1.ReplayResponse, error) {
	query := url.Values{}
	if save != "" {
		query.Set("save", save)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1alpha1/replays", query, file)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out v1alpha1.ReplayResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListResults returns the names of the stored results
func (c *Client) ListResults(ctx context.Context) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1alpha1/results", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list v1alpha1.ListResponse
	if err := decodeResponse(resp, &list); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected result name %v", item)
		}
		names = append(names, name)
	}
	return names, nil
}

// GetResult returns the histories stored under name
func (c *Client) GetResult(ctx context.Context, name string) ([][]v1alpha1.TestResult, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path.Join("/api/v1alpha1/results", url.PathEscape(name)), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out [][]v1alpha1.TestResult
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doRequest performs an HTTP request against the API
func (c *Client) doRequest(ctx context.Context, method, pathStr string, query url.Values, body interface{}) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, pathStr)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	return resp, nil
}
