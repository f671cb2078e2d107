package fulcrum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tordrt/fulcrumgen/internal/schema"
)

// DefaultBaseURL is the Fulcrum REST API root
const DefaultBaseURL = "https://api.fulcrumapp.com/api/v2"

var (
	ErrUnauthorized     = errors.New("fulcrum: unauthorized")
	ErrNotFound         = errors.New("fulcrum: form not found")
	ErrUnexpectedStatus = errors.New("fulcrum: unexpected response status")
)

// Client fetches form schemas from the Fulcrum API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API root, mostly for tests and self-hosted proxies
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Fulcrum API client
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("fulcrum: API key is required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchForm retrieves a form definition by ID
func (c *Client) FetchForm(ctx context.Context, formID string) (*schema.Form, error) {
	if formID == "" {
		return nil, fmt.Errorf("fulcrum: form ID is required")
	}

	endpoint := c.baseURL + "/forms/" + url.PathEscape(formID) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-ApiToken", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form %s: %w", formID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, formID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// Drain a bounded amount so the message can carry the API's explanation
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	form, err := DecodeForm(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode form %s: %w", formID, err)
	}
	return form, nil
}
