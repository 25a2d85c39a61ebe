// Package googlebooks provides a paginated search client for the Google Books volumes API.
package googlebooks

import (
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/bookworm/internal/ratelimit"
)

const (
	// Source is the name used in logs, errors and metrics.
	Source = "googlebooks"

	defaultBaseURL = "https://www.googleapis.com/books/v1"
	defaultPacing  = time.Second

	// MaxResultsLimit is the largest page size the API accepts.
	MaxResultsLimit = 40
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Observer receives the outcome of every request. Status is 0 when no
// response was received at all.
type Observer interface {
	ObserveRequest(source string, status int)
}

// Client is a Google Books API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	pacer      *ratelimit.Limiter
	observer   Observer
}

// NewClient creates a new Google Books client. An empty apiKey sends
// unauthenticated requests.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		pacer:      ratelimit.Every("GoogleBooks", defaultPacing),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithPacing sets the fixed delay between consecutive requests.
func WithPacing(interval time.Duration) Option {
	return func(client *Client) {
		client.pacer = ratelimit.Every("GoogleBooks", interval)
	}
}

// WithObserver registers a request observer, typically the metrics recorder.
func WithObserver(o Observer) Option {
	return func(client *Client) {
		client.observer = o
	}
}

func (c *Client) observe(status int) {
	if c.observer != nil {
		c.observer.ObserveRequest(Source, status)
	}
}
