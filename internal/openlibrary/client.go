// Package openlibrary looks up author profiles and edition data on OpenLibrary.
//
// Lookups never fail from the caller's point of view: every error is logged
// and the caller receives either a degraded profile or a "not found" answer.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/bookworm/internal/cache"
	"github.com/lepinkainen/bookworm/internal/errors"
	"github.com/lepinkainen/bookworm/internal/ratelimit"
)

const (
	// Source is the name used in logs, errors and metrics.
	Source = "openlibrary"

	defaultBaseURL = "https://openlibrary.org"
	defaultPacing  = time.Second

	authorCacheTable  = "openlibrary_author_cache"
	editionCacheTable = "openlibrary_edition_cache"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Observer receives the outcome of every request. Status is 0 when no
// response was received.
type Observer interface {
	ObserveRequest(source string, status int)
}

// Client is an OpenLibrary API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	pacer      *ratelimit.Limiter
	cache      *cache.CacheDB
	observer   Observer
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// NewClient creates a new OpenLibrary client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		pacer:      ratelimit.Every("OpenLibrary", defaultPacing),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

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
		client.pacer = ratelimit.Every("OpenLibrary", interval)
	}
}

// WithCache routes lookups through the response cache.
func WithCache(c *cache.CacheDB) Option {
	return func(client *Client) {
		client.cache = c
	}
}

// WithObserver registers a request observer.
func WithObserver(o Observer) Option {
	return func(client *Client) {
		client.observer = o
	}
}

// getJSON paces, performs a GET against path and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.pacer.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(0)
		return fmt.Errorf("OpenLibrary request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.observe(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return errors.NewStatusError(Source, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode OpenLibrary response: %w", err)
	}
	return nil
}

func (c *Client) observe(status int) {
	if c.observer != nil {
		c.observer.ObserveRequest(Source, status)
	}
}

// keySuffix returns the last path segment of an OpenLibrary key, so both
// "/authors/OL1A" and "OL1A" yield "OL1A".
func keySuffix(key string) string {
	key = strings.TrimSpace(key)
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
