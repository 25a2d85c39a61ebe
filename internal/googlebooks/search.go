package googlebooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/bookworm/internal/errors"
)

// Search fetches one page of volumes for query.
//
// Search never fails: a non-2xx status, a transport error or an undecodable
// body is logged and reported as an empty page, which callers treat as the
// end of the result set.
func (c *Client) Search(ctx context.Context, query string, maxResults, startIndex int) []Volume {
	maxResults = clampMaxResults(maxResults)
	if startIndex < 0 {
		startIndex = 0
	}

	if err := c.pacer.Wait(ctx); err != nil {
		slog.Warn("Pacing wait interrupted", "query", query, "error", err)
		return nil
	}

	endpoint := c.searchURL(query, maxResults, startIndex)
	slog.Debug("Fetching volumes", "query", query, "max_results", maxResults, "start_index", startIndex)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Error("Failed to create Google Books request", "query", query, "error", err)
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(0)
		slog.Error("Google Books request failed", "query", query, "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	c.observe(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := errors.NewStatusError(Source, resp.StatusCode, strings.TrimSpace(string(body)))
		slog.Error("Error fetching volumes",
			"query", query,
			"status", resp.StatusCode,
			"rate_limited", statusErr.RateLimited(),
			"error", statusErr,
		)
		return nil
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Error("Failed to decode Google Books response", "query", query, "error", err)
		return nil
	}

	slog.Info("Fetched volumes", "query", query, "start_index", startIndex, "count", len(result.Items))
	return result.Items
}

func (c *Client) searchURL(query string, maxResults, startIndex int) string {
	params := url.Values{}
	params.Set("q", query)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startIndex", strconv.Itoa(startIndex))

	return c.baseURL + "/volumes?" + params.Encode()
}

func clampMaxResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxResultsLimit {
		return MaxResultsLimit
	}
	return n
}
