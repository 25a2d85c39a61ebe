package datastore

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
)

// DatasetteClient implements the Store interface for remote Datasette instances
type DatasetteClient struct {
	baseURL  string
	database string
	apiToken string
	client   *http.Client
}

// NewDatasetteClient creates a new DatasetteClient instance
func NewDatasetteClient(baseURL, database, apiToken string) *DatasetteClient {
	return &DatasetteClient{
		baseURL:  baseURL,
		database: database,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Connect verifies the base URL
func (c *DatasetteClient) Connect(context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL: missing host in %q", c.baseURL)
	}
	return nil
}

// InsertDocuments sends documents to the Datasette insert API
func (c *DatasetteClient) InsertDocuments(ctx context.Context, collection string, docs []Document) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, "-/insert", c.database, collection)
	q := u.Query()
	q.Set("pk", "_id")
	u.RawQuery = q.Encode()

	jsonData, err := json.Marshal(map[string]any{"rows": docs})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp map[string]any
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("API error (status %d): %v", resp.StatusCode, errResp)
	}

	return nil
}

// EnsureIndexes is a no-op, Datasette tables are managed by the insert plugin
func (c *DatasetteClient) EnsureIndexes(context.Context) error {
	return nil
}

// Close is a no-op for the HTTP client
func (c *DatasetteClient) Close(context.Context) error {
	return nil
}
