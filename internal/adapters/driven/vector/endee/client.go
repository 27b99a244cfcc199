// Package endee provides a vector index adapter for the Endee vector database.
//
// The adapter speaks Endee's REST API under {base}/api/v1 with JSON bodies.
package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.VectorIndex = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

// Index creation parameters.
const (
	spaceCosine    = "cosine"
	precisionFloat = "float32"
)

var errIndexMissing = fmt.Errorf("endee: %w", domain.ErrNotFound)

// Config holds configuration for the Endee client.
type Config struct {
	// BaseURL is the server address without the /api/v1 suffix.
	BaseURL string

	// Token is sent in the Authorization header when set.
	Token string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// BatchSize is the upsert sub-batch size (default: 100).
	BatchSize int
}

// Client is a driven.VectorIndex backed by an Endee server.
type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	batchSize int

	mu    sync.Mutex
	known map[string]bool
}

type createIndexRequest struct {
	Name      string `json:"index_name"`
	Dimension int    `json:"dim"`
	SpaceType string `json:"space_type"`
	Precision string `json:"precision"`
}

type upsertItem struct {
	ID     string         `json:"id"`
	Vector []float32      `json:"vector"`
	Meta   map[string]any `json:"meta"`
}

type searchRequest struct {
	Vector []float32      `json:"vector"`
	K      int            `json:"k"`
	Filter map[string]any `json:"filter,omitempty"`
}

// New creates an Endee client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = driven.UpsertBatchSize
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/") + "/api/v1",
		token:     cfg.Token,
		batchSize: cfg.BatchSize,
		known:     make(map[string]bool),
	}
}

// EnsureIndex creates the index with cosine space and float32 precision if missing.
func (c *Client) EnsureIndex(ctx context.Context, name string, dimensions int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.known[name] {
		return nil
	}

	err := c.do(ctx, http.MethodGet, "/index/"+url.PathEscape(name)+"/info", nil, nil)
	switch {
	case err == nil:
	case errors.Is(err, errIndexMissing):
		logger.Info("endee: creating index %s (%d dims)", name, dimensions)
		req := createIndexRequest{
			Name:      name,
			Dimension: dimensions,
			SpaceType: spaceCosine,
			Precision: precisionFloat,
		}
		if err := c.do(ctx, http.MethodPost, "/index/create", req, nil); err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	default:
		return fmt.Errorf("get index %s: %w", name, err)
	}

	c.known[name] = true
	return nil
}

// Upsert inserts or replaces a single entry.
func (c *Client) Upsert(ctx context.Context, index string, entry driven.VectorEntry) error {
	return c.UpsertBatch(ctx, index, []driven.VectorEntry{entry})
}

// UpsertBatch inserts or replaces entries in sub-batches.
func (c *Client) UpsertBatch(ctx context.Context, index string, entries []driven.VectorEntry) error {
	for _, batch := range vector.Batches(entries, c.batchSize) {
		items := make([]upsertItem, len(batch))
		for i, e := range batch {
			meta := e.Metadata
			if meta == nil {
				meta = map[string]any{}
			}
			items[i] = upsertItem{ID: e.ID, Vector: e.Vector, Meta: meta}
		}
		if err := c.do(ctx, http.MethodPost, "/index/"+url.PathEscape(index)+"/vector/insert", items, nil); err != nil {
			return fmt.Errorf("upsert %d vectors: %w", len(items), err)
		}
	}
	return nil
}

// Search runs a nearest-neighbour query and normalises every hit.
func (c *Client) Search(ctx context.Context, index string, query driven.VectorQuery) ([]driven.VectorHit, error) {
	if vector.MatchesNothing(query.Filter) {
		return []driven.VectorHit{}, nil
	}

	req := searchRequest{Vector: query.Vector, K: query.TopK}
	if query.Filter != nil {
		req.Filter = map[string]any{query.Filter.Field: map[string]any{"$in": query.Filter.In}}
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/index/"+url.PathEscape(index)+"/search", req, &raw); err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	results, err := decodeResults(raw)
	if err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, vector.NormalizeHit(r))
	}
	return hits, nil
}

// Delete removes an entry. A missing id is not an error.
func (c *Client) Delete(ctx context.Context, index string, id string) error {
	path := "/index/" + url.PathEscape(index) + "/vector/" + url.PathEscape(id) + "/delete"
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && !errors.Is(err, errIndexMissing) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// HealthCheck lists indexes to confirm the server responds.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/index/list", nil, nil) == nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// decodeResults accepts a bare array or an object wrapping it under "results".
func decodeResults(raw json.RawMessage) ([]map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := func(b []byte, v any) error {
		d := json.NewDecoder(bytes.NewReader(b))
		d.UseNumber()
		return d.Decode(v)
	}

	var list []map[string]any
	if err := dec(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Results []map[string]any `json:"results"`
	}
	if err := dec(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Results, nil
}

// do sends a JSON request. A 404 maps to errIndexMissing; other failures
// wrap domain.ErrUpstreamFailure.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: endee: %w", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errIndexMissing
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: endee (status %d): %s", domain.ErrUpstreamFailure, resp.StatusCode, string(data))
	}

	if out != nil {
		if raw, ok := out.(*json.RawMessage); ok {
			*raw = data
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
