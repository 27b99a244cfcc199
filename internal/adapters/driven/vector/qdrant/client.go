// Package qdrant provides a vector index adapter for Qdrant's REST API.
//
// Qdrant point ids must be integers or UUIDs, so entry ids are mapped to
// name-based UUIDs and the original id is stored in the payload.
package qdrant

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

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.VectorIndex = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// idField holds the caller's entry id inside the point payload.
const idField = "_id"

var errMissing = fmt.Errorf("qdrant: %w", domain.ErrNotFound)

// Config holds configuration for the Qdrant client.
type Config struct {
	// BaseURL is the Qdrant REST address.
	BaseURL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration

	// BatchSize is the upsert sub-batch size (default: 100).
	BatchSize int
}

// Client is a driven.VectorIndex backed by Qdrant.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	batchSize int

	mu    sync.Mutex
	known map[string]bool
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// New creates a Qdrant client.
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
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		batchSize: cfg.BatchSize,
		known:     make(map[string]bool),
	}
}

// PointID maps an entry id onto the UUID used as the Qdrant point id.
func PointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

// EnsureIndex creates a cosine collection if it is missing.
// Qdrant stores float32 vectors by default.
func (c *Client) EnsureIndex(ctx context.Context, name string, dimensions int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.known[name] {
		return nil
	}

	err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, nil)
	switch {
	case err == nil:
	case errors.Is(err, errMissing):
		logger.Info("qdrant: creating collection %s (%d dims)", name, dimensions)
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimensions,
				"distance": "Cosine",
			},
		}
		if err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	default:
		return fmt.Errorf("get collection %s: %w", name, err)
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
		points := make([]point, len(batch))
		for i, e := range batch {
			payload := make(map[string]any, len(e.Metadata)+1)
			for k, v := range e.Metadata {
				payload[k] = v
			}
			payload[idField] = e.ID
			points[i] = point{ID: PointID(e.ID), Vector: e.Vector, Payload: payload}
		}

		path := "/collections/" + url.PathEscape(index) + "/points?wait=true"
		if err := c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil); err != nil {
			return fmt.Errorf("upsert %d points: %w", len(points), err)
		}
	}
	return nil
}

// Search runs a nearest-neighbour query.
func (c *Client) Search(ctx context.Context, index string, query driven.VectorQuery) ([]driven.VectorHit, error) {
	if vector.MatchesNothing(query.Filter) {
		return []driven.VectorHit{}, nil
	}

	body := map[string]any{
		"vector":       query.Vector,
		"limit":        query.TopK,
		"with_payload": true,
	}
	if query.Filter != nil {
		body["filter"] = map[string]any{
			"must": []any{
				map[string]any{
					"key":   query.Filter.Field,
					"match": map[string]any{"any": query.Filter.In},
				},
			},
		}
	}

	var resp struct {
		Result []map[string]any `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(index)+"/points/search", body, &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := vector.NormalizeHit(r)
		if id, ok := hit.Metadata[idField].(string); ok {
			hit.ID = id
			delete(hit.Metadata, idField)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Delete removes an entry. Qdrant ignores unknown point ids.
func (c *Client) Delete(ctx context.Context, index string, id string) error {
	body := map[string]any{"points": []string{PointID(id)}}
	err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(index)+"/points/delete?wait=true", body, nil)
	if err != nil && !errors.Is(err, errMissing) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// HealthCheck lists collections to confirm the server responds.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/collections", nil, nil) == nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

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
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %w", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return errMissing
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: qdrant (status %d): %s", domain.ErrUpstreamFailure, resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
