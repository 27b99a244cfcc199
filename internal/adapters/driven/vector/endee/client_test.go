package endee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// fakeEndee records calls against a minimal Endee REST surface.
type fakeEndee struct {
	mu       sync.Mutex
	indexes  map[string]createIndexRequest
	creates  int
	inserts  [][]upsertItem
	deletes  []string
	lastBody searchRequest
	results  string
}

func newFake() *fakeEndee {
	return &fakeEndee{indexes: map[string]createIndexRequest{}}
}

func (f *fakeEndee) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case r.Method == http.MethodGet && path == "/index/list":
		_, _ = w.Write([]byte(`{"indexes":[]}`))
	case r.Method == http.MethodPost && path == "/index/create":
		var req createIndexRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.indexes[req.Name] = req
		f.creates++
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/info"):
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/index/"), "/info")
		if _, ok := f.indexes[name]; !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/vector/insert"):
		var items []upsertItem
		_ = json.NewDecoder(r.Body).Decode(&items)
		f.inserts = append(f.inserts, items)
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/search"):
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		_, _ = w.Write([]byte(f.results))
	case r.Method == http.MethodDelete:
		f.deletes = append(f.deletes, path)
		if strings.Contains(path, "missing") {
			http.NotFound(w, r)
		}
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusTeapot)
	}
}

func TestClient_EnsureIndexCreatesOnce(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()
	require.NoError(t, c.EnsureIndex(ctx, "documents", 3072))
	require.NoError(t, c.EnsureIndex(ctx, "documents", 3072))

	// A fresh client sees the index already exists.
	require.NoError(t, New(Config{BaseURL: srv.URL}).EnsureIndex(ctx, "documents", 3072))

	assert.Equal(t, 1, fake.creates)
	created := fake.indexes["documents"]
	assert.Equal(t, 3072, created.Dimension)
	assert.Equal(t, "cosine", created.SpaceType)
	assert.Equal(t, "float32", created.Precision)
}

func TestClient_UpsertBatchSplits(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, BatchSize: 2})
	entries := []driven.VectorEntry{
		{ID: "a", Vector: []float32{1}},
		{ID: "b", Vector: []float32{1}, Metadata: map[string]any{"documentId": "d"}},
		{ID: "c", Vector: []float32{1}},
	}
	require.NoError(t, c.UpsertBatch(context.Background(), "documents", entries))

	require.Len(t, fake.inserts, 2)
	assert.Len(t, fake.inserts[0], 2)
	assert.Len(t, fake.inserts[1], 1)
	assert.NotNil(t, fake.inserts[0][0].Meta, "meta is never null")
	assert.Equal(t, "d", fake.inserts[0][1].Meta["documentId"])
}

func TestClient_SearchNormalisesScores(t *testing.T) {
	fake := newFake()
	fake.results = `[
		{"id":"a","similarity":0.91,"meta":{"documentId":"d1","chunkIndex":0}},
		{"id":"b","score":0.42,"metadata":{"documentId":"d2"}},
		{"id":"c"}
	]`
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	hits, err := c.Search(context.Background(), "documents", driven.VectorQuery{
		Vector: []float32{0.1, 0.2},
		TopK:   10,
		Filter: &driven.VectorFilter{Field: "documentId", In: []string{"d1", "d2"}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)
	assert.Equal(t, "d1", hits[0].Metadata["documentId"])
	assert.InDelta(t, 0.42, hits[1].Score, 1e-9)
	assert.Equal(t, "d2", hits[1].Metadata["documentId"])
	assert.Equal(t, 0.0, hits[2].Score)
	assert.NotNil(t, hits[2].Metadata)

	assert.Equal(t, 10, fake.lastBody.K)
	filter, ok := fake.lastBody.Filter["documentId"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"d1", "d2"}, filter["$in"])
}

func TestClient_SearchEmptyFilter(t *testing.T) {
	fake := newFake()
	fake.results = `[{"id":"a","similarity":0.91}]`
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hits, err := New(Config{BaseURL: srv.URL}).Search(context.Background(), "documents", driven.VectorQuery{
		Vector: []float32{0.1, 0.2},
		TopK:   10,
		Filter: &driven.VectorFilter{Field: "documentId"},
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, fake.lastBody.K, "no search request sent")
}

func TestClient_SearchWrappedResults(t *testing.T) {
	fake := newFake()
	fake.results = `{"results":[{"id":"x","score":0.5}]}`
	srv := httptest.NewServer(fake)
	defer srv.Close()

	hits, err := New(Config{BaseURL: srv.URL}).Search(context.Background(), "documents", driven.VectorQuery{TopK: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "x", hits[0].ID)
}

func TestClient_DeleteMissingIsNotError(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	assert.NoError(t, c.Delete(context.Background(), "documents", "missing-0"))
	assert.NoError(t, c.Delete(context.Background(), "documents", "doc-1-0"))
	assert.Len(t, fake.deletes, 2)
}

func TestClient_HealthCheck(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)

	c := New(Config{BaseURL: srv.URL, Token: "secret"})
	assert.True(t, c.HealthCheck(context.Background()))

	srv.Close()
	assert.False(t, c.HealthCheck(context.Background()))
}

func TestClient_UpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	err := c.EnsureIndex(context.Background(), "documents", 3)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)

	_, err = c.Search(context.Background(), "documents", driven.VectorQuery{})
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}
