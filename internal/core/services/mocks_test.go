package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var errUpstream = errors.New("boom")

// mockEmbedder returns a fixed-size vector per text.
type mockEmbedder struct {
	dims int
	err  error

	// gate, when set, blocks EmbedBatch until it is closed.
	gate chan struct{}

	mu      sync.Mutex
	batches [][]string
	queries []string
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.dims)
	v[0] = 1
	if m.dims > 1 {
		v[1] = float32(len(text) % 7)
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queries = append(m.queries, text)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error { return nil }

// mockVectors returns canned search hits and records queries.
type mockVectors struct {
	hits []driven.VectorHit
	err  error

	lastIndex string
	lastQuery driven.VectorQuery
}

func (m *mockVectors) EnsureIndex(context.Context, string, int) error { return nil }

func (m *mockVectors) Upsert(context.Context, string, driven.VectorEntry) error { return nil }

func (m *mockVectors) UpsertBatch(context.Context, string, []driven.VectorEntry) error { return nil }

func (m *mockVectors) Search(_ context.Context, index string, query driven.VectorQuery) ([]driven.VectorHit, error) {
	m.lastIndex = index
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockVectors) Delete(context.Context, string, string) error { return nil }
func (m *mockVectors) HealthCheck(context.Context) bool { return true }
func (m *mockVectors) Close() error { return nil }

// mockLLM returns a canned response and records every call.
type mockLLM struct {
	response string
	err      error

	calls [][]driven.ChatMessage
	opts  []driven.ChatOptions
}

func (m *mockLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return m.response, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls = append(m.calls, messages)
	m.opts = append(m.opts, opts)
	return m.response, m.err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

// lastPrompt returns the final message content of the most recent call.
func (m *mockLLM) lastPrompt() string {
	if len(m.calls) == 0 {
		return ""
	}
	call := m.calls[len(m.calls)-1]
	return call[len(call)-1].Content
}

// mockPrompts serves a single template.
type mockPrompts struct {
	template string
	err      error
}

func (m *mockPrompts) Load(string) (string, error) { return m.template, m.err }
func (m *mockPrompts) Reload() {}

// failingDocStore fails SaveChunk for one chunk index.
type failingDocStore struct {
	*memory.DocumentStore
	failAt int
}

func (f *failingDocStore) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk.Index == f.failAt {
		return errors.New("insert chunk: disk full")
	}
	return f.DocumentStore.SaveChunk(ctx, chunk)
}

// mockRAG returns a canned result and records requests.
type mockRAG struct {
	result *driving.QueryResult
	err    error

	requests []driving.QueryRequest
}

func (m *mockRAG) Query(_ context.Context, req driving.QueryRequest) (*driving.QueryResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
