package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type ragFixture struct {
	docs     *memory.DocumentStore
	chats    *memory.ChatStore
	vectors  *mockVectors
	embedder *mockEmbedder
	llm      *mockLLM
	ports    RAGPorts
}

func newRAGFixture(t *testing.T) *ragFixture {
	t.Helper()
	f := &ragFixture{
		docs:     memory.NewDocumentStore(),
		chats:    memory.NewChatStore(),
		vectors:  &mockVectors{},
		embedder: newMockEmbedder(4),
		llm:      &mockLLM{response: "The answer."},
	}
	f.ports = RAGPorts{
		Embedder:  f.embedder,
		Vectors:   f.vectors,
		Documents: f.docs,
		Chats:     f.chats,
		LLM:       f.llm,
	}
	return f
}

// addChunks stores a completed document with one chunk per content string.
func (f *ragFixture) addChunks(t *testing.T, docID, name string, contents ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.docs.CreateDocument(ctx, &domain.Document{
		ID:       docID,
		UserID:   "u1",
		Name:     name,
		FileName: docID + ".txt",
		FileType: domain.MediaTypeTXT,
		Status:   domain.DocumentStatusCompleted,
	}))
	for i, content := range contents {
		require.NoError(t, f.docs.SaveChunk(ctx, &domain.Chunk{
			ID:          fmt.Sprintf("%s-chunk-%d", docID, i),
			DocumentID:  docID,
			Content:     content,
			Index:       i,
			EmbeddingID: domain.EmbeddingID(docID, i),
		}))
	}
}

func hit(id string, score float64) driven.VectorHit {
	return driven.VectorHit{ID: id, Score: score, Metadata: map[string]any{}}
}

func TestRAGService_Query_ThresholdFilter(t *testing.T) {
	f := newRAGFixture(t)
	f.addChunks(t, "d1", "Guide", "first", "second", "third")
	f.vectors.hits = []driven.VectorHit{
		hit("d1-0", 0.9),
		hit("d1-1", 0.3),
		hit("d1-2", 0.29),
	}
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "what?"})
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, 0, result.Sources[0].ChunkIndex)
	assert.InDelta(t, 0.9, result.Sources[0].Similarity, 1e-9)
	assert.Equal(t, 1, result.Sources[1].ChunkIndex)
	assert.Equal(t, "The answer.", result.Content)

	prompt := f.llm.lastPrompt()
	assert.Contains(t, prompt, "[Source 1] Guide:\nfirst")
	assert.Contains(t, prompt, "[Source 2] Guide:\nsecond")
	assert.NotContains(t, prompt, "third")
	assert.True(t, strings.HasSuffix(prompt, "\n\nUser question: what?"))
}

func TestRAGService_Query_DropsStaleHits(t *testing.T) {
	f := newRAGFixture(t)
	f.addChunks(t, "d1", "Guide", "kept")
	f.vectors.hits = []driven.VectorHit{hit("gone-0", 0.95), hit("d1-0", 0.8)}
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "d1", result.Sources[0].DocumentID)
	assert.Contains(t, f.llm.lastPrompt(), "[Source 1] Guide:\nkept")
}

func TestRAGService_Query_NoContext(t *testing.T) {
	f := newRAGFixture(t)
	f.vectors.hits = []driven.VectorHit{hit("d1-0", 0.1)}
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "anything"})
	require.NoError(t, err)

	require.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
	require.Len(t, f.llm.calls, 1)
	assert.Contains(t, f.llm.lastPrompt(), "No relevant context found.")
}

func TestRAGService_Query_ExcerptAndFullContext(t *testing.T) {
	f := newRAGFixture(t)
	long := strings.Repeat("é", 250)
	f.addChunks(t, "d1", "Accents", long)
	f.vectors.hits = []driven.VectorHit{hit("d1-0", 0.7)}
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, strings.Repeat("é", 200)+"...", result.Sources[0].Content)
	assert.Contains(t, f.llm.lastPrompt(), long)
}

func TestRAGService_Query_ShortExcerptStillMarked(t *testing.T) {
	f := newRAGFixture(t)
	f.addChunks(t, "d1", "Short", "tiny")
	f.vectors.hits = []driven.VectorHit{hit("d1-0", 0.7)}
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, "tiny...", result.Sources[0].Content)
}

func TestRAGService_Query_DocumentFilter(t *testing.T) {
	f := newRAGFixture(t)
	svc := NewRAGService(f.ports, RAGConfig{IndexName: "custom", TopK: 3})

	_, err := svc.Query(context.Background(), driving.QueryRequest{
		Message:     "q",
		DocumentIDs: []string{"d1", "d2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "custom", f.vectors.lastIndex)
	assert.Equal(t, 3, f.vectors.lastQuery.TopK)
	require.NotNil(t, f.vectors.lastQuery.Filter)
	assert.Equal(t, driven.MetaDocumentID, f.vectors.lastQuery.Filter.Field)
	assert.Equal(t, []string{"d1", "d2"}, f.vectors.lastQuery.Filter.In)
	assert.Equal(t, []string{"q"}, f.embedder.queries)
}

func TestRAGService_Query_NoFilterWithoutScope(t *testing.T) {
	f := newRAGFixture(t)
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	_, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)
	assert.Nil(t, f.vectors.lastQuery.Filter)
	assert.Equal(t, domain.DefaultIndexName, f.vectors.lastIndex)
}

func TestRAGService_Query_History(t *testing.T) {
	f := newRAGFixture(t)
	ctx := context.Background()
	require.NoError(t, f.chats.CreateSession(ctx, &domain.ChatSession{ID: "s1", UserID: "u1"}))

	base := time.Now().UTC()
	for i, m := range []struct {
		role    domain.MessageRole
		content string
	}{
		{domain.RoleUser, "hello"},
		{domain.RoleAssistant, "hi there"},
		{domain.RoleUser, "and then?"},
	} {
		require.NoError(t, f.chats.SaveMessage(ctx, &domain.ChatMessage{
			ID:        "m" + string(rune('a'+i)),
			SessionID: "s1",
			Role:      m.role,
			Content:   m.content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	svc := NewRAGService(f.ports, RAGConfig{HistoryLimit: 2})
	_, err := svc.Query(ctx, driving.QueryRequest{SessionID: "s1", Message: "now"})
	require.NoError(t, err)

	require.Len(t, f.llm.calls, 1)
	messages := f.llm.calls[0]
	require.Len(t, messages, 3)
	assert.Equal(t, driven.ChatMessage{Role: driven.RoleAssistant, Content: "hi there"}, messages[0])
	assert.Equal(t, driven.ChatMessage{Role: driven.RoleUser, Content: "and then?"}, messages[1])
	assert.Equal(t, driven.RoleUser, messages[2].Role)
	assert.Contains(t, messages[2].Content, "User question: now")
}

func TestRAGService_Query_FallbackResponse(t *testing.T) {
	f := newRAGFixture(t)
	f.llm.response = "   "
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, "I could not generate a response.", result.Content)
}

func TestRAGService_Query_CustomPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		err      error
		want     string
	}{
		{
			name:     "placeholder replaced",
			template: "Be brief.\n%s",
			want:     "Be brief.\nNo relevant context found.\n\nUser question: q",
		},
		{
			name:     "context appended without placeholder",
			template: "Be brief.",
			want:     "Be brief.\n\nContext:\nNo relevant context found.\n\nUser question: q",
		},
		{
			name: "load error uses built-in",
			err:  errUpstream,
			want: strings.Replace(driven.DefaultRAGSystemPrompt, "%s", "No relevant context found.", 1) + "\n\nUser question: q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRAGFixture(t)
			f.ports.Prompts = &mockPrompts{template: tt.template, err: tt.err}
			svc := NewRAGService(f.ports, DefaultRAGConfig())

			_, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.llm.lastPrompt())
		})
	}
}

func TestRAGService_Query_UnknownTitle(t *testing.T) {
	f := newRAGFixture(t)
	f.addChunks(t, "d1", "", "body")
	f.vectors.hits = []driven.VectorHit{hit("d1-0", 0.8)}
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	result, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Unknown", result.Sources[0].DocumentTitle)
	assert.Contains(t, f.llm.lastPrompt(), "[Source 1] Unknown:\nbody")
}

func TestRAGService_Query_GenerationOptions(t *testing.T) {
	f := newRAGFixture(t)
	svc := NewRAGService(f.ports, DefaultRAGConfig())

	_, err := svc.Query(context.Background(), driving.QueryRequest{Message: "q"})
	require.NoError(t, err)

	require.Len(t, f.llm.opts, 1)
	assert.InDelta(t, 0.7, f.llm.opts[0].Temperature, 1e-9)
	assert.Equal(t, 1000, f.llm.opts[0].MaxTokens)
}

func TestRAGService_Query_Errors(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		f := newRAGFixture(t)
		_, err := NewRAGService(f.ports, DefaultRAGConfig()).Query(context.Background(), driving.QueryRequest{Message: " "})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, f.embedder.queries)
	})

	t.Run("embedding failure", func(t *testing.T) {
		f := newRAGFixture(t)
		f.embedder.err = errUpstream
		_, err := NewRAGService(f.ports, DefaultRAGConfig()).Query(context.Background(), driving.QueryRequest{Message: "q"})
		assert.ErrorIs(t, err, errUpstream)
		assert.Empty(t, f.llm.calls)
	})

	t.Run("search failure", func(t *testing.T) {
		f := newRAGFixture(t)
		f.vectors.err = errUpstream
		_, err := NewRAGService(f.ports, DefaultRAGConfig()).Query(context.Background(), driving.QueryRequest{Message: "q"})
		assert.ErrorIs(t, err, errUpstream)
		assert.Empty(t, f.llm.calls)
	})

	t.Run("generation failure", func(t *testing.T) {
		f := newRAGFixture(t)
		f.llm.err = errUpstream
		_, err := NewRAGService(f.ports, DefaultRAGConfig()).Query(context.Background(), driving.QueryRequest{Message: "q"})
		assert.ErrorIs(t, err, errUpstream)
	})
}
