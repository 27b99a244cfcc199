package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

const (
	unknownTitle       = "Unknown"
	excerptRunes       = 200
	excerptMarker      = "..."
	contextSeparator   = "\n\n---\n\n"
	noContextMarker    = "No relevant context found."
	fallbackResponse   = "I could not generate a response."
	questionPrefix     = "\n\nUser question: "
	contextPlaceholder = "%s"
)

// RAGConfig configures retrieval and generation.
type RAGConfig struct {
	// IndexName is the vector index to search (default: "documents").
	IndexName string

	// TopK bounds the number of retrieved hits (default: 10).
	TopK int

	// Threshold drops hits scoring below it (default: 0.3).
	Threshold float64

	// HistoryLimit is the number of prior messages sent to the model (default: 10).
	HistoryLimit int

	// Temperature is the sampling temperature (default: 0.7).
	Temperature float64

	// MaxTokens bounds the generated answer (default: 1000).
	MaxTokens int
}

// DefaultRAGConfig returns the canonical retrieval settings.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		IndexName:    domain.DefaultIndexName,
		TopK:         10,
		Threshold:    0.3,
		HistoryLimit: 10,
		Temperature:  0.7,
		MaxTokens:    1000,
	}
}

// RAGPorts holds the driven ports the retrieval pipeline depends on.
type RAGPorts struct {
	Embedder  driven.EmbeddingService
	Vectors   driven.VectorIndex
	Documents driven.DocumentStore
	Chats     driven.ChatStore
	LLM       driven.LLMService

	// Prompts is optional. Without it the built-in instruction is used.
	Prompts driven.PromptStore
}

// RAGService answers questions grounded on indexed chunks.
type RAGService struct {
	ports RAGPorts
	cfg   RAGConfig
}

// NewRAGService creates a retrieval service. Zero config fields take their
// defaults, except Threshold and Temperature where zero is meaningful.
func NewRAGService(ports RAGPorts, cfg RAGConfig) *RAGService {
	defaults := DefaultRAGConfig()
	if cfg.IndexName == "" {
		cfg.IndexName = defaults.IndexName
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	return &RAGService{ports: ports, cfg: cfg}
}

// Query runs the retrieval pipeline for one chat turn. It has no side effects.
func (s *RAGService) Query(ctx context.Context, req driving.QueryRequest) (*driving.QueryResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	logger.Section("Query")

	queryVector, err := s.ports.Embedder.Embed(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	query := driven.VectorQuery{Vector: queryVector, TopK: s.cfg.TopK}
	if len(req.DocumentIDs) > 0 {
		query.Filter = &driven.VectorFilter{Field: driven.MetaDocumentID, In: req.DocumentIDs}
	}

	hits, err := s.ports.Vectors.Search(ctx, s.cfg.IndexName, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.cfg.IndexName, err)
	}

	relevant := make([]driven.VectorHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= s.cfg.Threshold {
			relevant = append(relevant, hit)
		}
	}
	logger.Debug("Search returned %d hits, %d above threshold %.2f", len(hits), len(relevant), s.cfg.Threshold)

	sources, blocks, err := s.resolve(ctx, relevant)
	if err != nil {
		return nil, err
	}

	history, err := s.history(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	contextText := strings.Join(blocks, contextSeparator)
	if contextText == "" {
		contextText = noContextMarker
	}
	prompt := s.systemPrompt(contextText) + questionPrefix + req.Message

	messages := append(history, driven.ChatMessage{Role: driven.RoleUser, Content: prompt})
	content, err := s.ports.LLM.Chat(ctx, messages, driven.ChatOptions{
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		content = fallbackResponse
	}

	return &driving.QueryResult{Content: content, Sources: sources}, nil
}

// resolve joins hits with their chunk records. Hits whose chunk is gone are dropped.
// Each source and context block is built from the chunk of its own hit.
func (s *RAGService) resolve(ctx context.Context, hits []driven.VectorHit) ([]domain.Source, []string, error) {
	sources := []domain.Source{}
	if len(hits) == 0 {
		return sources, nil, nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	chunks, err := s.ports.Documents.GetChunksByEmbeddingIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch chunks: %w", err)
	}

	byEmbedding := make(map[string]domain.ChunkWithDocument, len(chunks))
	for _, c := range chunks {
		byEmbedding[c.EmbeddingID] = c
	}

	var blocks []string
	for _, hit := range hits {
		chunk, ok := byEmbedding[hit.ID]
		if !ok {
			logger.Debug("Dropping stale hit %s", hit.ID)
			continue
		}

		title := chunk.DocumentName
		if title == "" {
			title = unknownTitle
		}
		sources = append(sources, domain.Source{
			DocumentID:    chunk.DocumentID,
			DocumentTitle: title,
			ChunkIndex:    chunk.Index,
			Content:       excerpt(chunk.Content),
			Similarity:    hit.Score,
		})
		blocks = append(blocks, fmt.Sprintf("[Source %d] %s:\n%s", len(sources), title, chunk.Content))
	}
	return sources, blocks, nil
}

func (s *RAGService) history(ctx context.Context, sessionID string) ([]driven.ChatMessage, error) {
	if sessionID == "" || s.cfg.HistoryLimit == 0 || s.ports.Chats == nil {
		return nil, nil
	}

	msgs, err := s.ports.Chats.RecentMessages(ctx, sessionID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]driven.ChatMessage, 0, len(msgs)+1)
	for _, m := range msgs {
		role := driven.RoleUser
		if m.Role == domain.RoleAssistant {
			role = driven.RoleAssistant
		}
		history = append(history, driven.ChatMessage{Role: role, Content: m.Content})
	}
	return history, nil
}

// systemPrompt fills the rag_system template with the assembled context.
// A customised template without a placeholder gets the context appended.
func (s *RAGService) systemPrompt(contextText string) string {
	template := driven.DefaultRAGSystemPrompt
	if s.ports.Prompts != nil {
		if custom, err := s.ports.Prompts.Load(driven.PromptRAGSystem); err == nil && strings.TrimSpace(custom) != "" {
			template = custom
		} else if err != nil {
			logger.Debug("Using built-in %s prompt: %v", driven.PromptRAGSystem, err)
		}
	}

	if !strings.Contains(template, contextPlaceholder) {
		return template + "\n\nContext:\n" + contextText
	}
	return strings.Replace(template, contextPlaceholder, contextText, 1)
}

// excerpt returns the first excerptRunes runes of content followed by the marker.
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > excerptRunes {
		runes = runes[:excerptRunes]
	}
	return string(runes) + excerptMarker
}
