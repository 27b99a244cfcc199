// Package ai provides factory functions for creating AI and vector service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"

	geminiembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/endee"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/milvus"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// ErrNotConfigured is returned when a provider is missing or lacks credentials.
var ErrNotConfigured = errors.New("provider not configured")

// InitResult holds the services built from application settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding, LLM and vector services. Connectivity is not checked;
// the first failing request surfaces as an upstream failure.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	embed, err := CreateEmbeddingService(&settings.Embedding, settings.Vector.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		embed.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}

	index, err := CreateVectorIndex(ctx, &settings.Vector)
	if err != nil {
		embed.Close()
		llm.Close()
		return nil, fmt.Errorf("vector: %w", err)
	}

	return &InitResult{EmbeddingService: embed, LLMService: llm, VectorIndex: index}, nil
}

// CreateEmbeddingService creates the embedding service named by settings.
// A non-zero dimensions asks providers that support it for reduced-size vectors.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, ErrNotConfigured
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use gemini, ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %q", ErrNotConfigured, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderOllama:
		native := domain.EmbeddingDimensions()[settings.Model]
		if native == 0 {
			native = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        native,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		if dimensions == 0 {
			dimensions = domain.EmbeddingDimensions()[settings.Model]
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, ErrNotConfigured
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateVectorIndex creates the vector index client named by settings.
// Milvus dials on creation; the REST backends connect lazily.
func CreateVectorIndex(ctx context.Context, settings *domain.VectorSettings) (driven.VectorIndex, error) {
	if settings == nil {
		return nil, ErrNotConfigured
	}

	switch settings.Backend {
	case domain.VectorBackendEndee, "":
		return endee.New(endee.Config{BaseURL: settings.URL, Token: settings.Token}), nil

	case domain.VectorBackendQdrant:
		return qdrant.New(qdrant.Config{BaseURL: settings.URL, APIKey: settings.Token}), nil

	case domain.VectorBackendMilvus:
		return milvus.New(ctx, milvus.Config{Address: settings.URL, Token: settings.Token})

	case domain.VectorBackendMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", settings.Backend)
	}
}
