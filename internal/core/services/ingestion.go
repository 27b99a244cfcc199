package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/postprocessors/chunker"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// ErrIngestionClosed is returned by Submit after Close.
var ErrIngestionClosed = errors.New("ingestion service closed")

// IngestionConfig configures the ingestion pipeline.
type IngestionConfig struct {
	// IndexName is the shared vector index (default: "documents").
	IndexName string

	// MaxTokens is the chunk token budget (default: 500).
	MaxTokens int

	// OverlapTokens controls the carry-over between chunks (default: 100).
	// Negative values are treated as zero.
	OverlapTokens int

	// Workers bounds concurrent asynchronous runs (default: 2).
	Workers int
}

// DefaultIngestionConfig returns the canonical pipeline settings.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		IndexName:     domain.DefaultIndexName,
		MaxTokens:     domain.DefaultMaxTokens,
		OverlapTokens: domain.DefaultOverlapTokens,
		Workers:       domain.DefaultIngestionWorkers,
	}
}

// IngestionPorts holds the driven ports the pipeline depends on.
type IngestionPorts struct {
	Documents  driven.DocumentStore
	Objects    driven.ObjectStore
	Extractors driven.ExtractorRegistry
	Embedder   driven.EmbeddingService
	Vectors    driven.VectorIndex
}

// IngestionService fetches, extracts, chunks, embeds and indexes documents.
type IngestionService struct {
	ports   IngestionPorts
	cfg     IngestionConfig
	chunker *chunker.Chunker

	sem chan struct{}
	wg  sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]struct{}
	closed   bool
}

// NewIngestionService creates an ingestion service.
// Zero config fields take their defaults.
func NewIngestionService(ports IngestionPorts, cfg IngestionConfig, opts ...chunker.Option) *IngestionService {
	defaults := DefaultIngestionConfig()
	if cfg.IndexName == "" {
		cfg.IndexName = defaults.IndexName
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}

	return &IngestionService{
		ports:    ports,
		cfg:      cfg,
		chunker:  chunker.New(opts...),
		sem:      make(chan struct{}, cfg.Workers),
		inFlight: make(map[string]struct{}),
	}
}

// Submit queues an asynchronous run and returns immediately.
// The run is detached from ctx cancellation. Only its values are kept.
func (s *IngestionService) Submit(ctx context.Context, documentID string) error {
	if _, err := s.ports.Documents.GetDocument(ctx, documentID); err != nil {
		return fmt.Errorf("get document %s: %w", documentID, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrIngestionClosed
	}
	if _, busy := s.inFlight[documentID]; busy {
		s.mu.Unlock()
		return fmt.Errorf("document %s: %w", documentID, domain.ErrIngestionInProgress)
	}
	s.inFlight[documentID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		defer s.release(documentID)

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		if err := s.Process(runCtx, documentID); err != nil {
			logger.Warn("Ingestion of %s failed: %v", documentID, err)
		}
	}()

	logger.Debug("Queued ingestion for %s", documentID)
	return nil
}

func (s *IngestionService) release(documentID string) {
	s.mu.Lock()
	delete(s.inFlight, documentID)
	s.mu.Unlock()
}

// InFlight reports whether a run for documentID is queued or running.
func (s *IngestionService) InFlight(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[documentID]
	return ok
}

// Wait blocks until every submitted run has finished.
func (s *IngestionService) Wait() {
	s.wg.Wait()
}

// Close stops accepting submissions and waits for running work.
func (s *IngestionService) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Process runs the pipeline for a document synchronously.
// Any failure after the processing status is written marks the document failed.
// Vectors and chunks already written are left in place.
func (s *IngestionService) Process(ctx context.Context, documentID string) error {
	logger.Section("Ingest " + documentID)
	start := time.Now()

	if err := s.ports.Documents.UpdateStatus(ctx, documentID, domain.DocumentStatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	count, err := s.run(ctx, documentID)
	if err != nil {
		if serr := s.ports.Documents.UpdateStatus(ctx, documentID, domain.DocumentStatusFailed); serr != nil {
			logger.Warn("Could not mark %s failed: %v", documentID, serr)
		}
		return err
	}

	logger.Info("Ingested %s: %d chunks in %s", documentID, count, time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *IngestionService) run(ctx context.Context, documentID string) (int, error) {
	doc, err := s.ports.Documents.GetDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}

	data, err := s.ports.Objects.Download(ctx, doc.FilePath)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", doc.FilePath, err)
	}
	logger.Debug("Downloaded %d bytes from %s", len(data), doc.FilePath)

	text, err := s.ports.Extractors.Extract(ctx, data, doc.FileType)
	if err != nil {
		return 0, err
	}
	logger.Debug("Extracted %d characters", len(text))

	pieces := s.chunker.Chunk(text, s.cfg.MaxTokens, s.cfg.OverlapTokens)
	logger.Debug("Split into %d chunks", len(pieces))

	if len(pieces) == 0 {
		if err := s.ports.Documents.CompleteDocument(ctx, doc.ID, 0); err != nil {
			return 0, fmt.Errorf("complete document: %w", err)
		}
		return 0, nil
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}

	vectors, err := s.ports.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(pieces) {
		return 0, fmt.Errorf("%w: embed chunks: got %d vectors for %d chunks",
			domain.ErrUpstreamFailure, len(vectors), len(pieces))
	}

	if err := s.ports.Vectors.EnsureIndex(ctx, s.cfg.IndexName, s.ports.Embedder.Dimensions()); err != nil {
		return 0, fmt.Errorf("ensure index %s: %w", s.cfg.IndexName, err)
	}

	for i, piece := range pieces {
		embeddingID := domain.EmbeddingID(doc.ID, i)

		entry := driven.VectorEntry{
			ID:     embeddingID,
			Vector: vectors[i],
			Metadata: map[string]any{
				driven.MetaDocumentID: doc.ID,
				driven.MetaChunkIndex: i,
			},
		}
		if err := s.ports.Vectors.Upsert(ctx, s.cfg.IndexName, entry); err != nil {
			return 0, fmt.Errorf("upsert vector %s: %w", embeddingID, err)
		}

		chunk := &domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			Index:       i,
			Content:     piece.Content,
			TokenCount:  piece.TokenCount,
			EmbeddingID: embeddingID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.ports.Documents.SaveChunk(ctx, chunk); err != nil {
			return 0, fmt.Errorf("save chunk %d: %w", i, err)
		}
	}

	if err := s.ports.Documents.CompleteDocument(ctx, doc.ID, len(pieces)); err != nil {
		return 0, fmt.Errorf("complete document: %w", err)
	}
	return len(pieces), nil
}
