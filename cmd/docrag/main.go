// Command docrag ingests documents and answers questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/extractors"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetLoader(load)

	// cobra prints the error.
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// load opens the stores and AI clients and assembles the services.
func load(ctx context.Context, settings *domain.AppSettings) (*cli.Ports, error) {
	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		dataDir = dir
	}
	logger.Debug("Data directory %s", dataDir)

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	objects, err := bolt.NewObjectStore(dataDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	clients, err := ai.Init(ctx, settings)
	if err != nil {
		objects.Close()
		store.Close()
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		clients.Close()
		objects.Close()
		store.Close()
		return nil, err
	}

	docs := store.DocumentStore()
	chats := store.ChatStore()
	index := settings.Vector.Index

	ingestCfg := services.DefaultIngestionConfig()
	ingestCfg.IndexName = index
	ingestCfg.MaxTokens = settings.Ingestion.MaxTokens
	ingestCfg.OverlapTokens = settings.Ingestion.OverlapTokens
	ingestCfg.Workers = settings.Ingestion.Workers

	ingestion := services.NewIngestionService(services.IngestionPorts{
		Documents:  docs,
		Objects:    objects,
		Extractors: extractors.NewDefaultRegistry(),
		Embedder:   clients.EmbeddingService,
		Vectors:    clients.VectorIndex,
	}, ingestCfg)

	ragCfg := services.DefaultRAGConfig()
	ragCfg.IndexName = index
	rag := services.NewRAGService(services.RAGPorts{
		Embedder:  clients.EmbeddingService,
		Vectors:   clients.VectorIndex,
		Documents: docs,
		Chats:     chats,
		LLM:       clients.LLMService,
		Prompts:   prompts,
	}, ragCfg)

	return &cli.Ports{
		Documents: services.NewDocumentService(docs, objects, clients.VectorIndex, index),
		Ingestion: ingestion,
		RAG:       rag,
		Chat:      services.NewChatService(chats, rag),
		Vectors:   clients.VectorIndex,
		Close: func() error {
			clients.Close()
			return errors.Join(objects.Close(), store.Close())
		},
	}, nil
}
