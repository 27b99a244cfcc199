// Package milvus provides a vector index adapter backed by Milvus.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultAddress is the Milvus gRPC address used when none is configured.
const DefaultAddress = "localhost:19530"

// Collection field names.
const (
	FieldID         = "id"
	FieldVector     = "vector"
	FieldDocumentID = "document_id"
	FieldChunkIndex = "chunk_index"
)

const idMaxLength = "255"

// Config holds configuration for the Milvus index.
type Config struct {
	Address   string
	Token     string
	BatchSize int
}

// Index is a driven.VectorIndex backed by a Milvus collection per index name.
type Index struct {
	client    *milvusclient.Client
	batchSize int

	mu   sync.Mutex
	dims map[string]int
}

// New connects to Milvus.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = driven.UpsertBatchSize
	}

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
		APIKey:  cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to milvus at %s: %w", domain.ErrUpstreamFailure, cfg.Address, err)
	}

	return &Index{client: c, batchSize: cfg.BatchSize, dims: make(map[string]int)}, nil
}

// EnsureIndex creates and loads a cosine HNSW collection if it is missing.
func (m *Index) EnsureIndex(ctx context.Context, name string, dimensions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dims[name]; ok {
		return nil
	}

	exists, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return upstream("check collection "+name, err)
	}

	if !exists {
		logger.Info("milvus: creating collection %s (%d dims)", name, dimensions)
		if err := m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema(name, dimensions))); err != nil {
			return upstream("create collection "+name, err)
		}

		idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
		if _, err := m.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldVector, idx)); err != nil {
			return upstream("create index on "+name, err)
		}
	}

	if _, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name)); err != nil {
		return upstream("load collection "+name, err)
	}

	m.dims[name] = dimensions
	return nil
}

func schema(name string, dimensions int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "Document chunk embeddings",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": idMaxLength},
			},
			{
				Name:       FieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dimensions)},
			},
			{
				Name:       FieldDocumentID,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": idMaxLength},
			},
			{
				Name:     FieldChunkIndex,
				DataType: entity.FieldTypeInt64,
			},
		},
	}
}

// Upsert inserts or replaces a single entry.
func (m *Index) Upsert(ctx context.Context, name string, entry driven.VectorEntry) error {
	return m.UpsertBatch(ctx, name, []driven.VectorEntry{entry})
}

// UpsertBatch inserts or replaces entries in sub-batches.
func (m *Index) UpsertBatch(ctx context.Context, name string, entries []driven.VectorEntry) error {
	m.mu.Lock()
	dim, ok := m.dims[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("milvus: collection %s not ensured: %w", name, domain.ErrNotFound)
	}

	for _, batch := range vector.Batches(entries, m.batchSize) {
		cols, err := columns(batch, dim)
		if err != nil {
			return err
		}

		opt := milvusclient.NewColumnBasedInsertOption(name).
			WithVarcharColumn(FieldID, cols.ids).
			WithFloatVectorColumn(FieldVector, dim, cols.vectors).
			WithVarcharColumn(FieldDocumentID, cols.documentIDs).
			WithInt64Column(FieldChunkIndex, cols.chunkIndexes)

		if _, err := m.client.Upsert(ctx, opt); err != nil {
			return upstream(fmt.Sprintf("upsert %d entries", len(batch)), err)
		}
	}
	return nil
}

type columnData struct {
	ids          []string
	vectors      [][]float32
	documentIDs  []string
	chunkIndexes []int64
}

// columns flattens entries into column slices, reading the known metadata keys.
func columns(entries []driven.VectorEntry, dim int) (columnData, error) {
	var cols columnData
	for _, e := range entries {
		if len(e.Vector) != dim {
			return columnData{}, fmt.Errorf("milvus: entry %s has %d dims, want %d: %w",
				e.ID, len(e.Vector), dim, domain.ErrDimensionMismatch)
		}
		docID, _ := e.Metadata[driven.MetaDocumentID].(string)
		chunk, _ := toInt64(e.Metadata[driven.MetaChunkIndex])

		cols.ids = append(cols.ids, e.ID)
		cols.vectors = append(cols.vectors, e.Vector)
		cols.documentIDs = append(cols.documentIDs, docID)
		cols.chunkIndexes = append(cols.chunkIndexes, chunk)
	}
	return cols, nil
}

// Search runs a cosine nearest-neighbour query.
func (m *Index) Search(ctx context.Context, name string, query driven.VectorQuery) ([]driven.VectorHit, error) {
	if vector.MatchesNothing(query.Filter) {
		return []driven.VectorHit{}, nil
	}

	opt := milvusclient.NewSearchOption(name, query.TopK, []entity.Vector{entity.FloatVector(query.Vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldDocumentID, FieldChunkIndex)

	if expr := filterExpr(query.Filter); expr != "" {
		opt = opt.WithFilter(expr)
	}

	results, err := m.client.Search(ctx, opt)
	if err != nil {
		return nil, upstream("search "+name, err)
	}

	var hits []driven.VectorHit
	for _, rs := range results {
		docCol := rs.GetColumn(FieldDocumentID)
		chunkCol := rs.GetColumn(FieldChunkIndex)

		for i := 0; i < rs.ResultCount; i++ {
			id, err := rs.IDs.GetAsString(i)
			if err != nil {
				continue
			}
			meta := map[string]any{}
			if docCol != nil {
				if v, err := docCol.GetAsString(i); err == nil {
					meta[driven.MetaDocumentID] = v
				}
			}
			if chunkCol != nil {
				if v, err := chunkCol.GetAsInt64(i); err == nil {
					meta[driven.MetaChunkIndex] = int(v)
				}
			}
			hits = append(hits, driven.VectorHit{ID: id, Score: float64(rs.Scores[i]), Metadata: meta})
		}
	}
	return hits, nil
}

// Delete removes an entry by primary key.
func (m *Index) Delete(ctx context.Context, name string, id string) error {
	if _, err := m.client.Delete(ctx, milvusclient.NewDeleteOption(name).WithStringIDs(FieldID, []string{id})); err != nil {
		return upstream("delete "+id, err)
	}
	return nil
}

// HealthCheck lists collections to confirm the server responds.
func (m *Index) HealthCheck(ctx context.Context) bool {
	_, err := m.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	return err == nil
}

// Close closes the client connection.
func (m *Index) Close() error {
	return m.client.Close(context.Background())
}

// fieldName maps a metadata key onto its collection field.
func fieldName(key string) string {
	switch key {
	case driven.MetaDocumentID:
		return FieldDocumentID
	case driven.MetaChunkIndex:
		return FieldChunkIndex
	default:
		return key
	}
}

// filterExpr renders a membership filter as a Milvus boolean expression.
// Search handles the empty filter before this is reached.
func filterExpr(f *driven.VectorFilter) string {
	if f == nil || len(f.In) == 0 {
		return ""
	}
	quoted := make([]string, len(f.In))
	for i, v := range f.In {
		quoted[i] = strconv.Quote(v)
	}
	return fmt.Sprintf("%s in [%s]", fieldName(f.Field), strings.Join(quoted, ", "))
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: milvus: %s: %w", domain.ErrUpstreamFailure, op, err)
}
