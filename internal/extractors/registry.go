// Package extractors converts uploaded file bytes into plain text.
//
// Each subpackage handles one format. Extractors are registered with a
// Registry at startup and selected by the document's media type.
package extractors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/docx"
	"github.com/custodia-labs/docrag/internal/extractors/pdf"
	"github.com/custodia-labs/docrag/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps media types to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.MediaType]driven.TextExtractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.MediaType]driven.TextExtractor),
	}
}

// NewDefaultRegistry creates a registry with the pdf, docx and txt extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor for each of its media types.
// A later registration replaces an earlier one for the same type.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range extractor.MediaTypes() {
		r.extractors[domain.ParseMediaType(string(mt))] = extractor
	}
}

// Extract dispatches to the extractor registered for mediaType.
func (r *Registry) Extract(ctx context.Context, data []byte, mediaType domain.MediaType) (string, error) {
	mt := domain.ParseMediaType(string(mediaType))

	r.mu.RLock()
	extractor, ok := r.extractors[mt]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, mediaType)
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", mt, err)
	}
	return text, nil
}

// Supported returns all registered media types, sorted.
func (r *Registry) Supported() []domain.MediaType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.MediaType, 0, len(r.extractors))
	for mt := range r.extractors {
		types = append(types, mt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
