package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// TextExtractor converts raw file bytes of one media type into plain text.
type TextExtractor interface {
	// Extract returns the text content of data.
	Extract(ctx context.Context, data []byte) (string, error)

	// MediaTypes returns the media types this extractor handles.
	MediaTypes() []domain.MediaType
}

// ExtractorRegistry selects a TextExtractor by media type.
type ExtractorRegistry interface {
	// Register adds an extractor for each of its media types.
	Register(extractor TextExtractor)

	// Extract dispatches to the extractor registered for mediaType.
	// Returns domain.ErrUnsupportedFormat if none is registered.
	Extract(ctx context.Context, data []byte, mediaType domain.MediaType) (string, error)

	// Supported returns all registered media types.
	Supported() []domain.MediaType
}
