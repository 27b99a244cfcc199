package domain

import (
	"strconv"
	"strings"
	"time"
)

// DocumentStatus is the ingestion state of a document.
type DocumentStatus string

// Document lifecycle states.
const (
	// DocumentStatusPending is set on upload, before ingestion starts.
	DocumentStatusPending DocumentStatus = "pending"

	// DocumentStatusProcessing is set when an ingestion run begins.
	DocumentStatusProcessing DocumentStatus = "processing"

	// DocumentStatusCompleted is set once every chunk has been indexed.
	DocumentStatusCompleted DocumentStatus = "completed"

	// DocumentStatusFailed is set when an ingestion run errors.
	DocumentStatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusCompleted, DocumentStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and failed.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusCompleted || s == DocumentStatusFailed
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// MediaType identifies the file format of an uploaded document.
type MediaType string

// Supported media types.
const (
	MediaTypePDF  MediaType = "pdf"
	MediaTypeDOCX MediaType = "docx"
	MediaTypeTXT  MediaType = "txt"
)

// mimeTypes maps content types to media types.
var mimeTypes = map[string]MediaType{
	"application/pdf": MediaTypePDF,
	"text/plain":      MediaTypeTXT,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": MediaTypeDOCX,
}

// ParseMediaType normalises a file type string, extension (".PDF", "pdf")
// or content type ("application/pdf; charset=binary").
func ParseMediaType(s string) MediaType {
	s = strings.ToLower(strings.TrimSpace(s))
	if base, _, ok := strings.Cut(s, ";"); ok {
		s = strings.TrimSpace(base)
	}
	if m, ok := mimeTypes[s]; ok {
		return m
	}
	return MediaType(strings.TrimPrefix(s, "."))
}

// IsSupported returns true if an extractor exists for the media type.
func (m MediaType) IsSupported() bool {
	switch m {
	case MediaTypePDF, MediaTypeDOCX, MediaTypeTXT:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MediaType) String() string {
	return string(m)
}

// Document represents an uploaded file and its ingestion state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the display name, used as the citation title.
	Name string

	// FileName is the original uploaded filename.
	FileName string

	// FileType is the media type used to select an extractor.
	FileType MediaType

	// FileSize is the byte size of the upload.
	FileSize int64

	// FilePath is the object storage locator for the raw bytes.
	FilePath string

	// Status is the ingestion state. Only the ingestion pipeline writes it.
	Status DocumentStatus

	// ChunkCount equals the number of persisted chunks once completed.
	ChunkCount int

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document record last changed.
	UpdatedAt time.Time
}

// Chunk is a bounded excerpt of a document's text, the unit of retrieval.
// Chunks are created in a batch per document and never modified.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the zero-based sequence position within the document.
	Index int

	// Content is the text content of this chunk.
	Content string

	// TokenCount is the estimated token count of Content.
	TokenCount int

	// EmbeddingID is the id of the matching vector index entry.
	EmbeddingID string

	// CreatedAt is when the chunk was persisted.
	CreatedAt time.Time
}

// ChunkWithDocument is a chunk joined with its document's display name.
// DocumentName is empty when the document record no longer resolves.
type ChunkWithDocument struct {
	Chunk
	DocumentName string
}

// EmbeddingID builds the vector entry id for a chunk position.
func EmbeddingID(documentID string, index int) string {
	return documentID + "-" + strconv.Itoa(index)
}
