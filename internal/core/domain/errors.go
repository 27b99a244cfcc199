package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation indicates a request is missing required fields.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFormat indicates no extractor exists for a media type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUpstreamFailure indicates an embedding, vector index or model
	// service was unreachable or returned an error.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrIngestionInProgress indicates a document already has a queued or running ingestion.
	ErrIngestionInProgress = errors.New("ingestion in progress")

	// ErrDimensionMismatch indicates the embedding model and vector index disagree on size.
	// This is a configuration error and is not recoverable at runtime.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
