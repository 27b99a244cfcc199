package driven

import "context"

// ObjectStore holds raw uploaded file bytes keyed by a path string.
type ObjectStore interface {
	// Upload stores data at path, replacing existing content.
	Upload(ctx context.Context, path string, data []byte) error

	// Download returns the bytes at path.
	// Returns domain.ErrNotFound if nothing is stored there.
	Download(ctx context.Context, path string) ([]byte, error)

	// Delete removes the bytes at path. A missing path is not an error.
	Delete(ctx context.Context, path string) error
}
