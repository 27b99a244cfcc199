// Package bolt implements driven.ObjectStore on a single bbolt file.
//
// Uploaded file bytes are kept in one bucket keyed by their storage path.
// bbolt allows one writer at a time and any number of readers, so the store
// is safe for concurrent use without extra locking.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure ObjectStore implements the interface.
var _ driven.ObjectStore = (*ObjectStore)(nil)

// DatabaseFile is the bbolt file name inside the data directory.
const DatabaseFile = "objects.db"

var bucketFiles = []byte("files")

// ObjectStore stores raw file bytes in bbolt.
type ObjectStore struct {
	db   *bbolt.DB
	path string
}

// NewObjectStore opens or creates the object database in dataDir.
func NewObjectStore(dataDir string) (*ObjectStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFiles)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucketFiles, err)
	}

	return &ObjectStore{db: db, path: path}, nil
}

// Upload stores data at path, replacing existing content.
func (s *ObjectStore) Upload(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: empty object path", domain.ErrInvalidInput)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(path), data)
	})
}

// Download returns a copy of the bytes at path.
func (s *ObjectStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(path))
		if data == nil {
			return fmt.Errorf("object %s: %w", path, domain.ErrNotFound)
		}
		// Bytes returned by Get are only valid for the life of the transaction.
		out = append([]byte{}, data...)
		return nil
	})
	return out, err
}

// Delete removes the bytes at path. A missing path is not an error.
func (s *ObjectStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Delete([]byte(path))
	})
}

// Path returns the database file path.
func (s *ObjectStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *ObjectStore) Close() error {
	return s.db.Close()
}
