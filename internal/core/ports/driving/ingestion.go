package driving

import "context"

// IngestionService runs the document ingestion pipeline.
type IngestionService interface {
	// Process runs the pipeline for a document synchronously.
	// On failure the document is left in status=failed and the error returned.
	Process(ctx context.Context, documentID string) error

	// Submit queues an asynchronous run and returns immediately.
	// The document's status field is the completion signal.
	Submit(ctx context.Context, documentID string) error

	// Wait blocks until every submitted run has finished.
	Wait()

	// Close stops accepting submissions and waits for running work.
	Close() error
}
