// Package models provides the shared error taxonomy for pipeline operations.
package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidInput indicates bad caller input (empty text, bad chunk
	// parameters). Rejected immediately, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates the embedding/generation provider or
	// vector index stayed unavailable after bounded retries. The operation
	// failed for this item only; retrying later is expected to help.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInsufficientContext indicates retrieval found no relevant chunks,
	// so no grounded response can be produced.
	ErrInsufficientContext = errors.New("insufficient context")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCleanupPending indicates transcript metadata was removed but
	// chunk/vector cleanup failed and orphans remain in the index.
	// Recoverable via an idempotent purge operation.
	ErrCleanupPending = errors.New("metadata removed, orphan vectors pending cleanup")
)

// IngestFailure reports that the ingestion pipeline stopped at a stage.
// The stage is recorded against the transcript record so a resume can pick
// up from it instead of restarting.
type IngestFailure struct {
	TranscriptID string
	Stage        string
	Err          error
}

func (e *IngestFailure) Error() string {
	return fmt.Sprintf("ingestion of %s failed at stage %q: %v", e.TranscriptID, e.Stage, e.Err)
}

func (e *IngestFailure) Unwrap() error { return e.Err }

// Retryable reports whether retrying the ingestion is expected to help.
func (e *IngestFailure) Retryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable)
}
