// Package storage provides durable storage for raw transcript text.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/models"
)

// BlobStore stores raw transcript bytes under opaque paths.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// SurrealStore keeps blobs in the database alongside the metadata, so a
// single backup covers everything.
type SurrealStore struct {
	client *db.Client
}

var _ BlobStore = (*SurrealStore)(nil)

// NewSurrealStore creates a database-backed blob store.
func NewSurrealStore(client *db.Client) *SurrealStore {
	return &SurrealStore{client: client}
}

func (s *SurrealStore) Put(ctx context.Context, path string, data []byte) error {
	return s.client.PutBlob(ctx, path, data)
}

func (s *SurrealStore) Get(ctx context.Context, path string) ([]byte, error) {
	return s.client.GetBlob(ctx, path)
}

func (s *SurrealStore) Delete(ctx context.Context, path string) error {
	return s.client.DeleteBlob(ctx, path)
}

// MemoryStore is an in-process BlobStore for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ BlobStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[path] = cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", models.ErrNotFound, path)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	return nil
}
