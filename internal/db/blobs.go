package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/studybuddy/internal/models"
)

// PutBlob stores raw bytes under a path, replacing any existing blob.
// The path doubles as the record ID so writes are idempotent.
func (c *Client) PutBlob(ctx context.Context, path string, data []byte) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("blob", $path) SET
			path = $path,
			data = $data
		RETURN NONE
	`, map[string]any{"path": path, "data": data})
	if err != nil {
		return fmt.Errorf("put blob: %w", wrapQueryError(err))
	}
	return nil
}

// GetBlob retrieves the raw bytes stored under a path.
// Returns models.ErrNotFound if no blob exists there.
func (c *Client) GetBlob(ctx context.Context, path string) ([]byte, error) {
	results, err := surrealdb.Query[[]struct {
		Data []byte `json:"data"`
	}](ctx, c.db, `
		SELECT data FROM type::record("blob", $path)
	`, map[string]any{"path": path})
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: blob %s", models.ErrNotFound, path)
	}
	return (*results)[0].Result[0].Data, nil
}

// DeleteBlob removes the blob stored under a path. Idempotent.
func (c *Client) DeleteBlob(ctx context.Context, path string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("blob", $path)
	`, map[string]any{"path": path})
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
