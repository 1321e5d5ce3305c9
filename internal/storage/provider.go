// Package storage defines the blob store snapshots are exported to.
// Implementations live in subpackages (local filesystem, in-memory).
package storage

import (
	"context"
	"io"
)

// BlobStore persists an object under path and returns a URI for it.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
