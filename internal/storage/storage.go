// Package storage provides object storage for story audio and voice samples.
package storage

import (
	"context"
	"time"
)

// FileInfo describes a stored object.
type FileInfo struct {
	ID           string    `json:"id"` // object key
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Client is the object storage interface used by the pipeline and services.
// File IDs are opaque object keys.
type Client interface {
	// Upload stores data under a key derived from name and returns the file id.
	Upload(ctx context.Context, data []byte, name string) (string, error)
	// Download returns the object's bytes. A missing object yields a
	// NOT_FOUND error.
	Download(ctx context.Context, fileID string) ([]byte, error)
	// Delete removes the object. Callers on cascade paths treat failures as
	// best-effort and log them.
	Delete(ctx context.Context, fileID string) error
	// List returns metadata for objects under the given prefix; an empty
	// prefix lists the whole bucket.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
