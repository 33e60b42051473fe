// Package storage abstracts binary asset persistence (photos, ID cards,
// rendered PDFs). Failures in this layer are side-path failures: callers
// log and continue, the primary operation never depends on it.
package storage

import "context"

// Object describes a stored asset.
type Object struct {
	Key string
	URL string
}

// Store is the object storage collaborator.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
	Delete(ctx context.Context, key string) error
}
