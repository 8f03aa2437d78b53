// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3).
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"
)

// ErrNotFound indicates the store has no object under the requested key.
// Callers classify store failures with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object without its contents.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ObjectStore is the single choke point for all object-store interaction.
// Implementations hold no per-request state and are safe for concurrent use.
// No operation retries; every store failure is surfaced to the caller.
type ObjectStore interface {
	// Put streams reader to the store under key. size may be -1 when the
	// byte count is unknown; the implementation must not buffer the whole
	// object in memory either way.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Get opens the object at key for reading. The caller owns the returned
	// stream and must close it on every exit path.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting an absent key reports
	// ErrNotFound rather than silently succeeding.
	Delete(ctx context.Context, key string) error

	// Stat fetches object metadata without the contents. Never cached.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// PresignPut produces a time-limited signed URL for uploading to key.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error)

	// PresignGet produces a time-limited signed URL for downloading key,
	// optionally overriding the response content disposition and type.
	// Reports ErrNotFound when the key does not exist.
	PresignGet(ctx context.Context, key string, expiry time.Duration, contentDisposition, responseContentType string) (*url.URL, error)

	// Health reports whether the store answers a minimal listing request.
	// It never returns an error; any failure maps to false.
	Health(ctx context.Context) bool
}
