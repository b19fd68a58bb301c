// Package objstore provides a uniform client for the two logical blob
// buckets (inputs and outputs): put, get-bytes, and URL resolution.
// No retries are built in at this layer; retry policy belongs to callers.
package objstore

import "context"

// Client is the object store contract used by the pipeline and facade.
type Client interface {
	// Put stores data at key in the given bucket. When allowOverwrite is
	// false and the key already exists, Put fails with common.ErrorConflict.
	// Transport failures surface as common.ErrorStoreUnavailable. A
	// successful Put has been confirmed readable (read-after-write).
	Put(ctx context.Context, bucket, key string, data []byte, contentType string, allowOverwrite bool) error

	// GetBytes returns the object's bytes, common.ErrorNotFound if the key
	// does not exist, or common.ErrorStoreUnavailable on transport error.
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)

	// Exists reports whether the key is present without fetching its bytes.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// ResolveURL returns a URL usable to fetch the object over plain HTTP.
	// It does not verify existence: dereferencing a resolved URL can still
	// 404. Fails with common.ErrorBadKey only on malformed input.
	ResolveURL(bucket, key string) (string, error)
}
