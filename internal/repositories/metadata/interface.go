// Package metadata is the lightweight key/value slot of the local store.
// It carries the session snapshot and the persisted rate tables.
package metadata

import (
	"context"
)

// Repository stores opaque values under string keys.
// Get returns (nil, nil) when the key is absent and Delete is idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}
