package types

import (
	"context"
	"errors"
)

// Storage is a flat key -> document store, the server-side stand-in for
// browser localStorage. Components that persist anything are handed one
// explicitly. Values are opaque bytes, in practice JSON text.
type Storage interface {
	// GetItem returns the value stored under key. The boolean reports
	// whether the key exists; a missing key is not an error.
	GetItem(ctx context.Context, key string) ([]byte, bool, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value []byte) error

	// RemoveItem deletes key. Removing a missing key succeeds.
	RemoveItem(ctx context.Context, key string) error

	// Keys lists every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases backend resources. Idempotent.
	Close() error
}

// Storage lifecycle errors.
var (
	ErrStorageClosed = errors.New("storage is closed")
	ErrInvalidKey    = errors.New("invalid storage key")
)
