// Package metadata stores small device-local values (the PIN verifier and
// its salt, the last signed-in owner) in the local sqlite database.
package metadata

import (
	"context"
)

// Repository is a key/value store. Get returns (nil, nil) for missing keys.
// List and Clear operate on every key starting with prefix; "" means all.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	Clear(ctx context.Context, prefix string) error
}
