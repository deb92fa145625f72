//go:generate go run go.uber.org/mock/mockgen -source=kv.go -destination=../mocks/mock_kv.go -package=mocks

// Package storage provides the key-value adapter the repositories are
// built on. Keys are plain strings, values opaque bytes; the adapter
// promises point lookups, prefix scans over values, and idempotent
// deletes. Any backend fault surfaces immediately: no retry, no cache.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("key not found")

type KV interface {
	// Set upserts the value at key.
	Set(ctx context.Context, key string, value []byte) error
	// Get returns the value at key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// DeleteMany removes every given key in one operation.
	DeleteMany(ctx context.Context, keys []string) error
	// ScanPrefix returns the values of every key starting with prefix.
	// Order is unspecified; callers sort where order matters.
	ScanPrefix(ctx context.Context, prefix string) ([][]byte, error)
	// Close releases the backend.
	Close() error
}
