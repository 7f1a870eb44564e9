// Package store persists the pricing configuration and the query log in a
// key-value backend (memory, JSON files or PostgreSQL).
package store

import (
	"context"
	"fmt"
	"strings"
)

// Storage keys.
const (
	KeyPricingConfig = "ufc_pricing_config"
	KeyQueries       = "ufc_queries"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// KV is a durable key-value store holding JSON documents.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put overwrites the value for key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Options configure Open.
type Options struct {
	Backend     string
	DataDir     string
	DatabaseURL string
}

// Open returns the KV backend selected by opts.Backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendFile, "":
		return NewFileKV(opts.DataDir)
	case BackendPostgres:
		return NewPostgresKV(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
