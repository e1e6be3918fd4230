package core

import (
	"context"
)

// Inferencer runs the classifier model on an encoded image
type Inferencer interface {
	// Infer returns the per-label confidence bytes of output row 0
	Infer(ctx context.Context, image []byte) ([]byte, error)

	// Close releases the model and interpreter
	Close() error
}

// Reporter uploads serialized classification records.
// Report never blocks on the network and never fails the caller.
type Reporter interface {
	Report(ctx context.Context, payload []byte)
}

// ResultCache stores inference output keyed by image digest
type ResultCache interface {
	// Get retrieves a live entry for a digest
	Get(ctx context.Context, digest string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, digest string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
