// Package cache stores render artifacts keyed by snapshot content. A
// render is a pure function of the snapshot and the render options, so a
// content-addressed hit can skip the rasterizer entirely.
package cache

import (
	"context"
	"time"
)

// Cache is the storage backend for rendered artifacts.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// RenderKeyOpts are the render options that participate in the cache key.
// Anything that changes output bytes must be listed here.
type RenderKeyOpts struct {
	Width       int
	Height      int
	DebugBounds bool
	DebugOrigin bool
	DebugAxes   bool
}

// Keyer generates cache keys.
type Keyer interface {
	// RenderKey generates a key for a render artifact from the snapshot
	// content hash and the options that shaped the output.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// RenderKey generates a key for render artifact caching.
func (k *DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return hashKey("render", snapshotHash, opts)
}
