// Package baseline persists the reference snapshot a project is diffed
// against. The default backend is the world artifact from the previous run
// on disk; teams sharing baselines across machines can point at MongoDB
// instead.
package baseline

import (
	"context"

	"github.com/ludock/ludock/pkg/snapshot"
)

// Store loads and saves baseline snapshots keyed by project name.
type Store interface {
	// Load returns the stored baseline. The bool reports whether one
	// exists; a first run without a baseline is not an error.
	Load(ctx context.Context, project string) (snapshot.Snapshot, bool, error)

	// Save stores s as the new baseline for the project.
	Save(ctx context.Context, project string, s snapshot.Snapshot) error

	// Close releases backend resources.
	Close() error
}
