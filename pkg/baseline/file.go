package baseline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludock/ludock/pkg/snapshot"
)

// FileStore keeps one baseline per project as a world artifact under a
// directory. The project name is the file stem, so baselines are plain
// snapshots a person can read or copy around.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating it if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create baseline dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(project string) string {
	return filepath.Join(s.dir, project+".world.json")
}

// Load reads the project's baseline, reporting absence without error.
func (s *FileStore) Load(ctx context.Context, project string) (snapshot.Snapshot, bool, error) {
	path := s.path(project)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return snapshot.Snapshot{}, false, nil
	}
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("load baseline: %w", err)
	}
	return snap, true, nil
}

// Save writes the project's baseline.
func (s *FileStore) Save(ctx context.Context, project string, snap snapshot.Snapshot) error {
	if err := snapshot.WriteFile(snap, s.path(project)); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
